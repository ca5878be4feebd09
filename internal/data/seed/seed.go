// Package seed loads prompt fragments from YAML and upserts them into the prompt store.
package seed

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	"github.com/yungbote/specforge-backend/internal/prompt"
)

//go:embed prompts.yaml
var defaultPrompts []byte

type File struct {
	Base      []BaseEntry     `yaml:"base"`
	SpecModes []SpecModeEntry `yaml:"spec_modes"`
	Agents    []AgentEntry    `yaml:"agents"`
}

type BaseEntry struct {
	Slug            string `yaml:"slug"`
	Version         int    `yaml:"version"`
	ContractVersion int    `yaml:"contract_version"`
	Active          *bool  `yaml:"active"`
	Text            string `yaml:"text"`
}

type SpecModeEntry struct {
	Mode    string `yaml:"mode"`
	Version int    `yaml:"version"`
	Active  *bool  `yaml:"active"`
	Text    string `yaml:"text"`
}

type AgentEntry struct {
	AgentID string `yaml:"agent_id"`
	Version int    `yaml:"version"`
	Active  *bool  `yaml:"active"`
	Text    string `yaml:"text"`
}

// Upserter is satisfied by the prompt repo.
type Upserter interface {
	Upsert(ctx context.Context, tx *gorm.DB, frags []prompt.Fragment) (int, error)
}

// Default returns the embedded fragments.
func Default() ([]prompt.Fragment, error) {
	return Parse(defaultPrompts)
}

// LoadFile reads fragments from path; an empty path means the embedded defaults.
func LoadFile(path string) ([]prompt.Fragment, error) {
	if strings.TrimSpace(path) == "" {
		return Default()
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(b)
}

func Parse(b []byte) ([]prompt.Fragment, error) {
	var f File
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse seed yaml: %w", err)
	}

	out := make([]prompt.Fragment, 0, len(f.Base)+len(f.SpecModes)+len(f.Agents))
	seen := map[string]bool{}
	add := func(fr prompt.Fragment) error {
		fr.Identifier = strings.TrimSpace(fr.Identifier)
		fr.Text = strings.TrimRight(fr.Text, "\n")
		if fr.Identifier == "" {
			return fmt.Errorf("%s entry missing identifier", fr.Kind)
		}
		if fr.Version <= 0 {
			fr.Version = 1
		}
		if strings.TrimSpace(fr.Text) == "" {
			return fmt.Errorf("%s %q has empty text", fr.Kind, fr.Identifier)
		}
		key := fmt.Sprintf("%s:%s:%d", fr.Kind, fr.Identifier, fr.Version)
		if seen[key] {
			return fmt.Errorf("duplicate seed entry %s", key)
		}
		seen[key] = true
		out = append(out, fr)
		return nil
	}

	for _, e := range f.Base {
		cv := e.ContractVersion
		if cv <= 0 {
			cv = 1
		}
		if err := add(prompt.Fragment{Kind: prompt.KindBase, Identifier: e.Slug, Version: e.Version, ContractVersion: cv, Text: e.Text, Active: activeOrDefault(e.Active)}); err != nil {
			return nil, err
		}
	}
	for _, e := range f.SpecModes {
		if err := add(prompt.Fragment{Kind: prompt.KindSpecMode, Identifier: e.Mode, Version: e.Version, Text: e.Text, Active: activeOrDefault(e.Active)}); err != nil {
			return nil, err
		}
	}
	for _, e := range f.Agents {
		if err := add(prompt.Fragment{Kind: prompt.KindAgent, Identifier: e.AgentID, Version: e.Version, Text: e.Text, Active: activeOrDefault(e.Active)}); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Apply upserts frags in a single transaction.
func Apply(ctx context.Context, db *gorm.DB, repo Upserter, frags []prompt.Fragment) (int, error) {
	var n int
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		n, err = repo.Upsert(ctx, tx, frags)
		return err
	})
	return n, err
}

func activeOrDefault(v *bool) bool {
	if v == nil {
		return true
	}
	return *v
}
