package prompt

import (
	"context"
	"errors"
	"fmt"
)

type Kind string

const (
	KindBase     Kind = "base"
	KindSpecMode Kind = "mode"
	KindAgent    Kind = "agent"
)

// Base slugs stored in base_prompts.
const (
	SlugSpecGeneration         = "spec-generation"
	SlugSpecGenerationFollowup = "spec-generation-followup"
	SlugQuestionGeneration     = "question-generation"
)

// Spec modes.
const (
	ModeMVP             = "mvp"
	ModeProductionReady = "production-ready"
)

var (
	ErrNotFound          = errors.New("prompt fragment not found")
	ErrStoreUnavailable  = errors.New("prompt store unavailable")
	ErrMissingBasePrompt = errors.New("base prompt not found")
	ErrMissingSpecMode   = errors.New("spec mode prompt not found")
)

// Fragment is one versioned piece of prompt text. ContractVersion is only meaningful for KindBase.
type Fragment struct {
	Kind            Kind   `json:"kind"`
	Identifier      string `json:"identifier"`
	Version         int    `json:"version"`
	ContractVersion int    `json:"contract_version,omitempty"`
	Text            string `json:"text"`
	Active          bool   `json:"active"`
}

// Store resolves fragments. version <= 0 means the highest active version.
// Implementations return ErrNotFound when no active row matches and wrap
// ErrStoreUnavailable on transport failures.
type Store interface {
	Fetch(ctx context.Context, kind Kind, identifier string, version int) (Fragment, error)
}

type StoreFunc func(ctx context.Context, kind Kind, identifier string, version int) (Fragment, error)

func (f StoreFunc) Fetch(ctx context.Context, kind Kind, identifier string, version int) (Fragment, error) {
	return f(ctx, kind, identifier, version)
}

func cacheKey(kind Kind, identifier string, version int) string {
	if version < 0 {
		version = 0
	}
	return fmt.Sprintf("%s:%s:v%d", kind, identifier, version)
}
