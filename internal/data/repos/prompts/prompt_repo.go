package prompts

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/specforge-backend/internal/domain"
	"github.com/yungbote/specforge-backend/internal/platform/logger"
	"github.com/yungbote/specforge-backend/internal/prompt"
)

// PromptRepo is the gorm-backed prompt.Store. Reads only ever see active rows.
type PromptRepo interface {
	Fetch(ctx context.Context, kind prompt.Kind, identifier string, version int) (prompt.Fragment, error)
	ListActive(ctx context.Context, tx *gorm.DB) ([]prompt.Fragment, error)
	Upsert(ctx context.Context, tx *gorm.DB, frags []prompt.Fragment) (int, error)
}

type promptRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPromptRepo(db *gorm.DB, baseLog *logger.Logger) PromptRepo {
	repoLog := baseLog.With("repo", "PromptRepo")
	return &promptRepo{db: db, log: repoLog}
}

func (r *promptRepo) Fetch(ctx context.Context, kind prompt.Kind, identifier string, version int) (prompt.Fragment, error) {
	switch kind {
	case prompt.KindBase:
		var row types.BasePrompt
		if err := r.latestActive(ctx, "slug", identifier, version, &row); err != nil {
			return prompt.Fragment{}, r.wrap(err, kind, identifier, version)
		}
		return baseFragment(row), nil
	case prompt.KindSpecMode:
		var row types.SpecModePrompt
		if err := r.latestActive(ctx, "mode", identifier, version, &row); err != nil {
			return prompt.Fragment{}, r.wrap(err, kind, identifier, version)
		}
		return modeFragment(row), nil
	case prompt.KindAgent:
		var row types.AgentPrompt
		if err := r.latestActive(ctx, "agent_id", identifier, version, &row); err != nil {
			return prompt.Fragment{}, r.wrap(err, kind, identifier, version)
		}
		return agentFragment(row), nil
	default:
		return prompt.Fragment{}, fmt.Errorf("unknown prompt kind %q", kind)
	}
}

func (r *promptRepo) latestActive(ctx context.Context, column, identifier string, version int, out any) error {
	q := r.db.WithContext(ctx).
		Where(column+" = ? AND is_active = ?", identifier, true)
	if version > 0 {
		q = q.Where("version = ?", version)
	}
	return q.Order("version DESC").Take(out).Error
}

func (r *promptRepo) wrap(err error, kind prompt.Kind, identifier string, version int) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		r.log.Warn("prompt fragment not found", "kind", kind, "identifier", identifier, "version", version)
		return fmt.Errorf("%w: %s %q", prompt.ErrNotFound, kind, identifier)
	}
	r.log.Error("prompt fetch failed", "kind", kind, "identifier", identifier, "error", err)
	return fmt.Errorf("%w: %w", prompt.ErrStoreUnavailable, err)
}

func (r *promptRepo) ListActive(ctx context.Context, tx *gorm.DB) ([]prompt.Fragment, error) {
	txx := tx
	if txx == nil {
		txx = r.db
	}
	txx = txx.WithContext(ctx)

	var (
		bases  []types.BasePrompt
		modes  []types.SpecModePrompt
		agents []types.AgentPrompt
	)
	if err := txx.Where("is_active = ?", true).Find(&bases).Error; err != nil {
		return nil, fmt.Errorf("%w: %w", prompt.ErrStoreUnavailable, err)
	}
	if err := txx.Where("is_active = ?", true).Find(&modes).Error; err != nil {
		return nil, fmt.Errorf("%w: %w", prompt.ErrStoreUnavailable, err)
	}
	if err := txx.Where("is_active = ?", true).Find(&agents).Error; err != nil {
		return nil, fmt.Errorf("%w: %w", prompt.ErrStoreUnavailable, err)
	}

	out := make([]prompt.Fragment, 0, len(bases)+len(modes)+len(agents))
	for _, b := range bases {
		out = append(out, baseFragment(b))
	}
	for _, m := range modes {
		out = append(out, modeFragment(m))
	}
	for _, a := range agents {
		out = append(out, agentFragment(a))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return kindOrder(out[i].Kind) < kindOrder(out[j].Kind)
		}
		if out[i].Identifier != out[j].Identifier {
			return out[i].Identifier < out[j].Identifier
		}
		return out[i].Version > out[j].Version
	})
	return out, nil
}

// Upsert writes fragments keyed by (identifier, version). Existing rows get their text,
// contract version and active flag replaced.
func (r *promptRepo) Upsert(ctx context.Context, tx *gorm.DB, frags []prompt.Fragment) (int, error) {
	txx := tx
	if txx == nil {
		txx = r.db
	}
	txx = txx.WithContext(ctx)

	n := 0
	for _, f := range frags {
		if f.Version <= 0 {
			return n, fmt.Errorf("%s %q: version must be positive", f.Kind, f.Identifier)
		}
		var err error
		switch f.Kind {
		case prompt.KindBase:
			cv := f.ContractVersion
			if cv <= 0 {
				cv = 1
			}
			row := &types.BasePrompt{Slug: f.Identifier, Version: f.Version, ContractVersion: cv, PromptTemplate: f.Text, IsActive: f.Active}
			err = txx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "slug"}, {Name: "version"}},
				DoUpdates: clause.AssignmentColumns([]string{"contract_version", "prompt_template", "is_active", "updated_at"}),
			}).Create(row).Error
		case prompt.KindSpecMode:
			row := &types.SpecModePrompt{Mode: f.Identifier, Version: f.Version, Instructions: f.Text, IsActive: f.Active}
			err = txx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "mode"}, {Name: "version"}},
				DoUpdates: clause.AssignmentColumns([]string{"instructions", "is_active", "updated_at"}),
			}).Create(row).Error
		case prompt.KindAgent:
			row := &types.AgentPrompt{AgentID: f.Identifier, Version: f.Version, Instructions: f.Text, IsActive: f.Active}
			err = txx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "agent_id"}, {Name: "version"}},
				DoUpdates: clause.AssignmentColumns([]string{"instructions", "is_active", "updated_at"}),
			}).Create(row).Error
		default:
			err = fmt.Errorf("unknown prompt kind %q", f.Kind)
		}
		if err != nil {
			return n, fmt.Errorf("upsert %s %q v%d: %w", f.Kind, f.Identifier, f.Version, err)
		}
		n++
	}
	r.log.Info("prompt fragments upserted", "count", n)
	return n, nil
}

func baseFragment(row types.BasePrompt) prompt.Fragment {
	return prompt.Fragment{
		Kind:            prompt.KindBase,
		Identifier:      row.Slug,
		Version:         row.Version,
		ContractVersion: row.ContractVersion,
		Text:            row.PromptTemplate,
		Active:          row.IsActive,
	}
}

func modeFragment(row types.SpecModePrompt) prompt.Fragment {
	return prompt.Fragment{
		Kind:       prompt.KindSpecMode,
		Identifier: row.Mode,
		Version:    row.Version,
		Text:       row.Instructions,
		Active:     row.IsActive,
	}
}

func agentFragment(row types.AgentPrompt) prompt.Fragment {
	return prompt.Fragment{
		Kind:       prompt.KindAgent,
		Identifier: row.AgentID,
		Version:    row.Version,
		Text:       row.Instructions,
		Active:     row.IsActive,
	}
}

func kindOrder(k prompt.Kind) int {
	switch k {
	case prompt.KindBase:
		return 0
	case prompt.KindSpecMode:
		return 1
	default:
		return 2
	}
}
