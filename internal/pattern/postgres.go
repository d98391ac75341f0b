package pattern

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// uniqueViolation is the PostgreSQL SQLSTATE for unique constraint violations.
const uniqueViolation = "23505"

// PostgresRepository implements Repository using PostgreSQL. The sub-schema
// structs are stored as JSONB columns; (owner_id, source_hash) carries a
// unique index so concurrent identical uploads resolve at the storage layer.
type PostgresRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresRepository creates a new Postgres-backed pattern repository.
func NewPostgresRepository(db *sql.DB, logger *slog.Logger) *PostgresRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresRepository{db: db, logger: logger}
}

const patternColumns = `id, owner_id, name, category, platform, industry,
	layout, color_psychology, hook_pattern, visual_elements,
	engagement_tier, confidence_score, source_hash,
	usage_count, last_used_at, is_active, created_at`

// FindByHash retrieves a pattern by its (owner, hash) pair.
func (r *PostgresRepository) FindByHash(ctx context.Context, ownerID, sourceHash string) (*Pattern, error) {
	if ownerID == "" {
		return nil, ErrMissingOwner
	}

	query := `SELECT ` + patternColumns + `
		FROM patterns
		WHERE owner_id = $1 AND source_hash = $2`

	row := r.db.QueryRowContext(ctx, query, ownerID, sourceHash)
	p, err := scanPattern(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPatternNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find pattern by hash: %w", err)
	}
	return p, nil
}

// Create inserts a new pattern. A unique-index violation on
// (owner_id, source_hash) is mapped to ErrDuplicatePattern so callers can
// resolve the race between lookup and insert via refetch.
func (r *PostgresRepository) Create(ctx context.Context, p *Pattern) (*Pattern, error) {
	if p.OwnerID == "" {
		return nil, ErrMissingOwner
	}

	stored := p.Clone()
	if stored.ID == "" {
		stored.ID = uuid.New().String()
	}
	stored.IsActive = true

	layout, colorPsych, hook, visuals, err := marshalSubSchema(stored)
	if err != nil {
		return nil, err
	}

	query := `INSERT INTO patterns (
			id, owner_id, name, category, platform, industry,
			layout, color_psychology, hook_pattern, visual_elements,
			engagement_tier, confidence_score, source_hash, usage_count, is_active
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, 0, TRUE)
		RETURNING created_at`

	err = r.db.QueryRowContext(ctx, query,
		stored.ID, stored.OwnerID, stored.Name, stored.Category, stored.Platform,
		nullString(stored.Industry),
		layout, colorPsych, hook, visuals,
		nullString(stored.EngagementTier), stored.ConfidenceScore, stored.SourceHash,
	).Scan(&stored.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return nil, ErrDuplicatePattern
		}
		return nil, fmt.Errorf("create pattern: %w", err)
	}

	r.logger.Debug("pattern created",
		"pattern_id", stored.ID,
		"owner_id", stored.OwnerID,
		"source_hash", stored.SourceHash,
	)
	return stored, nil
}

// ListActive retrieves all active patterns for an owner, newest first.
func (r *PostgresRepository) ListActive(ctx context.Context, ownerID string) ([]*Pattern, error) {
	if ownerID == "" {
		return nil, ErrMissingOwner
	}

	query := `SELECT ` + patternColumns + `
		FROM patterns
		WHERE owner_id = $1 AND is_active = TRUE
		ORDER BY created_at DESC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list active patterns: %w", err)
	}
	defer rows.Close()

	var result []*Pattern
	for rows.Next() {
		p, err := scanPattern(rows)
		if err != nil {
			return nil, fmt.Errorf("scan pattern row: %w", err)
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pattern rows: %w", err)
	}
	return result, nil
}

// TouchUsage atomically increments usage_count and stamps last_used_at.
func (r *PostgresRepository) TouchUsage(ctx context.Context, patternID string) error {
	query := `UPDATE patterns
		SET usage_count = usage_count + 1, last_used_at = NOW()
		WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, patternID)
	if err != nil {
		return fmt.Errorf("touch pattern usage: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("touch pattern usage: %w", err)
	}
	if affected == 0 {
		return ErrPatternNotFound
	}
	return nil
}

// Deactivate soft-deletes a pattern.
func (r *PostgresRepository) Deactivate(ctx context.Context, patternID string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE patterns SET is_active = FALSE WHERE id = $1`, patternID)
	if err != nil {
		return fmt.Errorf("deactivate pattern: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deactivate pattern: %w", err)
	}
	if affected == 0 {
		return ErrPatternNotFound
	}
	return nil
}

// scanner abstracts *sql.Row and *sql.Rows for scanPattern.
type scanner interface {
	Scan(dest ...any) error
}

func scanPattern(s scanner) (*Pattern, error) {
	var (
		p              Pattern
		industry       sql.NullString
		engagementTier sql.NullString
		lastUsedAt     sql.NullTime
		layout         []byte
		colorPsych     []byte
		hook           []byte
		visuals        []byte
	)

	err := s.Scan(
		&p.ID, &p.OwnerID, &p.Name, &p.Category, &p.Platform, &industry,
		&layout, &colorPsych, &hook, &visuals,
		&engagementTier, &p.ConfidenceScore, &p.SourceHash,
		&p.UsageCount, &lastUsedAt, &p.IsActive, &p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if industry.Valid {
		p.Industry = industry.String
	}
	if engagementTier.Valid {
		p.EngagementTier = engagementTier.String
	}
	if lastUsedAt.Valid {
		t := lastUsedAt.Time
		p.LastUsedAt = &t
	}

	if err := json.Unmarshal(layout, &p.Layout); err != nil {
		return nil, fmt.Errorf("decode layout: %w", err)
	}
	if err := json.Unmarshal(colorPsych, &p.ColorPsychology); err != nil {
		return nil, fmt.Errorf("decode color psychology: %w", err)
	}
	if err := json.Unmarshal(hook, &p.HookPattern); err != nil {
		return nil, fmt.Errorf("decode hook pattern: %w", err)
	}
	if err := json.Unmarshal(visuals, &p.VisualElements); err != nil {
		return nil, fmt.Errorf("decode visual elements: %w", err)
	}
	return &p, nil
}

func marshalSubSchema(p *Pattern) (layout, colorPsych, hook, visuals []byte, err error) {
	if layout, err = json.Marshal(p.Layout); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("encode layout: %w", err)
	}
	if colorPsych, err = json.Marshal(p.ColorPsychology); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("encode color psychology: %w", err)
	}
	if hook, err = json.Marshal(p.HookPattern); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("encode hook pattern: %w", err)
	}
	if visuals, err = json.Marshal(p.VisualElements); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("encode visual elements: %w", err)
	}
	return layout, colorPsych, hook, visuals, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
