package shortcode

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/okoapay/c2b-console/internal/model"
)

var ErrNotFound = errors.New("shortcode not found")

type ShortcodeRepository interface {
	Create(ctx context.Context, sc *model.Shortcode) error
	Update(ctx context.Context, sc *model.Shortcode) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Shortcode, error)
	List(ctx context.Context) ([]model.Shortcode, error)
	GetRule(ctx context.Context, shortcodeID uuid.UUID) (*model.ValidationRule, error)
	UpsertRule(ctx context.Context, rule *model.ValidationRule) error
}

type ShortcodeRepo struct {
	db *pgxpool.Pool
}

func NewShortcodeRepository(db *pgxpool.Pool) *ShortcodeRepo {
	return &ShortcodeRepo{db: db}
}

const shortcodeColumns = `id, name, shortcode, type, consumer_key, consumer_secret,
	response_type, webhook_token, is_active, created_at, updated_at`

func scanShortcode(row pgx.Row, sc *model.Shortcode) error {
	return row.Scan(
		&sc.ID,
		&sc.Name,
		&sc.Shortcode,
		&sc.Type,
		&sc.ConsumerKey,
		&sc.ConsumerSecret,
		&sc.ResponseType,
		&sc.WebhookToken,
		&sc.IsActive,
		&sc.CreatedAt,
		&sc.UpdatedAt,
	)
}

func (r *ShortcodeRepo) Create(ctx context.Context, sc *model.Shortcode) error {
	sql := `INSERT INTO shortcodes (id, name, shortcode, type, consumer_key, consumer_secret, response_type, webhook_token, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at`

	err := r.db.QueryRow(ctx, sql,
		sc.ID,
		sc.Name,
		sc.Shortcode,
		sc.Type,
		sc.ConsumerKey,
		sc.ConsumerSecret,
		sc.ResponseType,
		sc.WebhookToken,
		sc.IsActive,
	).Scan(&sc.CreatedAt, &sc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert shortcode: %w", err)
	}
	return nil
}

func (r *ShortcodeRepo) Update(ctx context.Context, sc *model.Shortcode) error {
	sql := `UPDATE shortcodes
		SET name = $2, shortcode = $3, type = $4, consumer_key = $5, consumer_secret = $6,
			response_type = $7, is_active = $8, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.QueryRow(ctx, sql,
		sc.ID,
		sc.Name,
		sc.Shortcode,
		sc.Type,
		sc.ConsumerKey,
		sc.ConsumerSecret,
		sc.ResponseType,
		sc.IsActive,
	).Scan(&sc.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to update shortcode: %w", err)
	}
	return nil
}

func (r *ShortcodeRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Shortcode, error) {
	sql := `SELECT ` + shortcodeColumns + ` FROM shortcodes WHERE id = $1`

	var sc model.Shortcode
	err := scanShortcode(r.db.QueryRow(ctx, sql, id), &sc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get shortcode: %w", err)
	}
	return &sc, nil
}

func (r *ShortcodeRepo) List(ctx context.Context) ([]model.Shortcode, error) {
	sql := `SELECT ` + shortcodeColumns + ` FROM shortcodes ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("failed to list shortcodes: %w", err)
	}
	defer rows.Close()

	var shortcodes []model.Shortcode
	for rows.Next() {
		var sc model.Shortcode
		if err := scanShortcode(rows, &sc); err != nil {
			return nil, fmt.Errorf("failed to scan shortcode: %w", err)
		}
		shortcodes = append(shortcodes, sc)
	}
	return shortcodes, rows.Err()
}

func (r *ShortcodeRepo) GetRule(ctx context.Context, shortcodeID uuid.UUID) (*model.ValidationRule, error) {
	sql := `SELECT id, shortcode_id, min_amount, max_amount, require_billref, billref_regex, created_at, updated_at
		FROM validation_rules WHERE shortcode_id = $1`

	var rule model.ValidationRule
	err := r.db.QueryRow(ctx, sql, shortcodeID).Scan(
		&rule.ID,
		&rule.ShortcodeID,
		&rule.MinAmount,
		&rule.MaxAmount,
		&rule.RequireBillRef,
		&rule.BillRefRegex,
		&rule.CreatedAt,
		&rule.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		// No rule means accept everything.
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get validation rule: %w", err)
	}
	return &rule, nil
}

func (r *ShortcodeRepo) UpsertRule(ctx context.Context, rule *model.ValidationRule) error {
	sql := `INSERT INTO validation_rules (id, shortcode_id, min_amount, max_amount, require_billref, billref_regex)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (shortcode_id) DO UPDATE
		SET min_amount = EXCLUDED.min_amount,
			max_amount = EXCLUDED.max_amount,
			require_billref = EXCLUDED.require_billref,
			billref_regex = EXCLUDED.billref_regex,
			updated_at = NOW()
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(ctx, sql,
		rule.ID,
		rule.ShortcodeID,
		rule.MinAmount,
		rule.MaxAmount,
		rule.RequireBillRef,
		rule.BillRefRegex,
	).Scan(&rule.ID, &rule.CreatedAt, &rule.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert validation rule: %w", err)
	}
	return nil
}
