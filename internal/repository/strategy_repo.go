package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/epeers/repricer/internal/engine"
	"github.com/epeers/repricer/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrStrategyNotFound = errors.New("strategy not found")

// StrategyRepository handles database operations for pricing strategies
type StrategyRepository struct {
	pool *pgxpool.Pool
}

// NewStrategyRepository creates a new StrategyRepository
func NewStrategyRepository(pool *pgxpool.Pool) *StrategyRepository {
	return &StrategyRepository{pool: pool}
}

func scanStrategy(row pgx.Row) (*models.Strategy, error) {
	s := &models.Strategy{}
	var configJSON []byte
	err := row.Scan(&s.ID, &s.Name, &s.Description, &configJSON, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(configJSON, &s.Config); err != nil {
		return nil, fmt.Errorf("failed to decode strategy config: %w", err)
	}
	return s, nil
}

// Count returns the number of stored strategies
func (r *StrategyRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM strategy`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count strategies: %w", err)
	}
	return count, nil
}

// List returns all strategies ordered by name
func (r *StrategyRepository) List(ctx context.Context) ([]models.Strategy, error) {
	query := `
		SELECT id, name, description, config, is_active, created, updated
		FROM strategy
		ORDER BY name
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list strategies: %w", err)
	}
	defer rows.Close()

	var strategies []models.Strategy
	for rows.Next() {
		s, err := scanStrategy(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan strategy: %w", err)
		}
		strategies = append(strategies, *s)
	}
	return strategies, rows.Err()
}

// GetByName retrieves a strategy by its unique name
func (r *StrategyRepository) GetByName(ctx context.Context, name string) (*models.Strategy, error) {
	query := `
		SELECT id, name, description, config, is_active, created, updated
		FROM strategy
		WHERE name = $1
	`
	s, err := scanStrategy(r.pool.QueryRow(ctx, query, name))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrStrategyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get strategy: %w", err)
	}
	return s, nil
}

// GetActive retrieves the currently active strategy
func (r *StrategyRepository) GetActive(ctx context.Context) (*models.Strategy, error) {
	query := `
		SELECT id, name, description, config, is_active, created, updated
		FROM strategy
		WHERE is_active
	`
	s, err := scanStrategy(r.pool.QueryRow(ctx, query))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrStrategyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get active strategy: %w", err)
	}
	return s, nil
}

// Save inserts a strategy or updates it by name
func (r *StrategyRepository) Save(ctx context.Context, name, description string, config engine.StrategyConfig, active bool) (*models.Strategy, error) {
	configJSON, err := json.Marshal(config)
	if err != nil {
		return nil, fmt.Errorf("failed to encode strategy config: %w", err)
	}

	query := `
		INSERT INTO strategy (name, description, config, is_active, created, updated)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		ON CONFLICT (name) DO UPDATE
		SET description = EXCLUDED.description,
		    config = EXCLUDED.config,
		    updated = NOW()
		RETURNING id, name, description, config, is_active, created, updated
	`
	s, err := scanStrategy(r.pool.QueryRow(ctx, query, name, description, configJSON, active))
	if err != nil {
		return nil, fmt.Errorf("failed to save strategy: %w", err)
	}
	return s, nil
}

// Delete removes a strategy by name
func (r *StrategyRepository) Delete(ctx context.Context, name string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM strategy WHERE name = $1`, name)
	if err != nil {
		return fmt.Errorf("failed to delete strategy: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrStrategyNotFound
	}
	return nil
}

// Activate marks one strategy active and clears the flag everywhere else.
// Runs in a transaction so there is never more than one active strategy.
func (r *StrategyRepository) Activate(ctx context.Context, name string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `UPDATE strategy SET is_active = false WHERE is_active`); err != nil {
		return fmt.Errorf("failed to clear active strategy: %w", err)
	}

	tag, err := tx.Exec(ctx, `UPDATE strategy SET is_active = true, updated = NOW() WHERE name = $1`, name)
	if err != nil {
		return fmt.Errorf("failed to activate strategy: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrStrategyNotFound
	}

	return tx.Commit(ctx)
}
