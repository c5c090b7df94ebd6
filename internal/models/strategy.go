package models

import (
	"time"

	"github.com/epeers/repricer/internal/engine"
)

// Strategy is a stored pricing strategy. Config holds the raw strategy
// document as uploaded; it is normalized and validated by the engine when a
// batch runs (and on save, so broken configs never reach the store).
type Strategy struct {
	ID          int64                 `json:"id"`
	Name        string                `json:"name"`
	Description string                `json:"description"`
	Config      engine.StrategyConfig `json:"config"`
	IsActive    bool                  `json:"is_active"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`
}

// SaveStrategyRequest is the request body for creating or updating a strategy.
type SaveStrategyRequest struct {
	Name        string                `json:"name" binding:"required"`
	Description string                `json:"description"`
	Config      engine.StrategyConfig `json:"config" binding:"required"`
}
