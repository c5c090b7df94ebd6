package models

import "github.com/epeers/repricer/internal/engine"

// ErrorResponse is the standard error body for all endpoints
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// ProcessResponse is the result of a batch pricing run
type ProcessResponse struct {
	Summary engine.Summary  `json:"summary"`
	Stats   engine.Stats    `json:"stats"`
	Sample  []engine.Result `json:"sample_results"`
	Results []engine.Result `json:"results"`
	CSV     string          `json:"csv"`
}

// ListStrategiesResponse lists stored strategies and names the active one
type ListStrategiesResponse struct {
	Strategies []Strategy `json:"strategies"`
	Active     string     `json:"active"`
}

// MessageResponse is a simple acknowledgement body
type MessageResponse struct {
	Message string `json:"message"`
}
