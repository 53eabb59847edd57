package models

import (
	"netbilling-sim/internal/data"
	"netbilling-sim/internal/model"
)

// SimulationRequest represents the request body for running a simulation.
// The year comes from Dataset (a file under DATA_DIR) or from inline Rows.
// The installation comes from PresetID, Inputs, or both (Inputs override the preset).
type SimulationRequest struct {
	Label    string            `json:"label,omitempty"`
	Dataset  string            `json:"dataset,omitempty"`
	Rows     []map[string]any  `json:"rows,omitempty"`
	Columns  *data.Columns     `json:"columns,omitempty"`
	PresetID string            `json:"preset_id,omitempty"`
	Inputs   model.Inputs      `json:"inputs"`
	Options  SimulationOptions `json:"options,omitempty"`
}

// SimulationOptions contains optional simulation parameters
type SimulationOptions struct {
	IncludeLedger bool `json:"include_ledger,omitempty"` // default: false
	NoSave        bool `json:"no_save,omitempty"`        // default: persisted
}

// CompareRequest runs several installations over one year.
type CompareRequest struct {
	Dataset   string            `json:"dataset,omitempty"`
	Rows      []map[string]any  `json:"rows,omitempty"`
	Columns   *data.Columns     `json:"columns,omitempty"`
	Scenarios []ScenarioRequest `json:"scenarios" binding:"required,min=1,dive"`
}

// ScenarioRequest defines one installation to compare
type ScenarioRequest struct {
	Name     string       `json:"name" binding:"required"`
	PresetID string       `json:"preset_id,omitempty"`
	Inputs   model.Inputs `json:"inputs"`
}

// ListRunsQuery is the query string of GET /api/v1/simulations
type ListRunsQuery struct {
	Limit int `form:"limit,omitempty"` // default: 20
}
