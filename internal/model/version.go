package model

// Version constants for the data model and engine.
const (
	// ModelVersion is the schema version of persisted items and events.
	ModelVersion = "1"

	// EngineVersion is the reorder engine version.
	EngineVersion = "0.1.0"
)
