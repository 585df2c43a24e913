// Package model defines the data types shared by the reorder engine.
//
// This package contains type definitions, canonical serialization and
// content fingerprints only. Every other internal package imports model;
// model imports nothing internal.
//
// Key design constraints:
//   - Kind is a closed set; unknown tags are rejected at parse time
//   - Positions within one store snapshot are dense and start at 0
//   - All JSON tags use snake_case
//   - Payloads are opaque to the engine and carried as raw JSON
package model
