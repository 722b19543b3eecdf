// Package core defines the shared language of the leapdb system.
//
// This package contains:
//   - Field types and the mapping from declared SQL types
//   - Catalog descriptors (Column, TableMetadata)
//   - Connection configuration (AdapterConfig, ConnectionConfiguration)
//
// The Golden Rule: pkg/core imports ONLY stdlib.
// All other packages depend on core, not the reverse.
package core
