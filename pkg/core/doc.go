// Package core defines the shared language of the cellfmt system.
//
// This package contains:
//   - The expression tree (Expr and its closed set of node kinds)
//   - The canonical function vocabulary
//   - Model, Binding and DataLog, the unit of import and export
//   - Format descriptors and the error taxonomy
//
// The Golden Rule: pkg/core imports ONLY pkg/token and stdlib.
// All other packages depend on core, not the reverse.
package core
