// Package core provides the table model and filtering logic for the sheet
// filter UI.
//
// This package has no transport or UI dependencies. The web layer and tests
// drive it directly.
//
// # Pipeline
//
// A load produces a raw [Table] of text cells. The rest is pure functions:
//
//  1. [Normalize] trims headers and cells and coerces the designated size
//     columns (Headcount, Employee Size) into numbers, deciding a
//     [ColumnKind] per filter column.
//  2. [BuildPanel] derives one [Control] per filter column from the
//     normalized table and the current [Selection].
//  3. [Filter] keeps the rows that satisfy every active constraint.
//  4. [WriteCSV] serializes the filtered view for download.
//
// # Cells
//
// Each cell is a [Value] tagged Text, Number, or Missing. The tag is decided
// once per column at normalization time, never per filter application.
//
// # Error Handling
//
// Load failures wrap one of [ErrConfig], [ErrSourceUnavailable],
// [ErrFormat], or [ErrCredential]. [MapError] turns any error into a
// [UserMessage] with a support code:
//
//   - CFG001: no usable source configured
//   - SRC001-SRC002: source unreachable or timed out
//   - FMT001: content is not tabular
//   - CRED001-CRED002: credential malformed or rejected
package core
