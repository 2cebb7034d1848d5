// Package ir holds the authoring records a pack supplies (maps, nested
// locations, sections, map pins, layouts), the lenient scalar types they are
// decoded with, and the canonical JSON used to hash level snapshots.
//
// ir imports only the rule package; everything else imports ir.
//
// Key design constraints:
//   - All JSON tags use snake_case, matching the pack file format
//   - Numeric and boolean fields accept either the value or its string spelling
//   - Access rules keep their source text next to the parsed Rule so
//     diagnostics can quote it
//   - Canonical JSON forbids floats and nulls
package ir
