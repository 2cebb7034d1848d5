// Package compiler turns authoring files into tracker records.
//
// Authoring files are JSON with the usual pack leniencies: an optional UTF-8
// byte order mark, comments and trailing commas, and numbers or booleans
// written as strings. Files are read through CUE, unified with the schema in
// schema.go and validated concretely before being decoded into ir and item
// records.
//
// ERROR MODEL:
//
//   - A file that does not parse or does not match the schema fails as a
//     whole with a CompileError carrying its source position.
//   - A location or section whose access rule does not parse is dropped and
//     reported as a Diagnostic; its siblings still load.
//   - Reference cycles between sections are warnings (AnalyzeCycles).
package compiler
