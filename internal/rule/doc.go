// Package rule implements the access-rule text format: the grammar, the parser
// with byte-span diagnostics, the Rule AST and its canonical text.
//
// Grammar:
//
//	rule       := clause (',' clause)*          // more than one clause => Multi
//	clause     := call | level_call | reference | checkable | optional | item
//	call       := '$' ident ('|' arg)*
//	level_call := '^$' ident ('|' arg)*
//	reference  := '@' location '/' section
//	checkable  := '{' rule '}'
//	optional   := '[' rule ']'
//	item       := one or more chars excluding '|,{}[]/'
//	arg        := chars excluding '|,}]'
//
// Constraints:
//   - A single clause is returned bare, never wrapped in Multi.
//   - The canonical text (String) re-parses to a rule that evaluates identically.
//   - Rule text is never trimmed; whitespace is part of item codes and args.
package rule
