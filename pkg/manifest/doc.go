// Package manifest parses and renders the revision manifest.
//
// The manifest is UTF-8 text, one record per line:
//
//	# lines that start with a pound sign are comments and ignored along with blank lines
//	#
//	# live   branch   revision
//	true	trunk	123
//	false	beta	7
//
// Fields are tab separated and runs of tabs count as a single separator.
// Only the first three fields are read. The live field
// is true when it equals "true" in any case and false otherwise, so a
// typo never fails the parse. Lines with an unusable branch name or a non-integer
// revision are dropped and reported as warnings; the parser never fails on
// content. Deciding whether the records make a usable manifest (exactly
// one live record, at least one record) is left to the caller.
package manifest
