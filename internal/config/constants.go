// Package config is the single source of truth for the language constants
// shared across phases: keyword-adjacent match kinds, file extensions,
// and default search paths.
package config

import "github.com/oxide-computer/x4c/internal/ast"

// SourceExtension is the expected extension for a compilation unit's root
// file; #include targets may use any extension.
const SourceExtension = ".p4"

// DefaultIncludeDirs are the include search directories the CLI starts
// from; each -I path is placed ahead of them. Angle-bracket includes
// search these directories before the including file's own directory.
var DefaultIncludeDirs = []string{
	"/usr/local/share/x4c/p4include",
	"/usr/share/x4c/p4include",
}

// MatchKinds is the closed set of table key match kinds this compiler
// recognizes. Anything else is a parse error, not a semantic one.
var MatchKinds = map[string]ast.MatchKind{
	"exact":   ast.MatchExact,
	"ternary": ast.MatchTernary,
	"lpm":     ast.MatchLPM,
	"range":   ast.MatchRange,
}

// IsMatchKind reports whether name is a recognized match-kind identifier.
func IsMatchKind(name string) bool {
	_, ok := MatchKinds[name]
	return ok
}

// WellKnownStates are parser state names with built-in meaning; they
// cannot be declared by user code and never require a reachability check
// of their own.
var WellKnownStates = map[string]bool{
	"accept": true,
	"reject": true,
}

// MaxIncludeDepth bounds #include nesting independent of the cycle
// detector, as a defense against pathological search-path configurations.
const MaxIncludeDepth = 64
