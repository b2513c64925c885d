// Package validate implements the static validator: per-language rule sets
// applied to a raw source string (plus, where available, a parse-tree walk)
// that reject code containing disallowed constructs before any execution.
// The validator is necessary but not sufficient — it is a fast rejection
// gate, never the sandbox's only line of defense.
package validate

import (
	"fmt"
	"strings"
)

// Result is the immutable outcome of one validator pass. Invariant:
// invalid iff Errors is non-empty.
type Result struct {
	Errors   []string
	Warnings []string
}

// Valid reports whether the code passed every rule.
func (r Result) Valid() bool {
	return len(r.Errors) == 0
}

// Error implements the error interface so a failed Result can be returned
// directly from MustValidate-style call sites.
type Error struct {
	Errors []string
}

func (e *Error) Error() string {
	return strings.Join(e.Errors, "; ")
}

// Validate applies the rule set for lang against code. Order of checks is
// deterministic: the same input always produces the same ordered errors.
func Validate(code, lang string) Result {
	switch lang {
	case "go":
		return validateGo(code)
	case "python":
		return validatePython(code)
	case "javascript", "typescript":
		return validateECMAScript(code, lang)
	default:
		return Result{Errors: []string{fmt.Sprintf("unsupported language: %s", lang)}}
	}
}

// MustValidate returns a non-nil *Error carrying the semicolon-joined error
// string when Validate would report failure, and nil otherwise.
func MustValidate(code, lang string) error {
	res := Validate(code, lang)
	if !res.Valid() {
		return &Error{Errors: res.Errors}
	}
	return nil
}
