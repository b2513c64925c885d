package validate

import (
	"context"
	"fmt"
	"regexp"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

// pythonDangerousCalls covers eval/exec/compile and the builtins that let
// guest code probe or mutate object internals.
var pythonDangerousCalls = []string{
	"eval", "exec", "compile",
	"getattr", "setattr", "delattr", "hasattr",
	"open", "input",
}

// pythonDangerousDunders covers reflection attributes that would otherwise
// let guest code climb out of a restricted namespace.
var pythonDangerousDunders = []string{
	"__code__", "__globals__", "__class__", "__bases__",
	"__subclasses__", "__mro__", "__dict__",
}

// pythonDangerousModules covers module-qualified accesses into process,
// filesystem, network, and serialization primitives.
var pythonDangerousModules = []string{
	"os.", "sys.", "subprocess.", "socket.",
	"pickle.", "marshal.", "importlib.", "builtins.", "__builtins__",
}

var pythonCallPattern = regexp.MustCompile(`\b(` + joinAlternation(pythonDangerousCalls) + `)\s*\(`)
var pythonDunderPattern = regexp.MustCompile(joinAlternation(pythonDangerousDunders))
var pythonModulePattern = regexp.MustCompile(regexp.QuoteMeta("") + `(` + joinAlternation(pythonDangerousModules) + `)`)
var pythonImportPattern = regexp.MustCompile(`(?m)^\s*(?:import\s+([\w.]+)|from\s+([\w.]+)\s+import\b)`)

// pythonDangerousModuleRoots is the root-package denylist for import
// statements; only these trigger a "Dangerous import" error (unrelated
// imports are left to run, since the validator is a rejection gate, not an
// allowlist).
var pythonDangerousModuleRoots = map[string]bool{
	"os": true, "sys": true, "subprocess": true, "socket": true,
	"pickle": true, "marshal": true, "importlib": true, "builtins": true,
	"__builtins__": true,
}

func rootModule(mod string) string {
	for i := 0; i < len(mod); i++ {
		if mod[i] == '.' {
			return mod[:i]
		}
	}
	return mod
}

var pythonTreeSitterParser = func() *sitter.Parser {
	p := sitter.NewParser()
	p.SetLanguage(python.GetLanguage())
	return p
}()

func validatePython(code string) Result {
	var errs []string

	tree, err := pythonTreeSitterParser.ParseCtx(context.Background(), nil, []byte(code))
	if err == nil && tree != nil {
		if tree.RootNode().HasError() {
			errs = append(errs, "python code has syntax errors")
		}
		tree.Close()
	}

	if m := pythonCallPattern.FindStringSubmatch(code); m != nil {
		errs = append(errs, fmt.Sprintf("Dangerous method call: %s", m[1]))
	}
	if m := pythonDunderPattern.FindString(code); m != "" {
		errs = append(errs, fmt.Sprintf("Dangerous constant access: %s", m))
	}
	if m := pythonModulePattern.FindStringSubmatch(code); m != nil {
		errs = append(errs, fmt.Sprintf("Dangerous pattern: %s", m[1]))
	}

	for _, m := range pythonImportPattern.FindAllStringSubmatch(code, -1) {
		mod := m[1]
		if mod == "" {
			mod = m[2]
		}
		if mod != "" && pythonDangerousModuleRoots[rootModule(mod)] {
			errs = append(errs, fmt.Sprintf("Dangerous import: %s", mod))
		}
	}

	return Result{Errors: errs}
}

func joinAlternation(items []string) string {
	out := ""
	for i, s := range items {
		if i > 0 {
			out += "|"
		}
		out += regexp.QuoteMeta(s)
	}
	return out
}
