package validate

import (
	"context"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"regexp"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
)

// dangerousGoSelectors is the authoritative dangerous-method set for the
// host language: package.Func pairs that let guest code escape the sandbox
// (process control, raw syscalls, unsafe memory, dynamic plugin loading).
var dangerousGoSelectors = map[string]bool{
	"exec.Command":        true,
	"exec.CommandContext": true,
	"os.Exit":             true,
	"os.RemoveAll":        true,
	"os.StartProcess":     true,
	"syscall.Exec":        true,
	"syscall.Kill":        true,
	"syscall.Syscall":     true,
	"plugin.Open":         true,
	"reflect.NewAt":       true,
}

// dangerousGoImports is the authoritative denied-import set for the host
// language: packages that reach outside the sandbox surface entirely.
var dangerousGoImports = map[string]bool{
	"os/exec":  true,
	"syscall":  true,
	"unsafe":   true,
	"plugin":   true,
	"net":      true,
	"net/http": true,
	"os":       true,
}

// dangerousGoPatterns reject subprocess/shell-invocation literal patterns
// embedded directly in source text.
var dangerousGoPatterns = []struct {
	re  *regexp.Regexp
	tag string
}{
	{regexp.MustCompile(`(?i)/bin/(sh|bash)\b`), "shell invocation literal"},
	{regexp.MustCompile(`(?i)\bbash\s+-c\b`), "shell invocation literal"},
}

var goTreeSitterParser = func() *sitter.Parser {
	p := sitter.NewParser()
	p.SetLanguage(golang.GetLanguage())
	return p
}()

func validateGo(code string) Result {
	var errs []string

	// Syntax-error detection via tree-sitter, ahead of the semantic go/ast
	// pass: a syntactically broken guest never reaches call-node analysis.
	tree, err := goTreeSitterParser.ParseCtx(context.Background(), nil, []byte(code))
	if err == nil && tree != nil {
		if tree.RootNode().HasError() {
			errs = append(errs, "go code has syntax errors")
		}
		tree.Close()
	}

	for _, p := range dangerousGoPatterns {
		if loc := p.re.FindString(code); loc != "" {
			errs = append(errs, fmt.Sprintf("Dangerous pattern: %s", loc))
		}
	}

	fset := token.NewFileSet()
	file, perr := parser.ParseFile(fset, "guest.go", code, parser.AllErrors)
	if perr != nil {
		if len(errs) == 0 {
			// go/ast couldn't parse it either and tree-sitter missed it
			// (e.g. a single malformed top-level declaration); report once.
			errs = append(errs, "go code has syntax errors")
		}
		return Result{Errors: errs}
	}

	ast.Inspect(file, func(n ast.Node) bool {
		call, ok := n.(*ast.CallExpr)
		if !ok {
			return true
		}
		name := selectorName(call)
		if name != "" && dangerousGoSelectors[name] {
			errs = append(errs, fmt.Sprintf("Dangerous method call: %s", name))
		}
		return true
	})

	for _, imp := range file.Imports {
		path := importPath(imp)
		if dangerousGoImports[path] {
			errs = append(errs, fmt.Sprintf("Dangerous import: %s", path))
		}
	}

	return Result{Errors: errs}
}

func selectorName(call *ast.CallExpr) string {
	sel, ok := call.Fun.(*ast.SelectorExpr)
	if !ok {
		return ""
	}
	ident, ok := sel.X.(*ast.Ident)
	if !ok {
		return ""
	}
	return ident.Name + "." + sel.Sel.Name
}

func importPath(imp *ast.ImportSpec) string {
	s := imp.Path.Value
	if len(s) >= 2 {
		return s[1 : len(s)-1]
	}
	return s
}
