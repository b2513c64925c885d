package limiter

import (
	"bytes"
	"fmt"
	"go/ast"
	"go/format"
	"go/parser"
	"go/token"

	"golang.org/x/tools/go/ast/astutil"
)

// Mode selects which event Instrument counts. :call ticks once per call
// expression rather than once per statement (and once for a statement with
// no call), so a statement with multiple calls (e.g. f(g())) contributes
// more than one tick; callers choose the
// stricter :call mode for suspicious input.
type Mode string

const (
	ModeLine Mode = "line"
	ModeCall Mode = "call"
)

// ParseMode converts a config-file trace mode string ("line"/"call") into a
// Mode, the form every strategy actually consumes.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeLine, ModeCall:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("unknown trace mode: %q", s)
	}
}

// Instrument parses Go source and rewrites it to call limiterhook.MustTick
// on every event of the given mode, returning the rewritten source as text.
// Line mode ticks once per statement; call mode ticks once per call
// expression the statement directly contains (excluding calls inside a
// nested block, which are counted when that block is instrumented in its
// own right) and at least once per statement, so :call is never looser
// than :line for the same program.
// Host-side evaluation plumbing (package clause, import block) is left
// untouched — only statement lists inside function bodies and other blocks
// are rewritten.
func Instrument(src string, mode Mode) (string, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "guest.go", src, parser.ParseComments)
	if err != nil {
		return "", fmt.Errorf("parse guest source: %w", err)
	}

	switch mode {
	case ModeLine:
		instrumentBlocks(file, func(ast.Stmt) int { return 1 })
	case ModeCall:
		instrumentBlocks(file, countCalls)
	default:
		return "", fmt.Errorf("unknown trace mode: %q", mode)
	}

	astutil.AddImport(fset, file, TickImportPath)

	var buf bytes.Buffer
	if err := format.Node(&buf, fset, file); err != nil {
		return "", fmt.Errorf("render instrumented source: %w", err)
	}
	return buf.String(), nil
}

func tickStmt() ast.Stmt {
	return &ast.ExprStmt{
		X: &ast.CallExpr{
			Fun: &ast.SelectorExpr{
				X:   ast.NewIdent(TickPackageName),
				Sel: ast.NewIdent("MustTick"),
			},
		},
	}
}

// instrumentBlocks walks every block statement in the file and inserts
// tickCount(stmt) ticks before each statement.
func instrumentBlocks(file *ast.File, tickCount func(ast.Stmt) int) {
	ast.Inspect(file, func(n ast.Node) bool {
		block, ok := n.(*ast.BlockStmt)
		if !ok {
			return true
		}
		out := make([]ast.Stmt, 0, len(block.List)*2)
		for _, stmt := range block.List {
			for i := 0; i < tickCount(stmt); i++ {
				out = append(out, tickStmt())
			}
			out = append(out, stmt)
		}
		block.List = out
		return true
	})
}

// countCalls reports how many call expressions stmt directly contains,
// with a minimum of one so every statement ticks at least as often as in
// line mode. It stops descent at any nested block statement — that block's
// own statements are counted separately when instrumentBlocks visits it in
// its own right, so a call nested two blocks deep is never counted twice.
func countCalls(stmt ast.Stmt) int {
	if _, ok := stmt.(*ast.BlockStmt); ok {
		return 1
	}
	count := 0
	ast.Inspect(stmt, func(n ast.Node) bool {
		if _, ok := n.(*ast.BlockStmt); ok {
			return false
		}
		if _, ok := n.(*ast.CallExpr); ok {
			count++
		}
		return true
	})
	if count == 0 {
		return 1
	}
	return count
}
