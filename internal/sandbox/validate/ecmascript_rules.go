package validate

import (
	"context"
	"fmt"
	"regexp"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

var ecmaDangerousCallPattern = regexp.MustCompile(`\b(eval)\s*\(|\bnew\s+Function\s*\(|\bfetch\s*\(`)

var ecmaDangerousGlobalPattern = regexp.MustCompile(`\b(process|global)\.|\b__dirname\b|\b__filename\b|\bdocument\.|\bwindow\.|\bXMLHttpRequest\b`)

var ecmaDangerousRequires = []string{
	"child_process", "fs", "net", "http", "https", "vm", "cluster", "worker_threads",
}

var ecmaRequirePattern = regexp.MustCompile(`require\s*\(\s*['"]([\w./-]+)['"]\s*\)`)
var ecmaImportPattern = regexp.MustCompile(`(?m)^\s*import\b.*?['"]([\w./-]+)['"]`)
var ecmaDynamicRequirePattern = regexp.MustCompile(`require\s*\(\s*[^'"]`)
var ecmaPrototypePollutionPattern = regexp.MustCompile(`__proto__|constructor\s*\.\s*prototype`)

var ecmaDangerousModuleSet = func() map[string]bool {
	set := make(map[string]bool, len(ecmaDangerousRequires))
	for _, m := range ecmaDangerousRequires {
		set[m] = true
	}
	return set
}()

var jsTreeSitterParser = func() *sitter.Parser {
	p := sitter.NewParser()
	p.SetLanguage(javascript.GetLanguage())
	return p
}()

var tsTreeSitterParser = func() *sitter.Parser {
	p := sitter.NewParser()
	p.SetLanguage(typescript.GetLanguage())
	return p
}()

func validateECMAScript(code, lang string) Result {
	var errs []string

	parser := jsTreeSitterParser
	if lang == "typescript" {
		parser = tsTreeSitterParser
	}
	tree, err := parser.ParseCtx(context.Background(), nil, []byte(code))
	if err == nil && tree != nil {
		if tree.RootNode().HasError() {
			errs = append(errs, fmt.Sprintf("%s code has syntax errors", lang))
		}
		tree.Close()
	}

	if m := ecmaDangerousCallPattern.FindString(code); m != "" {
		errs = append(errs, fmt.Sprintf("Dangerous method call: %s", m))
	}
	if m := ecmaDangerousGlobalPattern.FindString(code); m != "" {
		errs = append(errs, fmt.Sprintf("Dangerous constant access: %s", m))
	}
	if ecmaDynamicRequirePattern.MatchString(code) {
		errs = append(errs, "Dangerous pattern: dynamic require(...) with a non-literal argument")
	}
	if m := ecmaPrototypePollutionPattern.FindString(code); m != "" {
		errs = append(errs, fmt.Sprintf("Dangerous pattern: %s", m))
	}

	for _, m := range ecmaRequirePattern.FindAllStringSubmatch(code, -1) {
		if ecmaDangerousModuleSet[m[1]] {
			errs = append(errs, fmt.Sprintf("Dangerous import: %s", m[1]))
		}
	}
	for _, m := range ecmaImportPattern.FindAllStringSubmatch(code, -1) {
		if ecmaDangerousModuleSet[m[1]] {
			errs = append(errs, fmt.Sprintf("Dangerous import: %s", m[1]))
		}
	}

	return Result{Errors: errs}
}
