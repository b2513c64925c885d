package validate

import "testing"

func TestValidate_Go_DangerousCall(t *testing.T) {
	code := `package main
import "os/exec"
func main() {
	exec.Command("ls")
}
`
	res := Validate(code, "go")
	if res.Valid() {
		t.Fatal("expected invalid result for exec.Command")
	}
	found := false
	for _, e := range res.Errors {
		if e == "Dangerous method call: exec.Command" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected 'Dangerous method call: exec.Command', got %v", res.Errors)
	}
}

func TestValidate_Go_DangerousImport(t *testing.T) {
	code := `package main
import "syscall"
func main() {}
`
	res := Validate(code, "go")
	if res.Valid() {
		t.Fatal("expected invalid result for syscall import")
	}
}

func TestValidate_Go_SyntaxError(t *testing.T) {
	code := `package main
func main( {
`
	res := Validate(code, "go")
	if res.Valid() {
		t.Fatal("expected invalid result for malformed syntax")
	}
}

func TestValidate_Go_CleanCodePasses(t *testing.T) {
	code := `package main
func main() {
	x := 1 + 2
	_ = x
}
`
	res := Validate(code, "go")
	if !res.Valid() {
		t.Errorf("expected clean code to validate, got errors: %v", res.Errors)
	}
}

func TestValidate_Python_DangerousImport(t *testing.T) {
	res := Validate("import os", "python")
	if res.Valid() {
		t.Fatal("expected invalid result")
	}
	found := false
	for _, e := range res.Errors {
		if e == "Dangerous import: os" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected 'Dangerous import: os', got %v", res.Errors)
	}
}

func TestValidate_Python_Eval(t *testing.T) {
	res := Validate("eval('1+1')", "python")
	if res.Valid() {
		t.Fatal("expected invalid result for eval()")
	}
}

func TestValidate_Python_Dunder(t *testing.T) {
	res := Validate("x.__globals__", "python")
	if res.Valid() {
		t.Fatal("expected invalid result for __globals__ access")
	}
}

func TestValidate_Python_HarmlessImportPasses(t *testing.T) {
	res := Validate("import math\nprint(math.sqrt(4))", "python")
	if !res.Valid() {
		t.Errorf("expected harmless import to validate, got errors: %v", res.Errors)
	}
}

func TestValidate_JavaScript_Eval(t *testing.T) {
	res := Validate("eval('1+1')", "javascript")
	if res.Valid() {
		t.Fatal("expected invalid result for eval()")
	}
}

func TestValidate_JavaScript_DangerousRequire(t *testing.T) {
	res := Validate(`const cp = require('child_process');`, "javascript")
	if res.Valid() {
		t.Fatal("expected invalid result for child_process require")
	}
}

func TestValidate_JavaScript_ProcessAccess(t *testing.T) {
	res := Validate("process.exit(1)", "javascript")
	if res.Valid() {
		t.Fatal("expected invalid result for process. access")
	}
}

func TestValidate_TypeScript_HarmlessImportPasses(t *testing.T) {
	res := Validate("import { add } from \"./math\";\nconsole.log(add(1, 2));", "typescript")
	if !res.Valid() {
		t.Errorf("expected harmless import to validate, got errors: %v", res.Errors)
	}
}

func TestValidate_Deterministic(t *testing.T) {
	code := "eval('1')"
	a := Validate(code, "python")
	b := Validate(code, "python")
	if len(a.Errors) != len(b.Errors) {
		t.Fatalf("validator is not pure: %v vs %v", a.Errors, b.Errors)
	}
	for i := range a.Errors {
		if a.Errors[i] != b.Errors[i] {
			t.Fatalf("validator is not pure at index %d: %q vs %q", i, a.Errors[i], b.Errors[i])
		}
	}
}

func TestValidate_UnsupportedLanguage(t *testing.T) {
	res := Validate("print(1)", "ruby")
	if res.Valid() {
		t.Fatal("expected invalid result for unsupported language")
	}
}

func TestMustValidate_ReturnsJoinedError(t *testing.T) {
	err := MustValidate("import os", "python")
	if err == nil {
		t.Fatal("expected error for dangerous import")
	}
}

func TestMustValidate_NilOnClean(t *testing.T) {
	err := MustValidate("import math", "python")
	if err != nil {
		t.Errorf("expected nil error for clean code, got %v", err)
	}
}
