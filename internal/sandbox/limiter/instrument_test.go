package limiter

import (
	"strings"
	"testing"
)

func TestInstrument_LineMode_InsertsTickPerStatement(t *testing.T) {
	src := `package main
func main() {
	x := 1
	y := 2
	_ = x + y
}
`
	out, err := Instrument(src, ModeLine)
	if err != nil {
		t.Fatalf("Instrument failed: %v", err)
	}
	if got := strings.Count(out, "limiterhook.MustTick()"); got != 3 {
		t.Errorf("expected 3 ticks (one per statement), got %d:\n%s", got, out)
	}
	if !strings.Contains(out, `"sandboxkernel/limiterhook"`) {
		t.Errorf("expected synthetic import to be added:\n%s", out)
	}
}

func TestInstrument_CallMode_TicksCallFreeStatementOnce(t *testing.T) {
	src := `package main
import "fmt"
func main() {
	x := 1
	fmt.Println(x)
}
`
	out, err := Instrument(src, ModeCall)
	if err != nil {
		t.Fatalf("Instrument failed: %v", err)
	}
	if got := strings.Count(out, "limiterhook.MustTick()"); got != 2 {
		t.Errorf("expected 2 ticks (one for the call-free statement, one for the call), got %d:\n%s", got, out)
	}
}

func TestInstrument_CallModeCountsAtLeastLineMode(t *testing.T) {
	// Every statement here contains at least one call, and the first
	// contains two, so call mode must tick strictly more than line mode.
	src := `package main
import "fmt"
func main() {
	a := fmt.Sprintf("%d", len("x"))
	fmt.Println(a)
}
`
	lineOut, err := Instrument(src, ModeLine)
	if err != nil {
		t.Fatalf("Instrument(line) failed: %v", err)
	}
	callOut, err := Instrument(src, ModeCall)
	if err != nil {
		t.Fatalf("Instrument(call) failed: %v", err)
	}
	lineTicks := strings.Count(lineOut, "limiterhook.MustTick()")
	callTicks := strings.Count(callOut, "limiterhook.MustTick()")
	if callTicks < lineTicks {
		t.Errorf("call-mode ticks (%d) should be >= line-mode ticks (%d) for the same program", callTicks, lineTicks)
	}
	if lineTicks != 2 {
		t.Errorf("expected 2 line ticks (one per statement), got %d", lineTicks)
	}
	if callTicks != 3 {
		t.Errorf("expected 3 call ticks (two calls in the first statement, one in the second), got %d", callTicks)
	}
}

func TestInstrument_RejectsUnknownMode(t *testing.T) {
	_, err := Instrument("package main\nfunc main() {}\n", Mode("bogus"))
	if err == nil {
		t.Fatal("expected error for unknown trace mode")
	}
}

func TestInstrument_RejectsInvalidSyntax(t *testing.T) {
	_, err := Instrument("package main\nfunc main( {\n", ModeLine)
	if err == nil {
		t.Fatal("expected parse error for invalid syntax")
	}
}
