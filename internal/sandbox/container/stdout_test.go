package container

import (
	"reflect"
	"testing"
)

func TestParseStdout_ParsesJSONObject(t *testing.T) {
	got := parseStdout(`{"a":1}`)
	want := map[string]any{"a": float64(1)}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %#v, want %#v", got, want)
	}
}

func TestParseStdout_ParsesJSONArray(t *testing.T) {
	got := parseStdout(`[1,2,3]`)
	want := []any{float64(1), float64(2), float64(3)}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %#v, want %#v", got, want)
	}
}

func TestParseStdout_FallsBackToTrimmedTextOnMalformedJSON(t *testing.T) {
	got := parseStdout("{not json")
	if got != "{not json" {
		t.Errorf("expected raw text fallback, got %#v", got)
	}
}

func TestParseStdout_PlainTextTrimmed(t *testing.T) {
	got := parseStdout("  hello  \n")
	if got != "hello" {
		t.Errorf("expected trimmed text, got %#v", got)
	}
}

func TestParseStdout_Empty(t *testing.T) {
	got := parseStdout("")
	if got != "" {
		t.Errorf("expected empty string, got %#v", got)
	}
}
