// Package serialize implements the cross-boundary serializer: prepare
// converts an arbitrary host value into a form legal to ship across the
// isolated-worker boundary — deep-copied, cycle-safe, and free of
// identity-specific state.
package serialize

import (
	"fmt"
	"reflect"
)

// MaxDepth bounds recursion; anything nested deeper degrades to its string
// form. This is the circular-reference / deep-nesting safety valve.
const MaxDepth = 100

// Prepare applies the serializer's rules, in order, starting at depth 0.
func Prepare(value any) any {
	return prepare(value, 0)
}

func prepare(value any, depth int) any {
	if value == nil {
		return nil
	}

	// Rule 1: primitives pass through unchanged.
	switch v := value.(type) {
	case bool, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64, string:
		return v
	}

	// Rule 2: depth guard.
	if depth > MaxDepth {
		return fmt.Sprintf("%v", value)
	}

	// Rule 9: exception-like values degrade to a class/message/backtrace map.
	// Checked ahead of the reflect-based rules, which a pointer-typed error
	// would otherwise match.
	if v, ok := value.(error); ok {
		return map[string]any{
			"class":     fmt.Sprintf("%T", v),
			"message":   prepare(v.Error(), depth+1),
			"backtrace": prepare("", depth+1),
		}
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return nil
		}
		return prepare(rv.Elem().Interface(), depth+1)

	case reflect.Func:
		// Rule 6: procedures cannot be shipped; refuse silently with a
		// textual stand-in.
		return fmt.Sprintf("#<func %s>", rv.Type())

	case reflect.Chan:
		// Channels carry identity-specific state; never ship as-is.
		return fmt.Sprintf("#<chan %s>", rv.Type())

	case reflect.Slice, reflect.Array:
		// Rule 4: ordered sequences, recursively prepared.
		n := rv.Len()
		out := make([]any, n)
		for i := 0; i < n; i++ {
			out[i] = prepare(rv.Index(i).Interface(), depth+1)
		}
		return out

	case reflect.Map:
		// Rule 5: mapping containers, keys and values recursively prepared.
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			key := fmt.Sprintf("%v", iter.Key().Interface())
			out[key] = prepare(iter.Value().Interface(), depth+1)
		}
		return out

	case reflect.Struct:
		// Rule 8: struct-like/record-like -> prepared key->value map.
		t := rv.Type()
		out := make(map[string]any, rv.NumField())
		for i := 0; i < rv.NumField(); i++ {
			field := t.Field(i)
			if !field.IsExported() {
				continue
			}
			out[field.Name] = prepare(rv.Field(i).Interface(), depth+1)
		}
		return out

	default:
		// Rule 10: last resort, string form.
		return fmt.Sprintf("%v", value)
	}
}
