package runtime

import (
	"bytes"
	"testing"
)

// newTestRuntime builds a runtime with automatic GC disabled so sweep-timing
// tests stay deterministic, capturing PRINT output in a buffer.
func newTestRuntime() (*Runtime, *bytes.Buffer) {
	var out bytes.Buffer
	rt := New(Options{Output: &out})
	return rt, &out
}

func mustDo(t *testing.T, rt *Runtime, source string) Cell {
	t.Helper()
	out, err := rt.DoText(source)
	if err != nil {
		t.Fatalf("DoText(%q) failed: %v", source, err)
	}
	return out
}

func wantInt(t *testing.T, c *Cell, want int64) {
	t.Helper()
	if c.Heart() != TypeInteger || !c.IsPlain() {
		t.Fatalf("want integer %d, got %s (lift %d)", want, c.Heart().Name(), c.LiftByte())
	}
	if c.Int() != want {
		t.Fatalf("want %d, got %d", want, c.Int())
	}
}

// errID unwraps the catalog id of a runtime error, or "" for nil/foreign.
func errID(err error) string {
	if e := AsError(err); e != nil {
		return e.ID
	}
	return ""
}

func TestDoTextBasics(t *testing.T) {
	rt, _ := newTestRuntime()

	tests := []struct {
		src  string
		want int64
	}{
		{"42", 42},
		{"add 1 2", 3},
		{"x: 10 add x x", 20},
		{"subtract 3 5", -2},
		{"(add 1 (add 2 3))", 6},
		{"'word 7", 7}, // quoted word self-reveals and is discarded
	}
	for _, tt := range tests {
		out := mustDo(t, rt, tt.src)
		if out.Heart() != TypeInteger || out.Int() != tt.want {
			t.Errorf("%q: want %d, got %s", tt.src, tt.want, rt.Mold(&out))
		}
	}
}

func TestDoTextPersistsUserVars(t *testing.T) {
	rt, _ := newTestRuntime()
	mustDo(t, rt, "counter: 5")
	out := mustDo(t, rt, "add counter 1")
	wantInt(t, &out, 6)
}

func TestUnboundWordErrors(t *testing.T) {
	rt, _ := newTestRuntime()
	_, err := rt.DoText("no-such-word")
	if errID(err) != ErrNoValue {
		t.Fatalf("want %s, got %v", ErrNoValue, err)
	}
}

func TestTrashReadErrors(t *testing.T) {
	rt, _ := newTestRuntime()
	// locals start as trash; reading one before assignment is an error
	_, err := rt.DoText("f: func [x <local> t] [t] f 1")
	if errID(err) != ErrNoValue {
		t.Fatalf("want %s, got %v", ErrNoValue, err)
	}
}

func TestProtectBarsAssignment(t *testing.T) {
	rt, _ := newTestRuntime()
	mustDo(t, rt, "x: 1 protect 'x")
	_, err := rt.DoText("x: 2")
	if errID(err) != ErrProtected {
		t.Fatalf("want %s, got %v", ErrProtected, err)
	}
	out := mustDo(t, rt, "x")
	wantInt(t, &out, 1)
}

func TestSetWordNeedsValue(t *testing.T) {
	rt, _ := newTestRuntime()
	_, err := rt.DoText("x:")
	if errID(err) != ErrNeedNonEnd {
		t.Fatalf("want %s, got %v", ErrNeedNonEnd, err)
	}
}
