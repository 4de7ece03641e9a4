package runtime

import (
	"strings"
	"testing"
)

// moldResult evaluates and molds, for table tests over plain values.
func moldResult(t *testing.T, rt *Runtime, src string) string {
	t.Helper()
	out := mustDo(t, rt, src)
	return rt.Mold(&out)
}

func TestIfEitherWhen(t *testing.T) {
	rt, _ := newTestRuntime()

	tests := []struct {
		src  string
		want string
	}{
		{"if 1 [5]", "5"},
		{"if greater? 2 1 [5]", "5"},
		{"if lesser? 2 1 [5]", "~null~"},
		{"either greater? 2 1 [10] [20]", "10"},
		{"either lesser? 2 1 [10] [20]", "20"},
		{"when greater? 2 1 [7]", "7"},
	}
	for _, tt := range tests {
		if got := moldResult(t, rt, tt.src); got != tt.want {
			t.Errorf("%q: want %s, got %s", tt.src, tt.want, got)
		}
	}

	// a falsey WHEN vanishes: the previous step's value shows through
	out := mustDo(t, rt, "99 when lesser? 2 1 [7]")
	wantInt(t, &out, 99)
}

func TestAllAnyNone(t *testing.T) {
	rt, _ := newTestRuntime()

	tests := []struct {
		src  string
		want func(c *Cell) bool
		desc string
	}{
		{"all []", IsVoid, "void"},
		{"all [1 2 3]", func(c *Cell) bool { return c.Int() == 3 }, "3"},
		{"all [1 2 lesser? 2 1 3]", IsNull, "null"},
		{"all [greater? 2 1]", IsOkay, "okay"},

		{"any []", IsVoid, "void"},
		{"any [lesser? 2 1 lesser? 3 1 5]", func(c *Cell) bool { return c.Int() == 5 }, "5"},
		{"any [lesser? 2 1 lesser? 3 1]", IsNull, "null"},
		{"any [1 no-such-word]", func(c *Cell) bool { return c.Int() == 1 }, "1 (short-circuit)"},

		{"none []", IsOkay, "okay"},
		{"none [lesser? 2 1]", IsOkay, "okay"},
		{"none [1]", IsNull, "null"},
	}
	for _, tt := range tests {
		out := mustDo(t, rt, tt.src)
		if !tt.want(&out) {
			t.Errorf("%q: want %s, got %s", tt.src, tt.desc, rt.Mold(&out))
		}
	}

	// ALL short-circuits too: the falsey step stops evaluation
	out := mustDo(t, rt, "all [lesser? 2 1 no-such-word]")
	if !IsNull(&out) {
		t.Fatalf("short-circuited ALL must be null, got %s", rt.Mold(&out))
	}

	// commas are ghosts and don't vote
	out = mustDo(t, rt, "all [1, 2,]")
	wantInt(t, &out, 2)
}

func TestCase(t *testing.T) {
	rt, _ := newTestRuntime()

	tests := []struct {
		src  string
		want string
	}{
		{"case [greater? 2 1 [10] 99]", "10"},
		{"case [lesser? 2 1 [1] lesser? 3 2 [2] 99]", "99"}, // trailing fallout
		{"case [lesser? 2 1 [1] greater? 3 2 [2] 99]", "2"},
		{"case []", "~null~"},
		{"case [lesser? 2 1 [1]]", "~null~"},
		{"case:all [1 [1] 1 [2]]", "2"},  // :all runs every truthy branch
		{"case [1 [1] 1 [2]]", "1"},      // plain CASE stops at the first
	}
	for _, tt := range tests {
		if got := moldResult(t, rt, tt.src); got != tt.want {
			t.Errorf("%q: want %s, got %s", tt.src, tt.want, got)
		}
	}
}

func TestSwitch(t *testing.T) {
	rt, _ := newTestRuntime()

	tests := []struct {
		src  string
		want string
	}{
		{"switch 2 [1 [10] 2 [20] 3 [30]]", "20"},
		{"switch 9 [1 [10]]", "~null~"},
		{`switch "b" ["a" [1] "b" [2]]`, "2"},
		{"switch:all 1 [1 [10] 1 [20]]", "20"},
	}
	for _, tt := range tests {
		if got := moldResult(t, rt, tt.src); got != tt.want {
			t.Errorf("%q: want %s, got %s", tt.src, tt.want, got)
		}
	}
}

func TestFuncCalls(t *testing.T) {
	rt, _ := newTestRuntime()

	tests := []struct {
		setup string
		call  string
		want  string
	}{
		{"f: func [x] [add x 1]", "f 5", "6"},
		{"f: func [x y] [subtract x y]", "f 10 4", "6"},
		{"f: func [x <local> t] [t: add x x t]", "f 3", "6"},
		{"f: func [x :double] [either double [add x x] [x]]", "f 4", "4"},
		{"f: func [x :double] [either double [add x x] [x]]", "f:double 4", "8"},
		// a literal parameter receives the callsite word unevaluated
		{"f: func ['w] [mold w]", "f hello", `"hello"`},
		// closures see their definition-site variables
		{"base: 100 f: func [x] [add base x]", "f 5", "105"},
	}
	for _, tt := range tests {
		mustDo(t, rt, tt.setup)
		if got := moldResult(t, rt, tt.call); got != tt.want {
			t.Errorf("%s; %s: want %s, got %s", tt.setup, tt.call, tt.want, got)
		}
	}
}

func TestFuncArgErrors(t *testing.T) {
	rt, _ := newTestRuntime()

	mustDo(t, rt, "typed: func [n [integer!]] [n]")

	tests := []struct {
		src string
		id  string
	}{
		{"typed <tag>", ErrExpectArg},
		{"typed", ErrNoArg}, // call at end of input
		{"f:ghost 1", ErrNoValue},
		{"typed:bogus 1", ErrBadRefine},
	}
	for _, tt := range tests {
		_, err := rt.DoText(tt.src)
		if errID(err) != tt.id {
			t.Errorf("%q: want %s, got %v", tt.src, tt.id, err)
		}
	}
}

func TestMetaParameter(t *testing.T) {
	rt, _ := newTestRuntime()

	// a meta parameter receives the argument in lifted form: null arrives
	// as the quasiform word, inspectable rather than triggering decay
	mustDo(t, rt, "probe-lift: func [~v~] [mold v]")
	out := mustDo(t, rt, "probe-lift lesser? 2 1")
	if out.Heart() != TypeText || out.node.TextString() != "~null~" {
		t.Fatalf("meta parameter must arrive lifted, got %s", rt.Mold(&out))
	}
	out = mustDo(t, rt, "probe-lift 42")
	if out.node.TextString() != "'42" {
		t.Fatalf("plain value must arrive quoted, got %s", out.node.TextString())
	}
}

func TestDoAndReduce(t *testing.T) {
	rt, _ := newTestRuntime()

	out := mustDo(t, rt, "do [add 1 2]")
	wantInt(t, &out, 3)

	out = mustDo(t, rt, `do "add 10 20"`)
	wantInt(t, &out, 30)

	if got := moldResult(t, rt, "mold reduce [add 1 2 10 mold 5]"); got != `"[3 10 ^"5^"]"` {
		t.Errorf("reduce: got %s", got)
	}
}

func TestContextNative(t *testing.T) {
	rt, _ := newTestRuntime()

	out := mustDo(t, rt, "context [a: 1 b: add 1 1]")
	if out.Heart() != TypeObject {
		t.Fatalf("context must yield an object, got %s", out.Heart().Name())
	}
	obj := out.ContextStub()
	if slot := VarlistSlot(obj, rt.Symbols.Intern("b")); slot == nil || slot.Int() != 2 {
		t.Fatal("object body evaluation did not fill b")
	}

	// the object sees outward: words not its own resolve at the callsite
	mustDo(t, rt, "outside: 40")
	out = mustDo(t, rt, "context [inner: add outside 2]")
	obj = out.ContextStub()
	if slot := VarlistSlot(obj, rt.Symbols.Intern("inner")); slot == nil || slot.Int() != 42 {
		t.Fatal("object body must read outward for words it does not own")
	}
}

func TestMatchAndTypeOf(t *testing.T) {
	rt, _ := newTestRuntime()

	tests := []struct {
		src  string
		want string
	}{
		{"match [integer!] 5", "5"},
		{"match [integer!] <x>", "~null~"},
		{"match [integer! text!] \"hi\"", `"hi"`},
		{"type-of 1", "integer!"},
		{"type-of <x>", "tag!"},
		{"type-of mold 1", "text!"},
	}
	for _, tt := range tests {
		if got := moldResult(t, rt, tt.src); got != tt.want {
			t.Errorf("%q: want %s, got %s", tt.src, tt.want, got)
		}
	}
}

func TestPredicates(t *testing.T) {
	rt, _ := newTestRuntime()

	tests := []struct {
		src    string
		truthy bool
	}{
		{"integer? 1", true},
		{"integer? <x>", false},
		{"text? mold 1", true},
		{"word? 'hello", true},
		{"null? lesser? 2 1", true},
		{"null? 1", false},
		{"okay? greater? 2 1", true},
		{"logic? lesser? 2 1", true},
		{"logic? 1", false},
		{"not 1", false},
		{"not lesser? 2 1", true},
		{"equal? 1 1", true},
		{"equal? 1 2", false},
		{"equal? 1 1.0", true},
		{"equal? 'a 'a", true},
		{"equal? 'a 'b", false},
		{`equal? "x" "x"`, true},
	}
	for _, tt := range tests {
		out := mustDo(t, rt, tt.src)
		if IsOkay(&out) != tt.truthy {
			t.Errorf("%q: want truthy=%v, got %s", tt.src, tt.truthy, rt.Mold(&out))
		}
	}
}

func TestTypechecker(t *testing.T) {
	rt, _ := newTestRuntime()

	mustDo(t, rt, "int?: typechecker integer!")
	out := mustDo(t, rt, "int? 5")
	if !IsOkay(&out) {
		t.Fatal("generated checker must accept its datatype")
	}
	out = mustDo(t, rt, "int? <x>")
	if !IsNull(&out) {
		t.Fatal("generated checker must reject other datatypes")
	}
}

func TestTypeConstraintsBeyondTypesets(t *testing.T) {
	rt, _ := newTestRuntime()

	// a predicate word as a constraint runs the predicate
	mustDo(t, rt, "small?: func [n [integer!]] [lesser? n 10]")
	mustDo(t, rt, "shrink: func [n [small?]] [subtract n 1]")
	out := mustDo(t, rt, "shrink 5")
	wantInt(t, &out, 4)
	_, err := rt.DoText("shrink 50")
	if errID(err) != ErrExpectArg {
		t.Fatalf("predicate constraint must reject, got %v", err)
	}

	// a quoted literal admits exactly itself
	mustDo(t, rt, "north-only: func ['dir ['north]] [dir]")
	out = mustDo(t, rt, "north-only north")
	if out.Heart() != TypeWord || out.Sym().Text() != "north" {
		t.Fatalf("want the word north, got %s", rt.Mold(&out))
	}
	_, err = rt.DoText("north-only south")
	if errID(err) != ErrExpectArg {
		t.Fatalf("literal constraint must reject, got %v", err)
	}
}

func TestPrintAndForm(t *testing.T) {
	rt, out := newTestRuntime()

	mustDo(t, rt, `print "hello"`)
	mustDo(t, rt, "print 42")
	mustDo(t, rt, "print lesser? 2 1")

	want := "hello\n42\n~null~\n"
	if out.String() != want {
		t.Fatalf("want %q, got %q", want, out.String())
	}

	res := mustDo(t, rt, `print "x"`)
	if !IsTrash(&res) {
		t.Fatal("print must yield trash")
	}
}

func TestGetAndQuotedWords(t *testing.T) {
	rt, _ := newTestRuntime()

	mustDo(t, rt, "x: 7")
	out := mustDo(t, rt, "get 'x")
	wantInt(t, &out, 7)

	// GET of an action does not invoke it
	mustDo(t, rt, "f: func [] [1]")
	out = mustDo(t, rt, "get 'f")
	if out.Heart() != TypeAction {
		t.Fatalf("get of an action must yield the action, got %s", out.Heart().Name())
	}
}

func TestRecycleNative(t *testing.T) {
	rt, _ := newTestRuntime()
	out := mustDo(t, rt, "recycle")
	if out.Heart() != TypeInteger || out.Int() < 0 {
		t.Fatalf("recycle must report a non-negative count, got %s", rt.Mold(&out))
	}
}

func TestRandomNative(t *testing.T) {
	rt, _ := newTestRuntime()

	for i := 0; i < 32; i++ {
		out := mustDo(t, rt, "random 10")
		if out.Int() < 1 || out.Int() > 10 {
			t.Fatalf("random 10 out of range: %d", out.Int())
		}
	}
	_, err := rt.DoText("random 0")
	if errID(err) != ErrPastEnd {
		t.Fatalf("want %s, got %v", ErrPastEnd, err)
	}

	for i := 0; i < 32; i++ {
		out := mustDo(t, rt, "random 2.5")
		if out.Heart() != TypeDecimal || out.Dec() < 0 || out.Dec() >= 2.5 {
			t.Fatalf("random 2.5 out of range: %s", rt.Mold(&out))
		}
	}
}

func TestRandomShufflesSeries(t *testing.T) {
	rt, _ := newTestRuntime()

	// a block shuffle keeps length and elements
	out := mustDo(t, rt, "random [1 2 3 4 5]")
	if out.Heart() != TypeBlock || out.SeriesStub().ArrayLen() != 5 {
		t.Fatalf("shuffle changed the block's shape: %s", rt.Mold(&out))
	}
	sum := int64(0)
	for i := 0; i < 5; i++ {
		sum += out.SeriesStub().ArrayAt(i).Int()
	}
	if sum != 15 {
		t.Fatalf("shuffle changed the block's elements: %s", rt.Mold(&out))
	}

	// so does a text shuffle
	out = mustDo(t, rt, `random "abc"`)
	got := rt.Form(&out)
	if len(got) != 3 || strings.Count(got, "a") != 1 ||
		strings.Count(got, "b") != 1 || strings.Count(got, "c") != 1 {
		t.Fatalf("shuffle changed the text's content: %q", got)
	}
}

func TestEqualOnLists(t *testing.T) {
	rt, _ := newTestRuntime()

	tests := []struct {
		src    string
		truthy bool
	}{
		{"equal? [1 2 [3 4]] [1 2 [3 4]]", true},
		{"equal? [] []", true},
		{"equal? [1 2] [1 2 3]", false},
		{"equal? [1 [2]] [1 [9]]", false},
		// numbers widen inside lists too
		{"equal? [1 2.0] [1.0 2]", true},
		{"equal? [1] <not-a-list>", false},
	}
	for _, tt := range tests {
		out := mustDo(t, rt, tt.src)
		if IsOkay(&out) != tt.truthy {
			t.Errorf("%q: want %v, got %s", tt.src, tt.truthy, rt.Mold(&out))
		}
	}
}
