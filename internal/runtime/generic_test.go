package runtime

import "testing"

// frameLevelWithArg fabricates an action level whose frame holds one
// argument, enough for dispatch-routing tests that never run a body.
func frameLevelWithArg(t *testing.T, rt *Runtime, arg *Cell) *Level {
	t.Helper()
	spec, err := rt.Scan("a")
	if err != nil {
		t.Fatal(err)
	}
	pl, err := rt.MakeParamlist(spec.cells, rt.symReturn)
	if err != nil {
		t.Fatal(err)
	}
	noop := func(rt *Runtime, L *Level) (Bounce, error) { return BounceOut, nil }
	details := rt.MakeDispatchDetails(pl, noop, 1)

	frame := rt.AllocVarlist(pl.VarlistLen())
	initRootvar(frame, TypeFrame)
	frame.setKeylist(pl.Keylist())
	for i := 1; i <= pl.VarlistLen(); i++ {
		frame.cells = append(frame.cells, *pl.VarAt(i))
	}
	*frame.VarAt(2) = *arg // slot 1 is the sealed returner

	L := rt.MakeLevel(nil, nil, &Cell{})
	L.details = details
	L.varlist = frame
	return L
}

func TestGenericDispatchRoutesOnHeart(t *testing.T) {
	rt, _ := newTestRuntime()

	var hit Heart
	rt.ImplementGeneric("poke", TypeTag, func(rt *Runtime, L *Level) (Bounce, error) {
		hit = L.Arg(1).Heart()
		rt.InitOkay(L.Out)
		return BounceOut, nil
	})

	var tag Cell
	stub := rt.AllocText("x")
	Manage(stub)
	tag.InitTag(stub)

	L := frameLevelWithArg(t, rt, &tag)
	b, err := rt.DispatchGeneric("poke", L)
	if err != nil {
		t.Fatal(err)
	}
	if b != BounceOut || hit != TypeTag {
		t.Fatalf("dispatch did not reach the tag! handler (bounce %d, hit %s)", b, hit.Name())
	}
}

func TestGenericDispatchUnhandled(t *testing.T) {
	rt, _ := newTestRuntime()

	var blank Cell
	blank.InitBlank()
	L := frameLevelWithArg(t, rt, &blank)

	// no one implements "poke" for blank!: the soft path reports the
	// distinguished bounce, not an error
	b, err := rt.DispatchGeneric("poke", L)
	if err != nil {
		t.Fatalf("unhandled dispatch must not be an error yet: %v", err)
	}
	if b != BounceUnhandled {
		t.Fatalf("want BounceUnhandled, got %d", b)
	}

	// the hardened path turns it into a catalog error naming both sides
	_, err = rt.RunGenericDispatch("poke", L)
	if errID(err) != ErrUnhandled {
		t.Fatalf("want %s, got %v", ErrUnhandled, err)
	}
}

func TestImplementGenericRejectsDoubles(t *testing.T) {
	rt, _ := newTestRuntime()

	impl := func(rt *Runtime, L *Level) (Bounce, error) { return BounceOut, nil }
	rt.ImplementGeneric("poke", TypeBlank, impl)

	err := Rescue(func() error {
		rt.ImplementGeneric("poke", TypeBlank, impl)
		return nil
	})
	if err == nil {
		t.Fatal("double registration must trip the assertion")
	}
}

func TestNormalizeCommutative(t *testing.T) {
	rt, _ := newTestRuntime()

	spec, err := rt.Scan("a b")
	if err != nil {
		t.Fatal(err)
	}
	pl, err := rt.MakeParamlist(spec.cells, rt.symReturn)
	if err != nil {
		t.Fatal(err)
	}
	noop := func(rt *Runtime, L *Level) (Bounce, error) { return BounceOut, nil }
	details := rt.MakeDispatchDetails(pl, noop, 1)

	frame := rt.AllocVarlist(pl.VarlistLen())
	initRootvar(frame, TypeFrame)
	frame.setKeylist(pl.Keylist())
	for i := 1; i <= pl.VarlistLen(); i++ {
		frame.cells = append(frame.cells, *pl.VarAt(i))
	}
	frame.VarAt(2).InitInteger(2)
	frame.VarAt(3).InitDecimal(1.5)

	L := rt.MakeLevel(nil, nil, &Cell{})
	L.details = details
	L.varlist = frame

	normalizeCommutative(L)
	if L.Arg(1).Heart() != TypeDecimal || L.Arg(2).Heart() != TypeInteger {
		t.Fatal("the higher-ranked operand must be swapped into the lead slot")
	}

	// already normalized: a second pass must not swap back
	normalizeCommutative(L)
	if L.Arg(1).Heart() != TypeDecimal {
		t.Fatal("normalization must be idempotent")
	}
}

func TestGenericMathThroughEvaluator(t *testing.T) {
	rt, _ := newTestRuntime()

	tests := []struct {
		src  string
		want string
	}{
		{"add 1 2", "3"},
		{"add 1 2.5", "3.5"},
		{"add 2.5 1", "3.5"}, // commutative normalization
		{"multiply 3 4", "12"},
		{"multiply 2 3.5", "7"},
		{"subtract 1 4", "-3"},
		{"divide 6 2", "3"},   // exact integer division stays integral
		{"divide 7 2", "3.5"}, // inexact widens
		{"negate 5", "-5"},
		{"negate 2.5", "-2.5"},
	}
	for _, tt := range tests {
		out := mustDo(t, rt, tt.src)
		if got := rt.Mold(&out); got != tt.want {
			t.Errorf("%q: want %s, got %s", tt.src, tt.want, got)
		}
	}
}

func TestMoldRoutesThroughGenericDispatch(t *testing.T) {
	rt, _ := newTestRuntime()

	// every built-in heart carries a moldify entry
	for h := TypeBlank; h < MaxHeart; h++ {
		if rt.TryDispatchGeneric("moldify", h) == nil {
			t.Errorf("no moldify implementation for %s", h.Name())
		}
	}

	out := mustDo(t, rt, "mold [a <b> 1.5]")
	if got := rt.Form(&out); got != "[a <b> 1.5]" {
		t.Fatalf("mold through dispatch: want %q, got %q", "[a <b> 1.5]", got)
	}
}

func TestGenericMathErrors(t *testing.T) {
	rt, _ := newTestRuntime()

	tests := []struct {
		src string
		id  string
	}{
		{"divide 1 0", ErrZeroDivide},
		{"add 9223372036854775807 1", ErrMathOverflow},
		{"subtract -9223372036854775807 2", ErrMathOverflow},
		{"negate -9223372036854775808", ErrMathOverflow},
		{"add <tag> 1", ErrExpectArg}, // typecheck rejects before dispatch
	}
	for _, tt := range tests {
		_, err := rt.DoText(tt.src)
		if errID(err) != tt.id {
			t.Errorf("%q: want %s, got %v", tt.src, tt.id, err)
		}
	}
}
