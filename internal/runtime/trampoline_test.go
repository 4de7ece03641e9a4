package runtime

import (
	"strings"
	"testing"
)

func TestLongScriptConstantStack(t *testing.T) {
	rt, _ := newTestRuntime()

	// 100k statements through one trampoline call; a recursive evaluator
	// would not survive this with the default goroutine stack
	var b strings.Builder
	b.WriteString("n: 0\n")
	const steps = 100000
	for i := 0; i < steps; i++ {
		b.WriteString("n: add n 1\n")
	}
	out := mustDo(t, rt, b.String())
	wantInt(t, &out, steps)
}

func TestDeepRecursionConstantStack(t *testing.T) {
	rt, _ := newTestRuntime()

	mustDo(t, rt, "down: func [n] [either lesser? n 1 [0] [down subtract n 1]]")
	out := mustDo(t, rt, "down 10000")
	wantInt(t, &out, 0)
}

func TestDeeplyNestedGroups(t *testing.T) {
	rt, _ := newTestRuntime()

	const depth = 5000
	src := strings.Repeat("(add 1 ", depth) + "0" + strings.Repeat(")", depth)
	out := mustDo(t, rt, src)
	wantInt(t, &out, depth)
}

func TestCatchThrow(t *testing.T) {
	rt, _ := newTestRuntime()

	tests := []struct {
		name string
		src  string
		want func(c *Cell) bool
		desc string
	}{
		{
			name: "throw carries the value",
			src:  "catch [throw 42]",
			want: func(c *Cell) bool { return c.Heart() == TypeInteger && c.Int() == 42 },
			desc: "42",
		},
		{
			name: "no throw yields null",
			src:  "catch [add 1 2]",
			want: IsNull,
			desc: "null",
		},
		{
			name: "throw skips the rest of the block",
			src:  "catch [throw 1 no-such-word]",
			want: func(c *Cell) bool { return c.Heart() == TypeInteger && c.Int() == 1 },
			desc: "1",
		},
		{
			name: "labeled throw passes a mismatched catch",
			src:  "catch:name [catch:name [throw:name 42 'outer] 'inner] 'outer",
			want: func(c *Cell) bool { return c.Heart() == TypeInteger && c.Int() == 42 },
			desc: "42",
		},
		{
			name: "labeled throw passes a plain catch",
			src:  "catch:name [catch [throw:name 7 'tag]] 'tag",
			want: func(c *Cell) bool { return c.Heart() == TypeInteger && c.Int() == 7 },
			desc: "7",
		},
		{
			name: "plain throw passes a labeled catch",
			src:  "catch [catch:name [throw 9] 'tag]",
			want: func(c *Cell) bool { return c.Heart() == TypeInteger && c.Int() == 9 },
			desc: "9",
		},
		{
			name: "matching label intercepts",
			src:  "catch:name [throw:name 5 'tag] 'tag",
			want: func(c *Cell) bool { return c.Heart() == TypeInteger && c.Int() == 5 },
			desc: "5",
		},
		{
			// the inner catch is still gathering its block argument when
			// the throw happens, so the throw belongs to the outer one
			name: "throw from a catch's own argument passes through",
			src:  "catch [catch throw 1]",
			want: func(c *Cell) bool { return c.Heart() == TypeInteger && c.Int() == 1 },
			desc: "1",
		},
		{
			name: "argument throws unwind past every gathering level",
			src:  "catch [add 1 catch throw 2]",
			want: func(c *Cell) bool { return c.Heart() == TypeInteger && c.Int() == 2 },
			desc: "2",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := mustDo(t, rt, tt.src)
			if !tt.want(&out) {
				t.Fatalf("%q: want %s, got %s", tt.src, tt.desc, rt.Mold(&out))
			}
		})
	}
}

func TestUncaughtThrowErrors(t *testing.T) {
	rt, _ := newTestRuntime()

	_, err := rt.DoText("throw 42")
	if errID(err) != ErrNoCatch {
		t.Fatalf("want %s, got %v", ErrNoCatch, err)
	}

	// a label mismatch all the way up is also uncaught
	_, err = rt.DoText("catch:name [throw:name 1 'a] 'b")
	if errID(err) != ErrNoCatch {
		t.Fatalf("want %s, got %v", ErrNoCatch, err)
	}
}

func TestThrowUnwindsCleanly(t *testing.T) {
	rt, _ := newTestRuntime()

	out := mustDo(t, rt, "catch [all [1 2 throw 42 3]]")
	wantInt(t, &out, 42)
	if rt.Depth() != 0 {
		t.Fatalf("level stack not empty after unwind: depth %d", rt.Depth())
	}
}

func TestReturnUnwindsToItsFrame(t *testing.T) {
	rt, _ := newTestRuntime()

	tests := []struct {
		src  string
		want int64
	}{
		{"f: func [x] [return add x 1 no-such-word] f 1", 2},
		// return targets its own frame, passing through inner catches
		{"g: func [x] [catch [throw return x] 99] g 5", 5},
		// the outer function's return is not hijacked by the inner's
		{"inner: func [] [return 1] outer: func [] [inner 2] outer", 2},
	}
	for _, tt := range tests {
		out := mustDo(t, rt, tt.src)
		wantInt(t, &out, tt.want)
	}
}

func TestUnwindTargetsASpecificFrame(t *testing.T) {
	rt, _ := newTestRuntime()

	// the helper unwinds its caller's frame: the caller returns 99 and the
	// rest of its body never runs
	mustDo(t, rt, "leap: func [w] [unwind w 99]")
	out := mustDo(t, rt, "outer: func [x] [leap 'x no-such-word] outer 1")
	wantInt(t, &out, 99)

	// an unwind tunnels through catches between here and its frame
	mustDo(t, rt, "jumper: func [w] [catch [unwind w 7]]")
	out = mustDo(t, rt, "host: func [x] [jumper 'x no-such-word] host 0")
	wantInt(t, &out, 7)

	if rt.Depth() != 0 {
		t.Fatalf("level stack not empty after unwind: depth %d", rt.Depth())
	}
}

func TestUnwindErrors(t *testing.T) {
	rt, _ := newTestRuntime()

	// a word not bound into any frame cannot name a target
	_, err := rt.DoText("unwind 'loose 1")
	if errID(err) != ErrNotBound {
		t.Fatalf("want %s, got %v", ErrNotBound, err)
	}

	// a frame that already returned is no longer unwindable
	mustDo(t, rt, "escapee: func [x] ['x]")
	_, err = rt.DoText("unwind escapee 1 2")
	if errID(err) != ErrNotRunning {
		t.Fatalf("want %s, got %v", ErrNotRunning, err)
	}
}

func TestReturnOutsideFunction(t *testing.T) {
	rt, _ := newTestRuntime()
	_, err := rt.DoText("return 1")
	if errID(err) != ErrNotBound {
		t.Fatalf("want %s, got %v", ErrNotBound, err)
	}
}

func TestReturnTypeConstraint(t *testing.T) {
	rt, _ := newTestRuntime()

	mustDo(t, rt, `typed: func [return: [integer!] x] [return x]`)
	out := mustDo(t, rt, "typed 5")
	wantInt(t, &out, 5)

	_, err := rt.DoText("typed <tag>")
	if errID(err) != ErrBadReturnType {
		t.Fatalf("want %s, got %v", ErrBadReturnType, err)
	}
}

func TestHaltAbortsEvaluation(t *testing.T) {
	rt, _ := newTestRuntime()

	rt.RequestHalt()
	_, err := rt.DoText("add 1 2")
	if errID(err) != ErrHalted {
		t.Fatalf("want %s, got %v", ErrHalted, err)
	}
	if rt.Depth() != 0 {
		t.Fatalf("level stack not unwound after halt: depth %d", rt.Depth())
	}

	// the flag is one-shot: the next evaluation proceeds
	out := mustDo(t, rt, "add 1 2")
	wantInt(t, &out, 3)
}

func TestTicksAdvance(t *testing.T) {
	rt, _ := newTestRuntime()
	before := rt.Ticks()
	mustDo(t, rt, "add 1 2")
	if rt.Ticks() <= before {
		t.Fatal("trampoline spins must advance the tick counter")
	}
}
