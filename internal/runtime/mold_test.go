package runtime

import (
	"strings"
	"testing"
)

func TestMoldAntiforms(t *testing.T) {
	rt, _ := newTestRuntime()

	var c Cell

	rt.InitNull(&c)
	if got := rt.Mold(&c); got != "~null~" {
		t.Errorf("null: got %s", got)
	}
	rt.InitOkay(&c)
	if got := rt.Mold(&c); got != "~okay~" {
		t.Errorf("okay: got %s", got)
	}
	rt.InitTrash(&c)
	if got := rt.Mold(&c); got != "~trash~" {
		t.Errorf("trash: got %s", got)
	}
	InitVoid(&c)
	if got := rt.Mold(&c); got != "~" {
		t.Errorf("void: got %s", got)
	}
	InitGhost(&c)
	if got := rt.Mold(&c); got != "~,~" {
		t.Errorf("ghost: got %s", got)
	}
}

func TestMoldOpaqueValues(t *testing.T) {
	rt, _ := newTestRuntime()

	out := mustDo(t, rt, "func [x] [x]")
	if got := rt.Mold(&out); got != "#[action]" {
		t.Errorf("action: got %s", got)
	}

	out = mustDo(t, rt, "context [a: 1]")
	if got := rt.Mold(&out); got != "#[object]" {
		t.Errorf("object: got %s", got)
	}

	out = mustDo(t, rt, "type-of 1")
	if got := rt.Mold(&out); got != "integer!" {
		t.Errorf("datatype: got %s", got)
	}
}

func TestMoldDepthLimit(t *testing.T) {
	rt, _ := newTestRuntime()

	// past the depth cap the contents elide rather than recurse forever
	arr, err := rt.Scan("[[[[[[[[[[1]]]]]]]]]]")
	if err != nil {
		t.Fatal(err)
	}
	var block Cell
	block.InitBlock(arr, 0)
	got := rt.Mold(&block)
	if !strings.Contains(got, "...") {
		t.Fatalf("deep mold must elide: %s", got)
	}
}

func TestFormVersusMold(t *testing.T) {
	rt, _ := newTestRuntime()

	var c Cell
	text := rt.AllocText("hi")
	Manage(text)
	c.InitText(text, 0)

	if got := rt.Form(&c); got != "hi" {
		t.Errorf("form of text drops the quotes: got %q", got)
	}
	if got := rt.Mold(&c); got != `"hi"` {
		t.Errorf("mold of text keeps them: got %q", got)
	}

	c.InitInteger(7)
	if rt.Form(&c) != rt.Mold(&c) {
		t.Error("non-text values form the same as they mold")
	}
}
