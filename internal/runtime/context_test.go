package runtime

import "testing"

func TestMakeVarlistDetectSharesKeylist(t *testing.T) {
	rt, _ := newTestRuntime()

	parentBody, err := rt.Scan("a: 1 b: 2")
	if err != nil {
		t.Fatal(err)
	}
	parent, err := rt.MakeVarlistDetect(CollectOnlySetWords, TypeObject, parentBody.cells, nil)
	if err != nil {
		t.Fatal(err)
	}

	// child declares nothing beyond the parent: keylist must be shared
	childBody, err := rt.Scan("a: 10")
	if err != nil {
		t.Fatal(err)
	}
	child, err := rt.MakeVarlistDetect(CollectOnlySetWords, TypeObject, childBody.cells, parent)
	if err != nil {
		t.Fatal(err)
	}
	if child.Keylist() != parent.Keylist() {
		t.Fatal("child with no new keys must share the parent's keylist")
	}
	if !child.Keylist().HasFlag(StubFlagShared) {
		t.Fatal("shared keylist must carry the shared flag")
	}

	// a child with a new key gets its own keylist, parent keys first
	childBody2, err := rt.Scan("c: 3")
	if err != nil {
		t.Fatal(err)
	}
	child2, err := rt.MakeVarlistDetect(CollectOnlySetWords, TypeObject, childBody2.cells, parent)
	if err != nil {
		t.Fatal(err)
	}
	if child2.Keylist() == parent.Keylist() {
		t.Fatal("child with a new key must not share the parent's keylist")
	}
	wantKeys := []string{"a", "b", "c"}
	if child2.Keylist().KeysLen() != len(wantKeys) {
		t.Fatalf("want %d keys, got %d", len(wantKeys), child2.Keylist().KeysLen())
	}
	for i, name := range wantKeys {
		if got := child2.Keylist().KeyAt(i).Text(); got != name {
			t.Errorf("key %d: want %s, got %s", i, name, got)
		}
	}
}

func TestAppendContextForksSharedKeylist(t *testing.T) {
	rt, _ := newTestRuntime()

	vl := rt.MakeVarlist(TypeObject, 2)
	rt.AppendContext(vl, rt.Symbols.Intern("a"))
	rt.AppendContext(vl, rt.Symbols.Intern("b"))

	shared := vl.Keylist()
	shared.SetFlag(StubFlagShared)

	slot := rt.AppendContext(vl, rt.Symbols.Intern("c"))
	if !IsTrash(slot) {
		t.Fatal("fresh context slot must start as trash")
	}

	fork := vl.Keylist()
	if fork == shared {
		t.Fatal("appending through a shared keylist must fork it first")
	}
	if fork.Ancestor() != shared {
		t.Fatal("fork must keep an ancestor link to the shared lineage")
	}
	if shared.KeysLen() != 2 {
		t.Fatalf("original keylist must be untouched, has %d keys", shared.KeysLen())
	}
	if fork.KeysLen() != 3 {
		t.Fatalf("fork must carry old keys plus the new one, has %d", fork.KeysLen())
	}

	// indices are stable: a and b keep their slots through the fork
	if FindSymbolInContext(vl, rt.Symbols.Intern("a")) != 1 {
		t.Error("slot of a moved across the fork")
	}
	if FindSymbolInContext(vl, rt.Symbols.Intern("c")) != 3 {
		t.Error("new key did not land on the next slot")
	}
}

func TestAppendContextDuplicatePanics(t *testing.T) {
	rt, _ := newTestRuntime()
	vl := rt.MakeVarlist(TypeObject, 1)
	sym := rt.Symbols.Intern("dup")
	rt.AppendContext(vl, sym)

	err := Rescue(func() error {
		rt.AppendContext(vl, sym)
		return nil
	})
	if err == nil {
		t.Fatal("duplicate append must trip the varlist assertion")
	}
}

func TestSeaAppendAndLookup(t *testing.T) {
	rt, _ := newTestRuntime()

	lib := rt.MakeSea(nil)
	user := rt.MakeSea(lib)

	symA := rt.Symbols.Intern("sea-a")
	slot := rt.AppendContext(lib, symA)
	slot.InitInteger(7)

	// lookup walks the parent chain
	got := SeaSlot(user, symA)
	if got == nil || got.Int() != 7 {
		t.Fatal("sea lookup must walk to the parent module")
	}

	// shadowing in the child wins over the parent
	shadow := rt.AppendContext(user, symA)
	shadow.InitInteger(9)
	if got := SeaSlot(user, symA); got.Int() != 9 {
		t.Fatal("child patch must shadow the parent's")
	}
	if got := SeaSlot(lib, symA); got.Int() != 7 {
		t.Fatal("parent slot must be unaffected by the shadow")
	}

	err := Rescue(func() error {
		rt.AppendContext(user, symA)
		return nil
	})
	if err == nil {
		t.Fatal("duplicate append to a sea must trip the assertion")
	}
}

func TestCollectorIndexing(t *testing.T) {
	rt, _ := newTestRuntime()

	col := rt.ConstructCollector(CollectOnlySetWords, nil)
	a := rt.Symbols.Intern("a")
	b := rt.Symbols.Intern("b")

	if !col.Push(a) {
		t.Fatal("first push of a must succeed")
	}
	if !col.Push(b) {
		t.Fatal("first push of b must succeed")
	}
	if col.Push(a) {
		t.Fatal("second push of a must report a duplicate")
	}
	if col.Index(a) != 1 || col.Index(b) != 2 {
		t.Fatalf("indices drifted: a=%d b=%d", col.Index(a), col.Index(b))
	}
	if col.Len() != 2 {
		t.Fatalf("want 2 collected symbols, got %d", col.Len())
	}
}

func TestCollectNoDup(t *testing.T) {
	rt, _ := newTestRuntime()

	body, err := rt.Scan("x: 1 y: 2 x: 3")
	if err != nil {
		t.Fatal(err)
	}

	// tolerated by default: the second x: keeps the first index
	col := rt.ConstructCollector(CollectOnlySetWords, nil)
	if err := col.CollectInnerLoop(body.cells); err != nil {
		t.Fatalf("default collection must tolerate duplicates: %v", err)
	}
	if col.Len() != 2 {
		t.Fatalf("want 2 unique symbols, got %d", col.Len())
	}

	// an error under CollectNoDup
	col = rt.ConstructCollector(CollectOnlySetWords|CollectNoDup, nil)
	err = col.CollectInnerLoop(body.cells)
	if errID(err) != ErrDupVars {
		t.Fatalf("want %s, got %v", ErrDupVars, err)
	}
}

func TestCollectNoDupToleratesParentKeys(t *testing.T) {
	rt, _ := newTestRuntime()

	parentBody, err := rt.Scan("x: 1")
	if err != nil {
		t.Fatal(err)
	}
	parent, err := rt.MakeVarlistDetect(CollectOnlySetWords, TypeObject, parentBody.cells, nil)
	if err != nil {
		t.Fatal(err)
	}

	// x: is preloaded from the parent, so redeclaring it is not a dup
	body, err := rt.Scan("x: 2 y: 3")
	if err != nil {
		t.Fatal(err)
	}
	col := rt.ConstructCollector(CollectOnlySetWords|CollectNoDup, parent)
	if err := col.CollectInnerLoop(body.cells); err != nil {
		t.Fatalf("inherited key must not count as a duplicate: %v", err)
	}
	if col.Index(rt.Symbols.Intern("x")) != 1 {
		t.Error("inherited key must keep its original index")
	}
	if col.Index(rt.Symbols.Intern("y")) != 2 {
		t.Error("new key must take the next index")
	}
}

func TestCollectDeep(t *testing.T) {
	rt, _ := newTestRuntime()

	body, err := rt.Scan("a: 1 [b: 2 (c: 3)]")
	if err != nil {
		t.Fatal(err)
	}

	col := rt.ConstructCollector(CollectOnlySetWords, nil)
	if err := col.CollectInnerLoop(body.cells); err != nil {
		t.Fatal(err)
	}
	if col.Len() != 1 {
		t.Fatalf("shallow collection must skip nested lists, got %d", col.Len())
	}

	col = rt.ConstructCollector(CollectOnlySetWords|CollectDeep, nil)
	if err := col.CollectInnerLoop(body.cells); err != nil {
		t.Fatal(err)
	}
	if col.Len() != 3 {
		t.Fatalf("deep collection must recurse, got %d", col.Len())
	}
}
