package runtime

// Contexts bind symbols to value slots. Two representations exist:
//
//   - VarList: a dense array whose slot 0 is the self-referential rootvar
//     (the context's archetypal value) and whose remaining slots pair
//     positionally with a KeyList stub. KeyLists are shared copy-on-write
//     between varlists with identical keys.
//
//   - SeaOfVars: module-scale contexts. No contiguous array; each defined
//     symbol carries a circular "hitch chain" of single-slot Patch stubs,
//     one per module declaring it. Lookup walks the chain from the symbol.

// MakeVarlist builds an empty varlist of the given archetype heart with a
// fresh keylist, unmanaged (the caller owns it until Manage).
func (rt *Runtime) MakeVarlist(heart Heart, capacity int) *Stub {
	varlist := rt.AllocVarlist(capacity)
	keylist := rt.AllocKeylist(capacity)
	varlist.setKeylist(keylist)
	initRootvar(varlist, heart)
	return varlist
}

func initRootvar(varlist *Stub, heart Heart) {
	root := varlist.Rootvar()
	switch heart {
	case TypeObject:
		root.InitObject(varlist)
	case TypeFrame:
		root.InitFrame(varlist)
	case TypeError:
		root.InitError(varlist)
	default:
		panicf("varlist rootvar heart must be a context heart, got %s", heart.Name())
	}
}

// FindSymbolInContext gives the 1-based slot index of sym, or 0 when
// absent. Symbols are interned per runtime, so comparison is pointer
// identity; spelling variants intern to distinct symbols.
func FindSymbolInContext(ctx *Stub, sym *Symbol) int {
	ctx.assertFlavor(FlavorVarlist)
	keylist := ctx.Keylist()
	for i := 0; i < keylist.KeysLen(); i++ {
		if keylist.KeyAt(i) == sym {
			return i + 1
		}
	}
	return 0
}

// VarlistSlot resolves sym to its value slot, or nil.
func VarlistSlot(ctx *Stub, sym *Symbol) *Cell {
	idx := FindSymbolInContext(ctx, sym)
	if idx == 0 {
		return nil
	}
	return ctx.VarAt(idx)
}

// KeylistOfExpandedVarlist returns a keylist safe to append delta keys to.
// A shared keylist is forked first (copy-on-write), and the fork keeps an
// ancestor link back to the shared lineage so specialization compatibility
// checks can recognize relatives.
func (rt *Runtime) KeylistOfExpandedVarlist(varlist *Stub, delta int) *Stub {
	keylist := varlist.Keylist()
	if !keylist.HasFlag(StubFlagShared) {
		return keylist
	}
	fork := rt.AllocKeylist(keylist.KeysLen() + delta)
	fork.keys = append(fork.keys, keylist.keys...)
	fork.link = keylist // ancestor
	if keylist.IsManaged() {
		Manage(fork)
	}
	varlist.setKeylist(fork)
	return fork
}

// AppendContext adds one new symbol to a context and returns its fresh
// slot (holding trash). Duplicate symbols are a caller bug here: the
// collector pre-filters them, so hitting one trips an assertion.
func (rt *Runtime) AppendContext(ctx *Stub, sym *Symbol) *Cell {
	switch ctx.flavor {
	case FlavorVarlist:
		if FindSymbolInContext(ctx, sym) != 0 {
			panicf("duplicate symbol %q appended to varlist", sym.Text())
		}
		keylist := rt.KeylistOfExpandedVarlist(ctx, 1)
		keylist.keyAppend(sym)
		ctx.ensureMutable()
		ctx.cells = append(ctx.cells, Cell{})
		slot := &ctx.cells[len(ctx.cells)-1]
		rt.InitTrash(slot)
		return slot

	case FlavorSea:
		if patch := seaPatchOf(ctx, sym); patch != nil {
			panicf("duplicate symbol %q appended to sea context", sym.Text())
		}
		patch := rt.allocPatch(sym, ctx)
		if ctx.IsManaged() {
			Manage(patch)
		}
		linkHitch(sym, patch)
		ctx.patches = append(ctx.patches, patch)
		return patch.PatchVar()
	}
	panicf("append to non-context stub %s", ctx.flavor)
	return nil
}

// AppendContextBindWord appends word's symbol and binds the word cell to
// the context in place.
func (rt *Runtime) AppendContextBindWord(ctx *Stub, word *Cell) *Cell {
	slot := rt.AppendContext(ctx, word.Sym())
	word.SetBinding(ctx)
	return slot
}

func linkHitch(sym *Symbol, patch *Stub) {
	if sym.hitch == nil {
		patch.misc = patch // circular, single element
		sym.hitch = patch
		return
	}
	patch.misc = sym.hitch.misc
	sym.hitch.misc = patch
}

// seaPatchOf finds the patch belonging to sea on sym's hitch chain.
func seaPatchOf(sea *Stub, sym *Symbol) *Stub {
	if sym.hitch == nil {
		return nil
	}
	p := sym.hitch
	for {
		if p.link == sea && p.flavor == FlavorPatch {
			return p
		}
		p = p.misc
		if p == sym.hitch {
			return nil
		}
	}
}

// SeaSlot resolves sym in sea, walking the module's parent chain (a user
// module typically parents to lib).
func SeaSlot(sea *Stub, sym *Symbol) *Cell {
	for s := sea; s != nil; s = s.parent {
		if s.flavor != FlavorSea {
			panicf("sea lookup through non-sea parent %s", s.flavor)
		}
		if p := seaPatchOf(s, sym); p != nil {
			return p.PatchVar()
		}
	}
	return nil
}

// ContextSlot resolves sym in either context representation.
func ContextSlot(ctx *Stub, sym *Symbol) *Cell {
	switch ctx.flavor {
	case FlavorVarlist:
		return VarlistSlot(ctx, sym)
	case FlavorSea:
		return SeaSlot(ctx, sym)
	case FlavorPatch:
		// a word bound directly to a patch
		if ctx.symbol == sym {
			return ctx.PatchVar()
		}
		return nil
	}
	panicf("slot lookup on non-context stub %s", ctx.flavor)
	return nil
}

// MakeSea builds a module context, optionally chained to a parent sea.
func (rt *Runtime) MakeSea(parent *Stub) *Stub {
	sea := rt.AllocSea()
	if parent != nil {
		parent.assertFlavor(FlavorSea)
		sea.parent = parent
	}
	return sea
}

// MakeVarlistDetect scans a value range for settable words and materializes
// a varlist binding them, inheriting parent's keys and values. When no new
// keys are found beyond the parent's, the parent's keylist is shared
// (flagged) instead of copied. The result is managed.
func (rt *Runtime) MakeVarlistDetect(flags CollectFlags, heart Heart, body []Cell, parent *Stub) (*Stub, error) {
	col := rt.ConstructCollector(flags, parent)
	if err := col.CollectInnerLoop(body); err != nil {
		return nil, err
	}

	parentLen := 0
	if parent != nil {
		parentLen = parent.VarlistLen()
	}

	varlist := rt.AllocVarlist(len(col.syms))
	initRootvar(varlist, heart)

	if parent != nil && len(col.syms) == parentLen {
		// no new keys: share the parent's keylist
		shared := parent.Keylist()
		shared.SetFlag(StubFlagShared)
		varlist.setKeylist(shared)
	} else {
		keylist := rt.AllocKeylist(len(col.syms))
		keylist.keys = append(keylist.keys, col.syms...)
		Manage(keylist)
		varlist.setKeylist(keylist)
	}

	// copy parent values slot by slot; stable antiforms copy as-is, plain
	// series values are cloned shallowly (the archetype copy semantics)
	for i := 1; i <= len(col.syms); i++ {
		varlist.cells = append(varlist.cells, Cell{})
		slot := &varlist.cells[i]
		if i <= parentLen {
			*slot = *parent.VarAt(i)
		} else {
			rt.InitTrash(slot)
		}
	}
	return Manage(varlist), nil
}
