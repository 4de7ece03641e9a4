package runtime

// Word resolution walks the binding chain: a word bound to a varlist looks
// in its keylist then the varlist's parent; module (sea) bindings walk the
// symbol's hitch chain, then the sea's parents; everything falls back to
// lib. Returns the slot and whether one was found.
func (rt *Runtime) LookupWord(sym *Symbol, binding *Stub) (*Cell, bool) {
	for ctx := binding; ctx != nil; {
		switch ctx.flavor {
		case FlavorVarlist:
			if slot := VarlistSlot(ctx, sym); slot != nil {
				return slot, true
			}
			ctx = ctx.parent
		case FlavorSea:
			if p := seaPatchOf(ctx, sym); p != nil {
				return p.PatchVar(), true
			}
			ctx = ctx.parent
		case FlavorPatch:
			if ctx.symbol == sym {
				return ctx.PatchVar(), true
			}
			ctx = ctx.PatchSea()
		default:
			panicf("word bound to non-context stub %s", ctx.flavor)
		}
	}
	if slot := SeaSlot(rt.Lib, sym); slot != nil {
		return slot, true
	}
	return nil, false
}

func (rt *Runtime) lookupCellWord(w *Cell, feedBinding *Stub) (*Cell, bool) {
	binding := w.Binding()
	if binding == nil {
		binding = feedBinding
	}
	return rt.LookupWord(w.Sym(), binding)
}

// resolveForSet finds (or, in module scopes, creates) the slot a set-word
// assigns into. New variables materialize in the nearest sea on the chain;
// a chain with no sea cannot grow and the assignment fails.
func (rt *Runtime) resolveForSet(sym *Symbol, binding *Stub) (*Cell, error) {
	if slot, ok := rt.LookupWord(sym, binding); ok {
		return slot, nil
	}
	for ctx := binding; ctx != nil; {
		switch ctx.flavor {
		case FlavorSea:
			return rt.AppendContext(ctx, sym), nil
		case FlavorVarlist:
			ctx = ctx.parent
		case FlavorPatch:
			ctx = ctx.PatchSea()
		}
	}
	return nil, newError(ErrNotBound, sym.Text())
}

// --- stepper executor -------------------------------------------------------
//
// Evaluates exactly one expression from the feed into Out. Suspends (and
// later resumes by STATE) whenever a subexpression needs evaluating.

const (
	stStepInitial byte = iota
	stStepSetWord
)

func stepperExecutor(rt *Runtime, L *Level) (Bounce, error) {
	switch L.state {
	case stStepInitial:
		break
	case stStepSetWord:
		return stepperAssign(rt, L)
	default:
		panicf("stepper resumed at unknown state %d", L.state)
	}

	v := L.feed.At()
	L.feed.Advance()

	if v.IsQuoted() {
		*L.Out = *v
		L.Out.Unquote()
		if IsWordLike(L.Out.heart) && L.Out.extra == nil {
			L.Out.SetBinding(L.feed.binding)
		}
		return BounceOut, nil
	}
	if v.IsQuasiform() {
		*L.Out = *v
		L.Out.lift = liftAntiform
		return BounceOut, nil
	}

	switch v.heart {
	case TypeComma:
		InitGhost(L.Out)
		return BounceOut, nil

	case TypeWord:
		slot, ok := rt.lookupCellWord(v, L.feed.binding)
		if !ok {
			return BounceOut, newError(ErrNoValue, v.Sym().Text())
		}
		if IsTrash(slot) {
			return BounceOut, newError(ErrNoValue, v.Sym().Text())
		}
		if slot.IsPlain() && slot.heart == TypeAction {
			rt.pushActionLevel(slot, v.Sym(), L.feed, L.Out, nil)
			return BounceDelegate, nil
		}
		*L.Out = *slot
		return BounceOut, nil

	case TypeChain:
		first, refines := chainParts(v)
		slot, ok := rt.LookupWord(first, bindingOr(v.extra, L.feed.binding))
		if !ok {
			return BounceOut, newError(ErrNoValue, first.Text())
		}
		if !(slot.IsPlain() && slot.heart == TypeAction) {
			return BounceOut, newError(ErrBadCast, first.Text(), "an action (refinements need one)")
		}
		rt.pushActionLevel(slot, first, L.feed, L.Out, refines)
		return BounceDelegate, nil

	case TypeGetWord:
		slot, ok := rt.lookupCellWord(v, L.feed.binding)
		if !ok {
			return BounceOut, newError(ErrNoValue, v.Sym().Text())
		}
		*L.Out = *slot
		return BounceOut, nil

	case TypeSetWord:
		if L.feed.AtEnd() {
			return BounceOut, newError(ErrNeedNonEnd, v.Sym().Text()+":")
		}
		L.current = *v
		sub := rt.MakeLevel(stepperExecutor, L.feed, &L.Spare)
		rt.PushLevel(sub)
		L.state = stStepSetWord
		return BounceContinue, nil

	case TypeGroup:
		sub := rt.MakeLevel(blockExecutor, NewFeed(v.SeriesStub(), v.SeriesIndex(), bindingOr(v.extra, L.feed.binding)), L.Out)
		rt.PushLevel(sub)
		return BounceDelegate, nil

	case TypeBlock:
		*L.Out = *v
		if L.Out.extra == nil {
			L.Out.extra = L.feed.binding
		}
		return BounceOut, nil

	default:
		// self-evaluating: integers, decimals, text, tags, datatypes, ...
		*L.Out = *v
		return BounceOut, nil
	}
}

func stepperAssign(rt *Runtime, L *Level) (Bounce, error) {
	if IsGhost(&L.Spare) {
		return BounceOut, newError(ErrNeedNonEnd, L.current.Sym().Text()+":")
	}
	if err := rt.Decay(&L.Spare); err != nil {
		return BounceOut, err
	}
	sym := L.current.Sym()
	slot, err := rt.resolveForSet(sym, bindingOr(L.current.Binding(), L.feed.binding))
	if err != nil {
		return BounceOut, err
	}
	if slot.HasFlag(CellFlagProtected) {
		return BounceOut, newError(ErrProtected)
	}
	*slot = L.Spare
	*L.Out = L.Spare
	return BounceOut, nil
}

func bindingOr(primary *Stub, fallback *Stub) *Stub {
	if primary != nil {
		return primary
	}
	return fallback
}

// --- block executor -------------------------------------------------------
//
// Evaluates a feed to its end: the result is the last non-vanishing step
// value, or void when nothing voted (empty blocks, all-comment blocks).

const (
	stBlockInitial byte = iota
	stBlockStepDone
)

func blockExecutor(rt *Runtime, L *Level) (Bounce, error) {
	switch L.state {
	case stBlockInitial:
		InitVoid(L.Out)
	case stBlockStepDone:
		if IsRaised(&L.Spare) {
			return BounceOut, errorFromContext(L.Spare.node)
		}
		if !IsGhost(&L.Spare) {
			*L.Out = L.Spare
		}
	case StateThrowing:
		return BounceThrown, nil // block levels never intercept
	default:
		panicf("block executor resumed at unknown state %d", L.state)
	}

	if L.feed.AtEnd() {
		return BounceOut, nil
	}
	sub := rt.MakeLevel(stepperExecutor, L.feed, &L.Spare)
	rt.PushLevel(sub)
	L.state = stBlockStepDone
	return BounceContinue, nil
}
