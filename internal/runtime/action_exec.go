package runtime

// Action invocation states. The executor suspends while each evaluative
// argument is computed by a sub-stepper sharing the caller's feed, then
// forwards to the dispatcher stored in the details stub.
const (
	stActInitial byte = iota
	stActArgDone
	stActDispatch
)

func (rt *Runtime) pushActionLevel(action *Cell, label *Symbol, feed *Feed, out *Cell, refines []*Symbol) *Level {
	L := rt.MakeLevel(actionExecutor, feed, out)
	L.details = action.DetailsStub()
	L.coupling = action.Coupling()
	L.label = label
	L.refines = refines
	rt.PushLevel(L)
	return L
}

func actionExecutor(rt *Runtime, L *Level) (Bounce, error) {
	switch L.state {
	case stActInitial:
		if err := rt.buildFrame(L); err != nil {
			return BounceOut, err
		}
		L.paramIndex = 0
		return rt.fillNextArg(L)

	case stActArgDone:
		if err := rt.finishArg(L); err != nil {
			return BounceOut, err
		}
		return rt.fillNextArg(L)

	case stActDispatch:
		return rt.runDispatch(L)

	case StateThrowing:
		b, err := L.details.DispatcherOf()(rt, L)
		L.state = stActDispatch
		if err != nil || b != BounceOut {
			return b, err
		}
		return rt.finishResult(L)
	}
	panicf("action executor resumed at unknown state %d", L.state)
	return BounceOut, nil
}

// buildFrame materializes the call frame: a varlist sharing the paramlist's
// keylist (flagged shared; it is frozen anyway), whose parent is the
// definition-site binding and whose misc backlinks to the details. Slots
// start as copies of the parameter descriptors ("unfilled"), except locals
// (trash), specialized values (copied), and the returner (replaced by a
// RETURN action coupled to this very frame).
func (rt *Runtime) buildFrame(L *Level) error {
	paramlist := L.details.Paramlist()
	n := paramlist.VarlistLen()

	varlist := rt.AllocVarlist(n)
	initRootvar(varlist, TypeFrame)
	keylist := paramlist.Keylist()
	keylist.SetFlag(StubFlagShared)
	varlist.setKeylist(keylist)
	varlist.parent = L.details.misc
	varlist.misc = L.details

	keys := keylist
	for _, refine := range L.refines {
		found := false
		for i := 0; i < keys.KeysLen(); i++ {
			if keys.KeyAt(i) == refine {
				slot := paramlist.VarAt(i + 1)
				if slot.heart == TypeParameter && paramOf(slot).Refinement {
					found = true
				}
				break
			}
		}
		if !found {
			return newError(ErrBadRefine, refine.Text(), L.LabelText())
		}
	}

	for i := 1; i <= n; i++ {
		src := paramlist.VarAt(i)
		varlist.cells = append(varlist.cells, Cell{})
		dst := &varlist.cells[i]
		if IsSpecialized(src) {
			*dst = *src
			continue
		}
		switch paramOf(src).Class {
		case ParamLocal:
			rt.InitTrash(dst)
		case ParamReturn:
			dst.InitAction(rt.returnDetails, varlist)
			dst.SetFlag(CellFlagSealed)
		default:
			*dst = *src // descriptor doubles as the unfilled marker
		}
	}
	Manage(varlist)
	L.varlist = varlist
	return nil
}

func mentions(refines []*Symbol, sym *Symbol) bool {
	for _, r := range refines {
		if r == sym {
			return true
		}
	}
	return false
}

// fillNextArg advances to the next unfilled parameter, either gathering it
// literally right here or suspending into a sub-evaluation.
func (rt *Runtime) fillNextArg(L *Level) (Bounce, error) {
	paramlist := L.details.Paramlist()
	keylist := paramlist.Keylist()

	for L.paramIndex < paramlist.VarlistLen() {
		L.paramIndex++
		idx := L.paramIndex
		pslot := paramlist.VarAt(idx)
		if pslot.HasFlag(CellFlagSealed) || IsSpecialized(pslot) {
			continue
		}
		p := paramOf(pslot)
		slot := L.varlist.VarAt(idx)
		sym := keylist.KeyAt(idx - 1)

		if p.Refinement {
			if !mentions(L.refines, sym) {
				rt.InitNull(slot)
				continue
			}
			if p.Unconstrained {
				rt.InitOkay(slot)
				continue
			}
			// mentioned refinement with types gathers an argument below
		}

		switch p.Class {
		case ParamNormal, ParamMeta:
			if L.feed.AtEnd() {
				return BounceOut, newError(ErrNoArg, L.LabelText(), sym.Text())
			}
			sub := rt.MakeLevel(stepperExecutor, L.feed, slot)
			rt.PushLevel(sub)
			L.state = stActArgDone
			return BounceContinue, nil

		case ParamSoft:
			if L.feed.AtEnd() {
				return BounceOut, newError(ErrNoArg, L.LabelText(), sym.Text())
			}
			v := L.feed.At()
			if v.IsPlain() && v.heart == TypeGroup {
				L.feed.Advance()
				sub := rt.MakeLevel(blockExecutor, NewFeed(v.SeriesStub(), v.SeriesIndex(), bindingOr(v.extra, L.feed.binding)), slot)
				rt.PushLevel(sub)
				L.state = stActArgDone
				return BounceContinue, nil
			}
			if err := rt.takeLiteralArg(L, p, slot, sym); err != nil {
				return BounceOut, err
			}

		case ParamThe, ParamJust:
			if L.feed.AtEnd() {
				return BounceOut, newError(ErrNoArg, L.LabelText(), sym.Text())
			}
			if err := rt.takeLiteralArg(L, p, slot, sym); err != nil {
				return BounceOut, err
			}

		default:
			panicf("unfilled %s slot survived frame build", paramOf(pslot).Class)
		}
	}

	// interception arms only now that the frame is fulfilled; a throw
	// raised while arguments were still being gathered belongs to some
	// level further out
	if L.details.HasFlag(StubFlagDispatcherCatches) {
		L.flags |= LevelFlagCatches
	}
	L.state = stActDispatch
	L.dstate = 0
	return rt.runDispatch(L)
}

func (rt *Runtime) takeLiteralArg(L *Level, p *Parameter, slot *Cell, sym *Symbol) error {
	*slot = *L.feed.At()
	L.feed.Advance()
	if IsWordLike(slot.heart) && slot.extra == nil && p.Class != ParamJust {
		slot.SetBinding(L.feed.binding)
	}
	return rt.typecheckArg(L, p, slot, sym)
}

// finishArg post-processes an evaluated argument: meta parameters receive
// the lifted form, everything else decays unstable antiforms, then the
// declared constraint is enforced before the body ever sees the value.
func (rt *Runtime) finishArg(L *Level) error {
	paramlist := L.details.Paramlist()
	pslot := paramlist.VarAt(L.paramIndex)
	p := paramOf(pslot)
	slot := L.varlist.VarAt(L.paramIndex)
	sym := paramlist.Keylist().KeyAt(L.paramIndex - 1)

	if p.Class == ParamMeta {
		slot.Liftify()
	} else {
		if err := rt.Decay(slot); err != nil {
			return err
		}
	}
	return rt.typecheckArg(L, p, slot, sym)
}

func (rt *Runtime) typecheckArg(L *Level, p *Parameter, slot *Cell, sym *Symbol) error {
	if p.Unconstrained {
		return nil
	}
	v := slot
	var tmp Cell
	if p.Class == ParamMeta {
		tmp = *slot
		tmp.Unliftify()
		v = &tmp
	}
	ok, err := rt.TypecheckCellAgainstParam(p, v)
	if err != nil {
		return err
	}
	if !ok {
		return newError(ErrExpectArg, L.LabelText(), p.Describe(), sym.Text())
	}
	return nil
}

func (rt *Runtime) runDispatch(L *Level) (Bounce, error) {
	if L.flags&LevelFlagRecheckArgs != 0 {
		L.flags &^= LevelFlagRecheckArgs
		if err := rt.recheckFrame(L); err != nil {
			return BounceOut, err
		}
	}
	b, err := L.details.DispatcherOf()(rt, L)
	if err != nil || b != BounceOut {
		return b, err
	}
	return rt.finishResult(L)
}

func (rt *Runtime) recheckFrame(L *Level) error {
	paramlist := L.details.Paramlist()
	keylist := paramlist.Keylist()
	for i := 1; i <= paramlist.VarlistLen(); i++ {
		pslot := paramlist.VarAt(i)
		if pslot.HasFlag(CellFlagSealed) || IsSpecialized(pslot) {
			continue
		}
		p := paramOf(pslot)
		slot := L.varlist.VarAt(i)
		if p.Refinement && IsNull(slot) {
			continue
		}
		if err := rt.typecheckArg(L, p, slot, keylist.KeyAt(i-1)); err != nil {
			return err
		}
	}
	return nil
}

// finishResult enforces the declared return constraint and maintains the
// "unsurprising" cache: actions whose observed result heart stays stable
// across calls keep the flag, so tooling can spot inconsistent returners
// without re-deriving types per call.
func (rt *Runtime) finishResult(L *Level) (Bounce, error) {
	paramlist := L.details.Paramlist()
	ret := ReturnParam(rt, paramlist)
	if ret != nil && !ret.Unconstrained {
		if IsUnstable(L.Out) {
			if err := rt.Decay(L.Out); err != nil {
				return BounceOut, err
			}
		}
		ok, err := rt.TypecheckCellAgainstParam(ret, L.Out)
		if err != nil {
			return BounceOut, err
		}
		if !ok {
			return BounceOut, newError(ErrBadReturnType, L.LabelText(), L.Out.heart.Name())
		}
	}

	archetype := L.details.DetailsArchetype()
	observed := int(L.Out.heart) + 1
	if archetype.index == 0 {
		archetype.index = observed
		archetype.SetFlag(CellFlagUnsurprising)
	} else if archetype.index != observed {
		archetype.ClearFlag(CellFlagUnsurprising)
	}
	return BounceOut, nil
}
