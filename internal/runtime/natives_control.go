package runtime

func (rt *Runtime) installControlNatives() {
	rt.registerNative(nativeDef{
		name: "if",
		spec: `"evaluate the branch when the condition is truthy, else null"
			condition branch [block!]`,
		run: ifDispatcher,
	})
	rt.registerNative(nativeDef{
		name: "when",
		spec: `"like IF, but a falsey condition vanishes instead of nulling"
			condition branch [block!]`,
		run: whenDispatcher,
	})
	rt.registerNative(nativeDef{
		name: "either",
		spec: `"evaluate one of two branches depending on the condition"
			condition true-branch [block!] false-branch [block!]`,
		run: eitherDispatcher,
	})
	rt.registerNative(nativeDef{
		name: "all",
		spec: `"null at the first falsey step, else the last truthy value"
			block [block!]`,
		run: allDispatcher,
	})
	rt.registerNative(nativeDef{
		name: "any",
		spec: `"the first truthy step value, null when every step is falsey"
			block [block!]`,
		run: anyDispatcher,
	})
	rt.registerNative(nativeDef{
		name: "none",
		spec: `"okay when every step is falsey, null at the first truthy one"
			block [block!]`,
		run: noneDispatcher,
	})
	rt.registerNative(nativeDef{
		name: "case",
		spec: `"run the branch of the first truthy condition; odd trailing
			value falls out as the result"
			block [block!] :all`,
		run: caseDispatcher,
	})
	rt.registerNative(nativeDef{
		name: "switch",
		spec: `"run the branch following the first case equal to the value"
			value cases [block!] :all`,
		run: switchDispatcher,
	})
	rt.registerNative(nativeDef{
		name: "catch",
		spec: `"catch a THROW from the block; null when nothing was thrown"
			block [block!] :name [word!]`,
		run:     catchDispatcher,
		catches: true,
	})
	rt.registerNative(nativeDef{
		name: "throw",
		spec: `"unwind to the nearest matching CATCH, carrying the value"
			value :name [word!]`,
		run: throwDispatcher,
	})
	rt.registerNative(nativeDef{
		name: "unwind",
		spec: `"jump the stack: make a frame that is still running return the value"
			target [frame! word!] value`,
		run: unwindDispatcher,
	})
	rt.registerNative(nativeDef{
		name: "func",
		spec: `"create an action from a spec block and a body block"
			spec [block!] body [block!]`,
		run: funcDispatcher,
	})
	rt.registerNative(nativeDef{
		name: "do",
		spec: `"evaluate a block or source text to completion"
			source [block! text!]`,
		run: doDispatcher,
	})
	rt.registerNative(nativeDef{
		name: "reduce",
		spec: `"evaluate each expression, collecting results into a block"
			block [block!]`,
		run: reduceDispatcher,
	})

	rt.returnDetails = rt.makeReturnDetails()
}

// Dispatcher sub-states. Natives that iterate keep their cursor in
// L.subfeed and resume at these dstate values.
const (
	dstInitial byte = iota
	dstStepDone
	dstBranchDone
)

// --- branching --------------------------------------------------------------

func branchFeed(branch *Cell, fallback *Stub) *Feed {
	return NewFeed(branch.SeriesStub(), branch.SeriesIndex(),
		bindingOr(branch.extra, fallback))
}

// delegateBranch hands the level over to the branch block entirely.
func (rt *Runtime) delegateBranch(L *Level, branch *Cell) (Bounce, error) {
	sub := rt.MakeLevel(blockExecutor, branchFeed(branch, L.varlist.Parent()), L.Out)
	rt.PushLevel(sub)
	return BounceDelegate, nil
}

func ifDispatcher(rt *Runtime, L *Level) (Bounce, error) {
	t, err := Truthy(L.Arg(1))
	if err != nil {
		return BounceOut, err
	}
	if !t {
		rt.InitNull(L.Out)
		return BounceOut, nil
	}
	return rt.delegateBranch(L, L.Arg(2))
}

func whenDispatcher(rt *Runtime, L *Level) (Bounce, error) {
	t, err := Truthy(L.Arg(1))
	if err != nil {
		return BounceOut, err
	}
	if !t {
		InitGhost(L.Out)
		return BounceOut, nil
	}
	return rt.delegateBranch(L, L.Arg(2))
}

func eitherDispatcher(rt *Runtime, L *Level) (Bounce, error) {
	t, err := Truthy(L.Arg(1))
	if err != nil {
		return BounceOut, err
	}
	if t {
		return rt.delegateBranch(L, L.Arg(2))
	}
	return rt.delegateBranch(L, L.Arg(3))
}

// --- ALL / ANY / NONE --------------------------------------------------------
//
// These share one shape: step the block one expression at a time through a
// sub-stepper into Spare, voting on each stable result. Ghost steps
// (comments, barriers) don't vote. An empty or all-ghost block yields void.

func startStepping(rt *Runtime, L *Level) (Bounce, error) {
	block := L.Arg(1)
	L.subfeed = branchFeed(block, L.varlist.Parent())
	InitVoid(L.Out)
	return stepNext(rt, L)
}

func stepNext(rt *Runtime, L *Level) (Bounce, error) {
	if L.subfeed.AtEnd() {
		return BounceOut, nil
	}
	sub := rt.MakeLevel(stepperExecutor, L.subfeed, &L.Spare)
	rt.PushLevel(sub)
	L.dstate = dstStepDone
	return BounceContinue, nil
}

func allDispatcher(rt *Runtime, L *Level) (Bounce, error) {
	switch L.dstate {
	case dstInitial:
		return startStepping(rt, L)
	case dstStepDone:
		if IsGhost(&L.Spare) {
			return stepNext(rt, L)
		}
		if err := rt.Decay(&L.Spare); err != nil {
			return BounceOut, err
		}
		t, err := Truthy(&L.Spare)
		if err != nil {
			return BounceOut, err
		}
		if !t {
			rt.InitNull(L.Out)
			return BounceOut, nil
		}
		*L.Out = L.Spare
		return stepNext(rt, L)
	}
	panicf("ALL resumed at unknown dstate %d", L.dstate)
	return BounceOut, nil
}

func anyDispatcher(rt *Runtime, L *Level) (Bounce, error) {
	switch L.dstate {
	case dstInitial:
		return startStepping(rt, L)
	case dstStepDone:
		if IsGhost(&L.Spare) {
			return stepNext(rt, L)
		}
		if err := rt.Decay(&L.Spare); err != nil {
			return BounceOut, err
		}
		t, err := Truthy(&L.Spare)
		if err != nil {
			return BounceOut, err
		}
		if t {
			*L.Out = L.Spare
			return BounceOut, nil
		}
		rt.InitNull(L.Out) // a step voted; falsey so far
		return stepNext(rt, L)
	}
	panicf("ANY resumed at unknown dstate %d", L.dstate)
	return BounceOut, nil
}

func noneDispatcher(rt *Runtime, L *Level) (Bounce, error) {
	switch L.dstate {
	case dstInitial:
		return startStepping(rt, L)
	case dstStepDone:
		if IsGhost(&L.Spare) {
			return stepNext(rt, L)
		}
		if err := rt.Decay(&L.Spare); err != nil {
			return BounceOut, err
		}
		t, err := Truthy(&L.Spare)
		if err != nil {
			return BounceOut, err
		}
		if t {
			rt.InitNull(L.Out)
			return BounceOut, nil
		}
		rt.InitOkay(L.Out)
		return stepNext(rt, L)
	}
	panicf("NONE resumed at unknown dstate %d", L.dstate)
	return BounceOut, nil
}

// --- CASE --------------------------------------------------------------------

func caseDispatcher(rt *Runtime, L *Level) (Bounce, error) {
	switch L.dstate {
	case dstInitial:
		block := L.Arg(1)
		L.subfeed = branchFeed(block, L.varlist.Parent())
		rt.InitNull(L.Out)
		return caseNextCondition(rt, L)

	case dstStepDone:
		// condition evaluated into Spare
		if err := rt.Decay(&L.Spare); err != nil {
			return BounceOut, err
		}
		if L.subfeed.AtEnd() {
			// odd trailing value: fallout as the overall result
			*L.Out = L.Spare
			return BounceOut, nil
		}
		branch := L.subfeed.At()
		if !(branch.IsPlain() && branch.heart == TypeBlock) {
			return BounceOut, newError(ErrBadCast, branch.heart.Name(), "a block! branch")
		}
		L.subfeed.Advance()
		t, err := Truthy(&L.Spare)
		if err != nil {
			return BounceOut, err
		}
		if !t {
			return caseNextCondition(rt, L)
		}
		sub := rt.MakeLevel(blockExecutor, branchFeed(branch, L.subfeed.binding), L.Out)
		rt.PushLevel(sub)
		L.dstate = dstBranchDone
		return BounceContinue, nil

	case dstBranchDone:
		if refinementOn(L.Arg(2)) { // case:all keeps going
			return caseNextCondition(rt, L)
		}
		return BounceOut, nil
	}
	panicf("CASE resumed at unknown dstate %d", L.dstate)
	return BounceOut, nil
}

func caseNextCondition(rt *Runtime, L *Level) (Bounce, error) {
	if L.subfeed.AtEnd() {
		return BounceOut, nil
	}
	sub := rt.MakeLevel(stepperExecutor, L.subfeed, &L.Spare)
	rt.PushLevel(sub)
	L.dstate = dstStepDone
	return BounceContinue, nil
}

// --- SWITCH ------------------------------------------------------------------

func switchDispatcher(rt *Runtime, L *Level) (Bounce, error) {
	switch L.dstate {
	case dstInitial:
		cases := L.Arg(2)
		L.subfeed = branchFeed(cases, L.varlist.Parent())
		rt.InitNull(L.Out)
	case dstBranchDone:
		if !refinementOn(L.Arg(3)) { // switch:all keeps matching
			return BounceOut, nil
		}
	default:
		panicf("SWITCH resumed at unknown dstate %d", L.dstate)
	}

	value := L.Arg(1)
	matched := false
	for !L.subfeed.AtEnd() {
		v := L.subfeed.At()
		L.subfeed.Advance()
		if v.IsPlain() && v.heart == TypeBlock {
			if !matched {
				continue
			}
			sub := rt.MakeLevel(blockExecutor, branchFeed(v, L.subfeed.binding), L.Out)
			rt.PushLevel(sub)
			L.dstate = dstBranchDone
			return BounceContinue, nil
		}
		if !matched && cellsEqual(v, value) {
			matched = true
		}
	}
	return BounceOut, nil
}

// --- CATCH / THROW -----------------------------------------------------------

func catchDispatcher(rt *Runtime, L *Level) (Bounce, error) {
	if L.state == StateThrowing {
		if rt.thrownTarget != nil {
			return BounceThrown, nil // targeted throws belong to frames
		}
		nameSlot := L.Arg(2)
		if nameSlot.IsPlain() && nameSlot.heart == TypeWord {
			// catch:name intercepts only a matching label
			if !(rt.thrownLabel.IsPlain() && rt.thrownLabel.heart == TypeWord &&
				rt.thrownLabel.sym == nameSlot.Sym()) {
				return BounceThrown, nil
			}
		} else {
			// plain catch intercepts only unlabeled throws
			if !(rt.thrownLabel.IsPlain() && rt.thrownLabel.heart == TypeBlank) {
				return BounceThrown, nil
			}
		}
		rt.CatchThrown(L.Out)
		return BounceOut, nil
	}

	switch L.dstate {
	case dstInitial:
		rt.InitNull(L.Out) // result when nothing throws
		block := L.Arg(1)
		sub := rt.MakeLevel(blockExecutor, branchFeed(block, L.varlist.Parent()), &L.Spare)
		rt.PushLevel(sub)
		L.dstate = dstStepDone
		return BounceContinue, nil
	case dstStepDone:
		return BounceOut, nil
	}
	panicf("CATCH resumed at unknown dstate %d", L.dstate)
	return BounceOut, nil
}

func throwDispatcher(rt *Runtime, L *Level) (Bounce, error) {
	var label Cell
	nameSlot := L.Arg(2)
	if nameSlot.IsPlain() && nameSlot.heart == TypeWord {
		label = *nameSlot
	} else {
		label.InitBlank()
	}
	rt.setThrown(&label, L.Arg(1), nil)
	return BounceThrown, nil
}

// unwindDispatcher aims a targeted throw at a specific running frame: the
// frame value itself, or any word bound into it. The frame's own body
// dispatcher intercepts the throw, so an UNWIND tunnels through every CATCH
// between here and there.
func unwindDispatcher(rt *Runtime, L *Level) (Bounce, error) {
	target := L.Arg(1)
	var frame *Stub
	switch target.heart {
	case TypeFrame:
		frame = target.ContextStub()
	case TypeWord:
		b := target.Binding()
		if b == nil || b.Flavor() != FlavorVarlist {
			return BounceOut, newError(ErrNotBound, target.Sym().Text())
		}
		frame = b
	}

	running := false
	for lv := L.prior; lv != nil; lv = lv.prior {
		if lv.varlist == frame {
			running = true
			break
		}
	}
	if !running {
		return BounceOut, newError(ErrNotRunning, "unwind target")
	}

	var label Cell
	label.InitWord(rt.Symbols.Intern("unwind"))
	rt.setThrown(&label, L.Arg(2), frame)
	return BounceThrown, nil
}

// --- FUNC / RETURN -------------------------------------------------------------

// details slot layout for user functions
const funcSlotBody = 1

// funcDispatcher builds the action: analyze the spec, wrap the body.
func funcDispatcher(rt *Runtime, L *Level) (Bounce, error) {
	spec := L.Arg(1)
	body := L.Arg(2)

	specArr := spec.SeriesStub()
	paramlist, err := rt.MakeParamlist(specArr.cells[spec.SeriesIndex():], rt.symReturn)
	if err != nil {
		return BounceOut, err
	}

	details := rt.MakeDispatchDetails(paramlist, funcBodyDispatcher, 1)
	details.SetFlag(StubFlagDispatcherCatches)
	*details.DetailsAt(funcSlotBody) = *body
	details.misc = bindingOr(body.extra, L.varlist.Parent())

	L.Out.InitAction(details, nil)
	return BounceOut, nil
}

// funcBodyDispatcher runs a user function body with the frame as binding,
// and intercepts the definitional RETURN aimed at this very frame.
func funcBodyDispatcher(rt *Runtime, L *Level) (Bounce, error) {
	if L.state == StateThrowing {
		if rt.thrownActive && rt.thrownTarget == L.varlist {
			rt.CatchThrown(L.Out)
			return BounceOut, nil
		}
		return BounceThrown, nil
	}

	switch L.dstate {
	case dstInitial:
		body := L.details.DetailsAt(funcSlotBody)
		sub := rt.MakeLevel(blockExecutor,
			NewFeed(body.SeriesStub(), body.SeriesIndex(), L.varlist), L.Out)
		rt.PushLevel(sub)
		L.dstate = dstStepDone
		return BounceContinue, nil
	case dstStepDone:
		return BounceOut, nil
	}
	panicf("function body resumed at unknown dstate %d", L.dstate)
	return BounceOut, nil
}

func funcQuerier(rt *Runtime, details *Stub, property string, out *Cell) bool {
	switch property {
	case QueryBodyOf:
		*out = *details.DetailsAt(funcSlotBody)
		return true
	case QueryReturnOf:
		slot := VarlistSlot(details.Paramlist(), rt.symReturn)
		if slot == nil {
			return false
		}
		*out = *slot
		return true
	}
	return false
}

// makeReturnDetails builds the one shared RETURN implementation. Each frame
// slot holds an action cell pointing here, coupled to its own varlist; the
// dispatcher reads the coupling to know which frame to unwind to.
func (rt *Runtime) makeReturnDetails() *Stub {
	return rt.registerNative(nativeDef{
		name: "return",
		spec: `"return a value from the enclosing function"
			value`,
		run: returnDispatcher,
	})
}

func returnDispatcher(rt *Runtime, L *Level) (Bounce, error) {
	target := L.coupling
	if target == nil {
		return BounceOut, newError(ErrNotBound, "return (no enclosing function)")
	}

	// enforce the target's declared return constraint at the throw site
	if details := target.misc; details != nil && details.flavor == FlavorDetails {
		if ret := ReturnParam(rt, details.Paramlist()); ret != nil && !ret.Unconstrained {
			ok, err := rt.TypecheckCellAgainstParam(ret, L.Arg(1))
			if err != nil {
				return BounceOut, err
			}
			if !ok {
				return BounceOut, newError(ErrBadReturnType,
					"return", L.Arg(1).heart.Name())
			}
		}
	}

	var label Cell
	label.InitWord(rt.symReturn)
	rt.setThrown(&label, L.Arg(1), target)
	return BounceThrown, nil
}

// --- DO / REDUCE ----------------------------------------------------------------

func doDispatcher(rt *Runtime, L *Level) (Bounce, error) {
	src := L.Arg(1)
	if src.heart == TypeText {
		arr, err := rt.Scan(src.node.TextString())
		if err != nil {
			return BounceOut, err
		}
		sub := rt.MakeLevel(blockExecutor, NewFeed(arr, 0, rt.User), L.Out)
		rt.PushLevel(sub)
		return BounceDelegate, nil
	}
	return rt.delegateBranch(L, src)
}

func reduceDispatcher(rt *Runtime, L *Level) (Bounce, error) {
	switch L.dstate {
	case dstInitial:
		block := L.Arg(1)
		L.subfeed = branchFeed(block, L.varlist.Parent())
		out := rt.AllocArray(4)
		Manage(out)
		L.Scratch.InitBlock(out, 0)
	case dstStepDone:
		if !IsGhost(&L.Spare) {
			if err := rt.Decay(&L.Spare); err != nil {
				return BounceOut, err
			}
			L.Scratch.SeriesStub().ArrayAppend(&L.Spare)
		}
	default:
		panicf("REDUCE resumed at unknown dstate %d", L.dstate)
	}

	if L.subfeed.AtEnd() {
		*L.Out = L.Scratch
		return BounceOut, nil
	}
	sub := rt.MakeLevel(stepperExecutor, L.subfeed, &L.Spare)
	rt.PushLevel(sub)
	L.dstate = dstStepDone
	return BounceContinue, nil
}
