package runtime

import "fmt"

func (rt *Runtime) installCoreNatives() {
	rt.registerNative(nativeDef{
		name: "print",
		spec: `"write the formed value and a newline to the output"
			value`,
		run: printDispatcher,
	})
	rt.registerNative(nativeDef{
		name: "mold",
		spec: `"render a value as loadable source text"
			value`,
		run: moldDispatcher,
	})
	rt.registerNative(nativeDef{
		name: "type-of",
		spec: `"the datatype of a value"
			value`,
		run: typeOfDispatcher,
	})
	rt.registerNative(nativeDef{
		name: "get",
		spec: `"fetch a word's value without invoking actions"
			word [word!]`,
		run: getDispatcher,
	})
	rt.registerNative(nativeDef{
		name: "protect",
		spec: `"bar a variable from assignment"
			word [word!]`,
		run: protectDispatcher,
	})
	rt.registerNative(nativeDef{
		name: "recycle",
		spec: `"run a garbage collection pass; result is the stubs freed"`,
		run: recycleDispatcher,
	})
	rt.registerNative(nativeDef{
		name: "match",
		spec: `"the value if it satisfies the type constraints, else null"
			types [block!] value`,
		run: matchDispatcher,
	})
	rt.registerNative(nativeDef{
		name: "typechecker",
		spec: `"make a fast predicate answering whether a value has a datatype"
			type [datatype!]`,
		run:   typecheckerDispatcher,
		slots: 1,
	})
	rt.registerNative(nativeDef{
		name: "not",
		spec: `"logical negation under the conditional-truth rules"
			value`,
		run: notDispatcher,
	})
	rt.registerNative(nativeDef{
		name: "context",
		spec: `"build an object whose variables are the block's set-words"
			body [block!]`,
		run: contextDispatcher,
	})
	rt.registerNative(nativeDef{
		name: "equal?",
		spec: `"structural equality of two values"
			value1 value2`,
		run: equalDispatcher,
	})
}

func printDispatcher(rt *Runtime, L *Level) (Bounce, error) {
	fmt.Fprintln(rt.Output, rt.Form(L.Arg(1)))
	rt.InitTrash(L.Out)
	return BounceOut, nil
}

func moldDispatcher(rt *Runtime, L *Level) (Bounce, error) {
	return rt.RunGenericDispatch("moldify", L)
}

// moldifyDefault is the MOLDIFY implementation every heart starts with.
func moldifyDefault(rt *Runtime, L *Level) (Bounce, error) {
	text := rt.AllocText(rt.Mold(L.Arg(1)))
	Manage(text)
	L.Out.InitText(text, 0)
	return BounceOut, nil
}

func typeOfDispatcher(rt *Runtime, L *Level) (Bounce, error) {
	L.Out.InitDatatype(L.Arg(1).heart)
	return BounceOut, nil
}

func getDispatcher(rt *Runtime, L *Level) (Bounce, error) {
	w := L.Arg(1)
	slot, ok := rt.lookupCellWord(w, nil)
	if !ok {
		return BounceOut, newError(ErrNoValue, w.Sym().Text())
	}
	*L.Out = *slot
	return BounceOut, nil
}

func protectDispatcher(rt *Runtime, L *Level) (Bounce, error) {
	w := L.Arg(1)
	slot, ok := rt.lookupCellWord(w, nil)
	if !ok {
		return BounceOut, newError(ErrNoValue, w.Sym().Text())
	}
	slot.SetFlag(CellFlagProtected)
	rt.InitTrash(L.Out)
	return BounceOut, nil
}

func recycleDispatcher(rt *Runtime, L *Level) (Bounce, error) {
	L.Out.InitInteger(int64(rt.Collect()))
	return BounceOut, nil
}

func matchDispatcher(rt *Runtime, L *Level) (Bounce, error) {
	types := L.Arg(1)
	value := L.Arg(2)
	arr := types.SeriesStub()
	ts, checks, err := rt.parseTypeConstraints(arr.cells[types.SeriesIndex():])
	if err != nil {
		return BounceOut, err
	}
	p := &Parameter{Class: ParamNormal, Typeset: ts, Checks: checks}
	ok, err := rt.TypecheckCellAgainstParam(p, value)
	if err != nil {
		return BounceOut, err
	}
	if ok {
		*L.Out = *value
	} else {
		rt.InitNull(L.Out)
	}
	return BounceOut, nil
}

const checkerSlotType = 1

// checkerInterface is the one-parameter paramlist every made checker shares;
// built on first use and pinned for the session.
func (rt *Runtime) checkerInterface() (*Stub, error) {
	if rt.checkerParamlist == nil {
		arr, err := rt.Scan(`value`)
		if err != nil {
			return nil, err
		}
		paramlist, err := rt.MakeParamlist(arr.cells, rt.symReturn)
		if err != nil {
			return nil, err
		}
		rt.pool.Guard(paramlist)
		rt.checkerParamlist = paramlist
	}
	return rt.checkerParamlist, nil
}

func typecheckerDispatcher(rt *Runtime, L *Level) (Bounce, error) {
	heart := L.Arg(1).DatatypeHeart()
	paramlist, err := rt.checkerInterface()
	if err != nil {
		return BounceOut, err
	}
	details := rt.MakeDispatchDetails(paramlist, checkerBodyDispatcher, 1)
	details.DetailsAt(checkerSlotType).InitDatatype(heart)
	details.intrinsic = func(rt *Runtime, arg *Cell, out *Cell) error {
		rt.InitLogic(out, arg.IsPlain() && arg.heart == heart)
		return nil
	}
	L.Out.InitAction(details, nil)
	return BounceOut, nil
}

func checkerBodyDispatcher(rt *Runtime, L *Level) (Bounce, error) {
	heart := L.details.DetailsAt(checkerSlotType).DatatypeHeart()
	arg := L.Arg(1)
	rt.InitLogic(L.Out, arg.IsPlain() && arg.heart == heart)
	return BounceOut, nil
}

// contextDispatcher collects the body's set-words into a fresh object, then
// evaluates the body with the object as binding so the assignments land in
// its slots. Reads of anything else chain out to the caller's context.
func contextDispatcher(rt *Runtime, L *Level) (Bounce, error) {
	switch L.dstate {
	case dstInitial:
		body := L.Arg(1)
		arr := body.SeriesStub()
		varlist, err := rt.MakeVarlistDetect(CollectOnlySetWords, TypeObject,
			arr.cells[body.SeriesIndex():], nil)
		if err != nil {
			return BounceOut, err
		}
		varlist.parent = bindingOr(body.extra, rt.User)
		L.Scratch.InitObject(varlist)

		sub := rt.MakeLevel(blockExecutor,
			NewFeed(arr, body.SeriesIndex(), varlist), &L.Spare)
		rt.PushLevel(sub)
		L.dstate = dstStepDone
		return BounceContinue, nil
	case dstStepDone:
		*L.Out = L.Scratch
		return BounceOut, nil
	}
	panicf("CONTEXT resumed at unknown dstate %d", L.dstate)
	return BounceOut, nil
}

func notDispatcher(rt *Runtime, L *Level) (Bounce, error) {
	t, err := Truthy(L.Arg(1))
	if err != nil {
		return BounceOut, err
	}
	rt.InitLogic(L.Out, !t)
	return BounceOut, nil
}

// equalDispatcher consults the registry first, so datatypes with their own
// notion of equality (numbers widen, lists compare structurally) answer for
// themselves; everything else falls back to cell sameness.
func equalDispatcher(rt *Runtime, L *Level) (Bounce, error) {
	normalizeCommutative(L)
	b, err := rt.DispatchGeneric("equal?", L)
	if err != nil || b != BounceUnhandled {
		return b, err
	}
	rt.InitLogic(L.Out, cellsEqual(L.Arg(1), L.Arg(2)))
	return BounceOut, nil
}

// installPredicates registers a heart predicate per datatype (integer?,
// block?, ...) plus the antiform-state predicates. All carry intrinsics so
// type constraint blocks can use them without Level overhead.
func (rt *Runtime) installPredicates() {
	for h := TypeBlank; h < MaxHeart; h++ {
		heart := h
		name := heartNames[h]
		rt.registerNative(nativeDef{
			name: name[:len(name)-1] + "?",
			spec: `"is the value of this datatype?" value`,
			run: func(rt *Runtime, L *Level) (Bounce, error) {
				arg := L.Arg(1)
				rt.InitLogic(L.Out, arg.IsPlain() && arg.heart == heart)
				return BounceOut, nil
			},
			intrinsic: func(rt *Runtime, arg *Cell, out *Cell) error {
				rt.InitLogic(out, arg.IsPlain() && arg.heart == heart)
				return nil
			},
		})
	}

	antiform := func(name string, test func(*Cell) bool) {
		rt.registerNative(nativeDef{
			name: name,
			spec: `"does the value have this antiform state?" value`,
			run: func(rt *Runtime, L *Level) (Bounce, error) {
				rt.InitLogic(L.Out, test(L.Arg(1)))
				return BounceOut, nil
			},
			intrinsic: func(rt *Runtime, arg *Cell, out *Cell) error {
				rt.InitLogic(out, test(arg))
				return nil
			},
		})
	}
	antiform("null?", IsNull)
	antiform("okay?", IsOkay)
	antiform("trash?", IsTrash)
	antiform("void?", IsVoid)
	antiform("logic?", IsLogic)
}
