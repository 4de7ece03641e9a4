package runtime

// Generic dispatch: a verb declared :generic has per-datatype
// implementations registered separately, and invocation routes on the
// first argument's heart. Finding no implementation yields the
// distinguished BounceUnhandled, which callers can tell apart from both a
// real result and a throw; RunGenericDispatch hardens that into an error
// for verbs with no fallback behavior.

type genericKey struct {
	verb  string
	heart Heart
}

// GenericImpl has the dispatcher signature: the frame is already built, so
// implementations read their arguments from the level.
type GenericImpl func(rt *Runtime, L *Level) (Bounce, error)

// ImplementGeneric registers the heart-specific implementation of verb.
func (rt *Runtime) ImplementGeneric(verb string, heart Heart, impl GenericImpl) {
	key := genericKey{verb: verb, heart: heart}
	if _, dup := rt.generics[key]; dup {
		panicf("generic %s already implemented for %s", verb, heart.Name())
	}
	rt.generics[key] = impl
}

// TryDispatchGeneric looks up the implementation, nil when unhandled.
func (rt *Runtime) TryDispatchGeneric(verb string, heart Heart) GenericImpl {
	return rt.generics[genericKey{verb: verb, heart: heart}]
}

// DispatchGeneric invokes the implementation for the first argument's
// heart, or reports BounceUnhandled.
func (rt *Runtime) DispatchGeneric(verb string, L *Level) (Bounce, error) {
	arg := L.Arg(1)
	impl := rt.TryDispatchGeneric(verb, arg.heart)
	if impl == nil {
		return BounceUnhandled, nil
	}
	return impl(rt, L)
}

// RunGenericDispatch is DispatchGeneric with the fallback hardened into an
// error naming the datatype and verb.
func (rt *Runtime) RunGenericDispatch(verb string, L *Level) (Bounce, error) {
	b, err := rt.DispatchGeneric(verb, L)
	if err != nil {
		return b, err
	}
	if b == BounceUnhandled {
		return b, newError(ErrUnhandled, L.Arg(1).heart.Name(), verb)
	}
	return b, nil
}

// heartRank orders hearts by "complexity" for commutative normalization:
// MULTIPLY and friends swap operands so the higher-ranked operand's handler
// runs, making pair*decimal and decimal*pair dispatch identically.
func heartRank(h Heart) int {
	switch h {
	case TypeInteger:
		return 1
	case TypeDecimal:
		return 2
	default:
		return 3
	}
}

// normalizeCommutative swaps the two leading frame arguments when the
// second outranks the first.
func normalizeCommutative(L *Level) {
	a, b := L.Arg(1), L.Arg(2)
	if heartRank(b.heart) > heartRank(a.heart) {
		*a, *b = *b, *a
	}
}
