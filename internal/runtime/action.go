package runtime

import "reflect"

// Dispatcher is the entry point that runs a callable's logic. It is stored
// directly in the Details stub, so the hot call path is one indirect call;
// the registry below exists only for reflective queries.
type Dispatcher func(rt *Runtime, L *Level) (Bounce, error)

// Intrinsic is the fast-call form some single-argument natives (notably
// typechecker predicates) provide: it computes a result without allocating
// a Level. The typechecking engine prefers it when present.
type Intrinsic func(rt *Runtime, arg *Cell, out *Cell) error

// Querier answers reflective questions (return-of, body-of) about actions
// built by its paired dispatcher, writing the answer to out.
type Querier func(rt *Runtime, details *Stub, property string, out *Cell) bool

// Reflective property names accepted by queriers.
const (
	QueryReturnOf = "return-of"
	QueryBodyOf   = "body-of"
)

type dispatcherEntry struct {
	name    string
	querier Querier
}

// RegisterDispatcher pairs a dispatcher with its querier. Keyed by function
// identity; the original's linear scan is replaced by a map, which the
// source notes is observably equivalent (lookup is reflection-only, never
// the call path).
func (rt *Runtime) RegisterDispatcher(d Dispatcher, name string, q Querier) {
	key := reflect.ValueOf(d).Pointer()
	if _, dup := rt.dispatchers[key]; dup {
		panicf("dispatcher %s registered twice", name)
	}
	rt.dispatchers[key] = dispatcherEntry{name: name, querier: q}
}

// DetailsQuerier finds the querier registered for the details' dispatcher,
// or nil for an unregistered (host-private) dispatcher.
func (rt *Runtime) DetailsQuerier(details *Stub) Querier {
	key := reflect.ValueOf(details.DispatcherOf()).Pointer()
	return rt.dispatchers[key].querier
}

func (rt *Runtime) DispatcherName(details *Stub) string {
	key := reflect.ValueOf(details.DispatcherOf()).Pointer()
	if e, ok := rt.dispatchers[key]; ok {
		return e.name
	}
	return "unregistered"
}

// MakeDispatchDetails wraps a finished paramlist and dispatcher into a
// Details stub with max closure slots. The paramlist is frozen here: arity
// and types are immutable from now on; specialization and augmentation
// build new Details rather than mutating. The literal-first convention of
// the leading parameter is cached as a stub flag so the evaluator can
// decide whether to quote a left-hand argument without re-walking params.
func (rt *Runtime) MakeDispatchDetails(paramlist *Stub, dispatcher Dispatcher, max int) *Stub {
	paramlist.assertFlavor(FlavorVarlist)
	paramlist.Freeze()
	paramlist.Keylist().Freeze()
	d := rt.AllocDetails(paramlist, dispatcher, max)
	if p := FirstUnspecialized(paramlist); p != nil && (p.Class == ParamThe || p.Class == ParamJust) {
		d.SetFlag(StubFlagLiteralFirst)
	}
	return Manage(d)
}

// ReturnParam fetches the sealed returner descriptor of an action's
// paramlist, or nil when the action declared none.
func ReturnParam(rt *Runtime, paramlist *Stub) *Parameter {
	slot := VarlistSlot(paramlist, rt.symReturn)
	if slot == nil || slot.heart != TypeParameter {
		return nil
	}
	p := paramOf(slot)
	if p.Class != ParamReturn {
		return nil
	}
	return p
}
