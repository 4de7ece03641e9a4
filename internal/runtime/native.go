package runtime

// Natives are actions whose dispatcher is Go code. Their interface comes
// from a spec string scanned and analyzed exactly like a user FUNC spec, so
// arity, refinements and type constraints go through one pipeline.

type nativeDef struct {
	name string
	spec string
	run  Dispatcher

	// max closure slots in the details (most natives need none)
	slots int

	// catches opts the dispatcher into throw interception (CATCH, FUNC)
	catches bool

	// intrinsic is the optional level-free fast path for predicates
	intrinsic Intrinsic
}

func (rt *Runtime) registerNative(def nativeDef) *Stub {
	arr, err := rt.Scan(def.spec)
	if err != nil {
		panicf("native %s has an unscannable spec: %v", def.name, err)
	}
	rt.pool.Guard(arr)
	paramlist, err := rt.MakeParamlist(arr.cells, rt.symReturn)
	rt.pool.Unguard(arr)
	if err != nil {
		panicf("native %s has a bad spec: %v", def.name, err)
	}
	details := rt.MakeDispatchDetails(paramlist, def.run, def.slots)
	if def.catches {
		details.SetFlag(StubFlagDispatcherCatches)
	}
	details.intrinsic = def.intrinsic

	var c Cell
	c.InitAction(details, nil)
	rt.SetLib(def.name, &c)
	return details
}

func (rt *Runtime) installNatives() {
	rt.installCoreNatives()
	rt.installControlNatives()
	rt.installPredicates()
	rt.installMathNatives()

	rt.RegisterDispatcher(funcBodyDispatcher, "func-body", funcQuerier)
}

// refinementOn reads a refinement slot gathered as okay/null.
func refinementOn(slot *Cell) bool {
	return IsOkay(slot)
}
