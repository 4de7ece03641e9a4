package runtime

// Trampoline drives the level whose executor is on top until base
// completes, without the Go stack growing with script nesting depth: every
// CONTINUE/DELEGATE returns here, and resumption is a fresh executor call
// steered by the level's STATE byte.
//
// Error discipline: executors return (Bounce, error) explicitly; an error
// unwinds the levels above (and including) base and surfaces to the Go
// caller. Go panics are contract violations and are not recovered here
// (see Rescue). Throws are not errors: they unwind cooperatively, giving
// each intercepting level a chance in innermost-to-outermost order.
func (rt *Runtime) Trampoline(base *Level) error {
	floor := base.prior

	for {
		if rt.Halt.IsSet() {
			rt.Halt.UnSet()
			rt.unwindTo(floor)
			return newError(ErrHalted)
		}
		rt.MaybeCollect()
		rt.ticks++

		top := rt.top
		bounce, err := top.executor(rt, top)
		if err != nil {
			rt.unwindTo(floor)
			return err
		}

		switch bounce {
		case BounceOut:
			rt.DropLevel(top)
			if top == base {
				return nil
			}
			// parent resumes at its recorded STATE on the next spin

		case BounceContinue:
			// executor pushed a sublevel; just keep spinning

		case BounceDelegate:
			// child replaces the delegator entirely
			child := rt.top
			if child == top {
				panicf("delegate bounce without a pushed sublevel")
			}
			if child.prior != top {
				panicf("delegate bounce with interleaved levels")
			}
			child.prior = top.prior
			rt.depth--
			if top == base {
				base = child
			}

		case BounceThrown:
			caught := rt.unwindThrow(top, base, floor)
			if caught {
				continue
			}
			label := rt.thrownLabel
			rt.clearThrown()
			return newError(ErrNoCatch, moldShallow(&label))

		case BounceRedoChecked:
			top.flags |= LevelFlagRecheckArgs
			top.state = stActDispatch
			top.dstate = 0

		case BounceRedoUnchecked:
			top.state = stActDispatch
			top.dstate = 0

		case BounceUnhandled:
			rt.unwindTo(floor)
			return newError(ErrUnhandled, "value", "requested operation")

		default:
			panicf("unknown bounce %d", bounce)
		}
	}
}

// unwindThrow pops levels until one with LevelFlagCatches agrees to look at
// the throw; that level is re-entered at StateThrowing on the next spin.
// Returns false when the unwind passed base without interception.
func (rt *Runtime) unwindThrow(thrower *Level, base *Level, floor *Level) bool {
	rt.DropLevel(thrower)
	if thrower == base {
		return false
	}
	for rt.top != floor {
		t := rt.top
		if t.flags&LevelFlagCatches != 0 {
			t.state = StateThrowing
			return true
		}
		rt.DropLevel(t)
		if t == base {
			return false
		}
	}
	return false
}

func (rt *Runtime) unwindTo(floor *Level) {
	for rt.top != floor {
		rt.DropLevel(rt.top)
	}
}

// --- throw state -----------------------------------------------------------

// Throw state: a label cell plus value cell on the runtime, matching the
// "thrown output + global label" protocol. Target throws (definitional
// RETURN, UNWIND) additionally carry the frame varlist they aim for.
func (rt *Runtime) setThrown(label *Cell, value *Cell, target *Stub) {
	if rt.thrownActive {
		panicf("throw while another throw is in flight")
	}
	rt.thrownActive = true
	rt.thrownLabel = *label
	rt.thrownValue = *value
	rt.thrownTarget = target
}

func (rt *Runtime) clearThrown() {
	rt.thrownActive = false
	rt.thrownLabel.Corrupt()
	rt.thrownValue.Corrupt()
	rt.thrownTarget = nil
}

// CatchThrown consumes the in-flight throw, moving its value to out.
func (rt *Runtime) CatchThrown(out *Cell) {
	if !rt.thrownActive {
		panicf("catch of a throw that is not in flight")
	}
	*out = rt.thrownValue
	rt.clearThrown()
}

// --- entry helpers -----------------------------------------------------------

// RunArrayFully evaluates a whole array (to-end block semantics: the last
// non-vanishing result, void when nothing voted) into out.
func (rt *Runtime) RunArrayFully(array *Stub, index int, binding *Stub, out *Cell) error {
	feed := NewFeed(array, index, binding)
	L := rt.MakeLevel(blockExecutor, feed, out)
	rt.PushLevel(L)
	return rt.Trampoline(L)
}

// RunBlockFully evaluates a block or group cell using its own binding.
func (rt *Runtime) RunBlockFully(list *Cell) (Cell, error) {
	if !IsListLike(list.heart) {
		panicf("RunBlockFully on %s", list.heart.Name())
	}
	var out Cell
	InitVoid(&out)
	err := rt.RunArrayFully(list.SeriesStub(), list.SeriesIndex(), list.extra, &out)
	return out, err
}

// RunGroupFully is RunBlockFully for construction-time group initializers.
func (rt *Runtime) RunGroupFully(group *Cell) (Cell, error) {
	out, err := rt.RunBlockFully(group)
	if err != nil {
		return out, err
	}
	if err := rt.Decay(&out); err != nil {
		return out, err
	}
	return out, nil
}

// Rescue runs fn, converting Go panics carrying *Violation (and stray
// panics) into errors. This is the privileged recovery point; using it for
// anything but top-level REPL-style recovery is discouraged.
func Rescue(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if v, ok := r.(*Violation); ok {
				err = v
				return
			}
			panic(r) // non-runtime panic: not ours to swallow
		}
	}()
	return fn()
}
