package runtime

// Bounce is what an executor hands back to the trampoline: either "my
// output cell is ready" or a control-transfer instruction.
type Bounce byte

const (
	// BounceOut: the level produced a result in its Out cell; pop it.
	BounceOut Bounce = iota

	// BounceContinue: a sublevel was pushed; run it, then re-enter this
	// executor at its recorded STATE.
	BounceContinue

	// BounceDelegate: a sublevel was pushed and fully replaces this level
	// (tail-call style); this level is unlinked, the child inherits its
	// output slot.
	BounceDelegate

	// BounceThrown: a throw is propagating (see Runtime.thrown*).
	BounceThrown

	// BounceRedoChecked: re-enter this level's dispatcher from the top,
	// re-validating argument types first (definitional tail-calls).
	BounceRedoChecked

	// BounceRedoUnchecked: like BounceRedoChecked without re-validation.
	BounceRedoUnchecked

	// BounceUnhandled: generic dispatch found no implementation; distinct
	// from any real result and from a throw.
	BounceUnhandled
)

// Executor is one level's resumable state-machine step. The STATE byte it
// left behind must uniquely determine where it resumes; no Go stack frame
// survives across a continuation.
type Executor func(rt *Runtime, L *Level) (Bounce, error)

// StateThrowing is the reserved state an executor is re-entered with when a
// throw unwinds through its level and it opted into interception.
const StateThrowing byte = 255

// Feed is a read position into an array of cells plus the context that
// unbound words resolve through. Action levels share their caller's feed:
// argument gathering consumes from the same stream the caller steps.
type Feed struct {
	array   *Stub
	index   int
	binding *Stub
}

func NewFeed(array *Stub, index int, binding *Stub) *Feed {
	array.assertFlavor(FlavorArray)
	return &Feed{array: array, index: index, binding: binding}
}

func (f *Feed) AtEnd() bool { return f.index >= f.array.ArrayLen() }

func (f *Feed) At() *Cell {
	if f.AtEnd() {
		panicf("feed read past end")
	}
	return f.array.ArrayAt(f.index)
}

func (f *Feed) Advance() { f.index++ }

type LevelFlags uint16

const (
	// LevelFlagCatches: re-enter this level's executor (StateThrowing) when
	// a throw unwinds through it, giving it a chance to intercept.
	LevelFlagCatches LevelFlags = 1 << iota

	// LevelFlagRecheckArgs: set by BounceRedoChecked so the action executor
	// re-validates the frame before re-entering the dispatcher.
	LevelFlagRecheckArgs

	// LevelFlagScratch is free for executor-private use.
	LevelFlagScratch
)

// Level is one activation record of the stackless evaluator. Levels are
// explicitly allocated and linked into a list; the Go call stack never
// holds a pending script-level frame across a suspension.
type Level struct {
	executor Executor
	state    byte
	dstate   byte // dispatcher-private state while an action is running
	flags    LevelFlags

	// Out points at where this level's result goes, usually a cell owned
	// by the parent (its Spare, an argument slot, or the root output).
	Out *Cell

	// Spare and Scratch are GC-visible working cells private to the level.
	Spare   Cell
	Scratch Cell

	prior *Level

	feed *Feed

	// action invocation fields
	label      *Symbol // word the action was invoked through, for errors
	details    *Stub
	varlist    *Stub // frame under construction / in execution
	coupling   *Stub
	paramIndex int
	refines    []*Symbol // refinements named at the callsite
	subfeed    *Feed     // native-private iteration feed (ALL, CASE, ...)

	current Cell // gathered/remembered value, GC-marked
}

func (L *Level) State() byte     { return L.state }
func (L *Level) SetState(s byte) { L.state = s }

// Arg returns the n-th externally visible argument slot of the running
// action's frame (1-based, sealed slots skipped).
func (L *Level) Arg(n int) *Cell {
	if L.varlist == nil {
		panicf("Arg() outside an action frame")
	}
	seen := 0
	paramlist := L.details.Paramlist()
	for i := 1; i <= paramlist.VarlistLen(); i++ {
		if paramlist.VarAt(i).HasFlag(CellFlagSealed) {
			continue
		}
		seen++
		if seen == n {
			return L.varlist.VarAt(i)
		}
	}
	panicf("Arg(%d) out of range", n)
	return nil
}

// Slot resolves a frame variable by name (locals included).
func (L *Level) Slot(sym *Symbol) *Cell {
	if L.varlist == nil {
		panicf("Slot() outside an action frame")
	}
	return VarlistSlot(L.varlist, sym)
}

// Label is the name the action was invoked through, or "anonymous".
func (L *Level) LabelText() string {
	if L.label != nil {
		return L.label.Text()
	}
	return "anonymous"
}

// MakeLevel builds a level without pushing it.
func (rt *Runtime) MakeLevel(exec Executor, feed *Feed, out *Cell) *Level {
	L := &Level{executor: exec, feed: feed, Out: out}
	InitVoid(&L.Spare)
	InitVoid(&L.Scratch)
	InitVoid(&L.current)
	return L
}

// PushLevel links L on top of the level stack.
func (rt *Runtime) PushLevel(L *Level) {
	L.prior = rt.top
	rt.top = L
	rt.depth++
	if rt.depth > rt.maxDepth {
		rt.maxDepth = rt.depth
	}
}

// DropLevel pops L, which must be on top.
func (rt *Runtime) DropLevel(L *Level) {
	if rt.top != L {
		panicf("drop of level that is not on top")
	}
	rt.top = L.prior
	rt.depth--
	L.prior = nil
	L.Spare.Corrupt()
	L.Scratch.Corrupt()
	L.current.Corrupt()
}

// TopLevel is exposed for diagnostics.
func (rt *Runtime) TopLevel() *Level { return rt.top }

// Depth is the current level-stack depth (not Go stack depth).
func (rt *Runtime) Depth() int { return rt.depth }
