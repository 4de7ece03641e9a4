package runtime

import (
	"io"
	"os"

	"github.com/tevino/abool/v2"
)

// Options tunes a fresh Runtime. The zero value is usable.
type Options struct {
	// Output receives PRINT and friends; defaults to os.Stdout.
	Output io.Writer

	// CollectThreshold is how many stub allocations may happen between
	// automatic sweeps. Zero means collect only on explicit request
	// (tests and the RECYCLE native).
	CollectThreshold int

	// SymbolsHint presizes the intern table.
	SymbolsHint int
}

// Runtime is one isolated interpreter instance: its own symbol table, stub
// pool, lib and user contexts, and level stack. Runtimes are not safe for
// concurrent use; the one cross-goroutine affordance is RequestHalt.
type Runtime struct {
	Symbols *SymbolTable
	pool    *Pool

	Lib  *Stub // sea holding every native and mezzanine definition
	User *Stub // sea scripts evaluate in; parent is Lib

	Output io.Writer

	// Halt is polled by the trampoline between bounces; setting it from
	// any goroutine aborts the evaluation in progress with a halted error.
	Halt *abool.AtomicBool

	dispatchers map[uintptr]dispatcherEntry
	generics    map[genericKey]GenericImpl

	// premade datatype value per heart, also a GC root
	datatypeActions *Stub

	top      *Level
	depth    int
	maxDepth int
	ticks    uint64

	thrownActive bool
	thrownLabel  Cell
	thrownValue  Cell
	thrownTarget *Stub // frame a definitional RETURN/UNWIND aims for

	// keywords interned once so antiform checks are pointer compares
	symNull   *Symbol
	symOkay   *Symbol
	symTrash  *Symbol
	symReturn *Symbol

	returnDetails *Stub // shared RETURN implementation; coupling varies

	// one-parameter interface shared by every TYPECHECKER product
	checkerParamlist *Stub
}

func New(opts Options) *Runtime {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	rt := &Runtime{
		Symbols:     NewSymbolTable(opts.SymbolsHint),
		pool:        newPool(opts.CollectThreshold),
		Output:      opts.Output,
		Halt:        abool.NewBool(false),
		dispatchers: make(map[uintptr]dispatcherEntry),
		generics:    make(map[genericKey]GenericImpl),
	}
	rt.symNull = rt.Symbols.Intern(spellingNull)
	rt.symOkay = rt.Symbols.Intern(spellingOkay)
	rt.symTrash = rt.Symbols.Intern(spellingTrash)
	rt.symReturn = rt.Symbols.Intern("return")

	rt.Lib = rt.MakeSea(nil)
	rt.User = rt.MakeSea(rt.Lib)

	rt.datatypeActions = rt.AllocArray(int(MaxHeart))
	rt.installDatatypes()
	rt.installNatives()
	rt.installGenerics()
	return rt
}

// Pool is exposed for guards and diagnostics.
func (rt *Runtime) Pool() *Pool { return rt.pool }

// Ticks counts trampoline spins since startup.
func (rt *Runtime) Ticks() uint64 { return rt.ticks }

// MaxDepthSeen is the high-water level-stack depth, for diagnostics.
func (rt *Runtime) MaxDepthSeen() int { return rt.maxDepth }

// RequestHalt asks the trampoline to abort at the next bounce. Safe to call
// from any goroutine (signal handlers, watchdogs).
func (rt *Runtime) RequestHalt() { rt.Halt.Set() }

// LibSlot resolves a symbol in lib without walking any user chain.
func (rt *Runtime) LibSlot(sym *Symbol) *Cell {
	return SeaSlot(rt.Lib, sym)
}

// SetLib defines (or overwrites) a lib variable.
func (rt *Runtime) SetLib(name string, v *Cell) {
	sym := rt.Symbols.Intern(name)
	slot := SeaSlot(rt.Lib, sym)
	if slot == nil {
		slot = rt.AppendContext(rt.Lib, sym)
	}
	*slot = *v
}

// installDatatypes premakes one datatype value per heart under its name
// (integer!, block!, ...) so specs and scripts can reference them.
func (rt *Runtime) installDatatypes() {
	for h := TypeBlank; h < MaxHeart; h++ {
		var c Cell
		c.InitDatatype(h)
		rt.datatypeActions.ArrayAppend(&c)
		rt.SetLib(heartNames[h], &c)
	}
}

// ApplyAction calls an action outside any feed: the arguments are supplied
// directly, in gatherable-parameter order. Each is lifted into a synthetic
// feed so the stepper reconstitutes it exactly (antiforms included) without
// re-evaluation.
func (rt *Runtime) ApplyAction(action *Cell, label *Symbol, args []Cell, out *Cell) error {
	arr := rt.AllocArray(len(args))
	for i := range args {
		tmp := args[i]
		tmp.Liftify()
		arr.appendRaw(&tmp)
	}
	rt.pool.Guard(arr)
	defer rt.pool.Unguard(arr)

	feed := NewFeed(arr, 0, rt.User)
	L := rt.pushActionLevel(action, label, feed, out, nil)
	return rt.Trampoline(L)
}

// DoText scans and evaluates source in the user context: the REPL and DO of
// text funnel through here.
func (rt *Runtime) DoText(source string) (Cell, error) {
	var out Cell
	InitVoid(&out)
	arr, err := rt.Scan(source)
	if err != nil {
		return out, err
	}
	rt.pool.Guard(arr)
	defer rt.pool.Unguard(arr)
	err = rt.RunArrayFully(arr, 0, rt.User, &out)
	return out, err
}
