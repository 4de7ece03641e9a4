package runtime

import (
	"github.com/edwingeng/deque"
	"github.com/google/uuid"
)

// Pool owns every stub the runtime allocates. Stubs come back from the
// allocators unmanaged (the caller owns them) unless asked for managed;
// Manage hands ownership to the GC. Collection is mark-and-sweep: roots are
// the lib module, explicit guards, the live Level stack, and every
// unmanaged stub (their owner's references must stay valid). Sweep drops
// unmarked managed stubs, corrupts their cells, and runs handle cleaners
// exactly once. Go reclaims the memory afterwards; the pool's job is the
// deterministic lifetime discipline (cleanup callbacks, freeze/manage
// contracts, use-after-free detection), which Go finalizers can't promise.
type Pool struct {
	stubs []*Stub

	// guards pin otherwise-unreachable stubs/cells across allocations.
	guardedStubs []*Stub
	guardedCells []*Cell

	allocsSinceSweep int
	threshold        int // allocations between automatic sweeps; 0 = manual only

	sweeps    int
	lastFreed int
}

func newPool(threshold int) *Pool {
	return &Pool{threshold: threshold}
}

func (p *Pool) track(s *Stub) *Stub {
	p.stubs = append(p.stubs, s)
	p.allocsSinceSweep++
	return s
}

// Manage transfers ownership of an unmanaged stub to the GC.
func Manage(s *Stub) *Stub {
	s.SetFlag(StubFlagManaged)
	return s
}

// Guard pins a stub against collection until the matching Unguard. Used
// while building structures not yet reachable from any root.
func (p *Pool) Guard(s *Stub) {
	p.guardedStubs = append(p.guardedStubs, s)
}

func (p *Pool) Unguard(s *Stub) {
	for i := len(p.guardedStubs) - 1; i >= 0; i-- {
		if p.guardedStubs[i] == s {
			p.guardedStubs = append(p.guardedStubs[:i], p.guardedStubs[i+1:]...)
			return
		}
	}
	panicf("unguard of stub that was not guarded")
}

func (p *Pool) GuardCell(c *Cell) {
	p.guardedCells = append(p.guardedCells, c)
}

func (p *Pool) UnguardCell(c *Cell) {
	for i := len(p.guardedCells) - 1; i >= 0; i-- {
		if p.guardedCells[i] == c {
			p.guardedCells = append(p.guardedCells[:i], p.guardedCells[i+1:]...)
			return
		}
	}
	panicf("unguard of cell that was not guarded")
}

// --- allocators ---------------------------------------------------------

func (rt *Runtime) AllocArray(capacity int) *Stub {
	return rt.pool.track(&Stub{flavor: FlavorArray, cells: make([]Cell, 0, capacity)})
}

func (rt *Runtime) AllocText(initial string) *Stub {
	return rt.pool.track(&Stub{flavor: FlavorText, bytes: []byte(initial)})
}

func (rt *Runtime) AllocKeylist(capacity int) *Stub {
	return rt.pool.track(&Stub{flavor: FlavorKeylist, keys: make([]*Symbol, 0, capacity)})
}

// AllocVarlist makes a varlist with room for length variables; slot 0 is
// reserved for the rootvar, which the caller must initialize before the
// varlist is reachable.
func (rt *Runtime) AllocVarlist(length int) *Stub {
	s := &Stub{flavor: FlavorVarlist, cells: make([]Cell, 1, length+1)}
	s.cells[0].Corrupt() // rootvar must be initialized by the maker
	return rt.pool.track(s)
}

func (rt *Runtime) AllocSea() *Stub {
	return rt.pool.track(&Stub{flavor: FlavorSea})
}

func (rt *Runtime) allocPatch(sym *Symbol, sea *Stub) *Stub {
	p := &Stub{flavor: FlavorPatch, cells: make([]Cell, 1), symbol: sym, link: sea}
	rt.InitTrash(&p.cells[0])
	return rt.pool.track(p)
}

func (rt *Runtime) AllocDetails(paramlist *Stub, dispatcher Dispatcher, max int) *Stub {
	paramlist.assertFlavor(FlavorVarlist)
	s := &Stub{
		flavor:     FlavorDetails,
		cells:      make([]Cell, 1+max),
		link:       paramlist,
		dispatcher: dispatcher,
	}
	s.cells[0].InitAction(s, nil)
	for i := 1; i <= max; i++ {
		InitVoid(&s.cells[i])
	}
	return rt.pool.track(s)
}

func (rt *Runtime) AllocParameter(p *Parameter) *Stub {
	return rt.pool.track(&Stub{flavor: FlavorParameter, param: p})
}

// AllocHandle wraps host data into a GC-visible stub. The cleaner, if any,
// runs exactly once when the managed handle becomes unreachable.
func (rt *Runtime) AllocHandle(data any, cleaner HandleCleaner) *Stub {
	return rt.pool.track(&Stub{
		flavor:     FlavorHandle,
		handleData: data,
		cleaner:    cleaner,
		handleID:   uuid.New(),
	})
}

// --- mark ---------------------------------------------------------------

type markerState struct {
	work deque.Deque
}

func (m *markerState) push(s *Stub) {
	if s == nil || s.HasFlag(StubFlagMarked) || s.flavor == FlavorFree {
		return
	}
	s.SetFlag(StubFlagMarked)
	m.work.PushBack(s)
}

func (m *markerState) markCell(c *Cell) {
	if c == nil || c.heart == TypeCorrupt {
		return
	}
	m.push(c.node)
	m.push(c.extra)
}

func (m *markerState) drain() {
	for m.work.Len() != 0 {
		s := m.work.Front().(*Stub)
		m.work.PopFront()
		m.scan(s)
	}
}

func (m *markerState) scan(s *Stub) {
	switch s.flavor {
	case FlavorArray, FlavorVarlist, FlavorDetails, FlavorPatch:
		for i := range s.cells {
			m.markCell(&s.cells[i])
		}
	case FlavorParameter:
		if s.param != nil && s.param.Checks != nil {
			m.push(s.param.Checks)
		}
	case FlavorSea:
		for _, p := range s.patches {
			m.push(p)
		}
	}
	m.push(s.link)
	m.push(s.misc)
	m.push(s.parent)
}

// --- collect -------------------------------------------------------------

// MaybeCollect sweeps when the allocation budget since the last sweep is
// spent. Called from the trampoline between bounces, never mid-executor.
func (rt *Runtime) MaybeCollect() {
	p := rt.pool
	if p.threshold > 0 && p.allocsSinceSweep >= p.threshold {
		rt.Collect()
	}
}

// Collect runs a full mark-and-sweep. Returns the number of stubs freed.
func (rt *Runtime) Collect() int {
	p := rt.pool
	m := &markerState{work: deque.NewDeque()}

	// roots: contexts that live for the whole session
	m.push(rt.Lib)
	m.push(rt.User)
	m.push(rt.datatypeActions)

	// unmanaged stubs are owned elsewhere; whatever they reference is live
	for _, s := range p.stubs {
		if !s.IsManaged() {
			m.push(s)
		}
	}
	for _, s := range p.guardedStubs {
		m.push(s)
	}
	for _, c := range p.guardedCells {
		m.markCell(c)
	}

	// the live Level stack: outputs, scratch space, feeds, frames
	for lv := rt.top; lv != nil; lv = lv.prior {
		m.markCell(lv.Out)
		m.markCell(&lv.Spare)
		m.markCell(&lv.Scratch)
		m.push(lv.feed.array)
		m.push(lv.feed.binding)
		if lv.subfeed != nil {
			m.push(lv.subfeed.array)
			m.push(lv.subfeed.binding)
		}
		m.push(lv.varlist)
		m.push(lv.details)
		m.push(lv.coupling)
		m.markCell(&lv.current)
	}

	// symbols are never swept, but their hitch chains reference patches
	// which stay live only while their sea is live; patches get marked via
	// the sea's patch list, so nothing to do here.

	m.drain()

	// sweep
	kept := p.stubs[:0]
	freed := 0
	for _, s := range p.stubs {
		if s.HasFlag(StubFlagMarked) || !s.IsManaged() {
			s.ClearFlag(StubFlagMarked)
			kept = append(kept, s)
			continue
		}
		freeStub(s)
		freed++
	}
	p.stubs = kept
	p.allocsSinceSweep = 0
	p.sweeps++
	p.lastFreed = freed
	return freed
}

func freeStub(s *Stub) {
	if s.flavor == FlavorHandle && s.cleaner != nil {
		cleaner := s.cleaner
		s.cleaner = nil // exactly once
		cleaner(s.handleData)
	}
	if s.flavor == FlavorPatch && s.symbol != nil {
		unlinkHitch(s)
	}
	for i := range s.cells {
		s.cells[i].Corrupt()
	}
	s.cells = nil
	s.bytes = nil
	s.keys = nil
	s.link = nil
	s.misc = nil
	s.parent = nil
	s.patches = nil
	s.handleData = nil
	s.param = nil
	s.flavor = FlavorFree
}

// unlinkHitch removes a dead patch from its symbol's circular hitch chain.
func unlinkHitch(patch *Stub) {
	sym := patch.symbol
	if sym.hitch == nil {
		return
	}
	if sym.hitch == patch && patch.misc == patch {
		sym.hitch = nil
		return
	}
	prev := sym.hitch
	for prev.misc != patch {
		prev = prev.misc
		if prev == sym.hitch {
			return // not on the chain
		}
	}
	prev.misc = patch.misc
	if sym.hitch == patch {
		sym.hitch = prev
	}
}

// Stats for diagnostics and the RECYCLE native.
func (p *Pool) Stats() (live int, sweeps int, lastFreed int) {
	return len(p.stubs), p.sweeps, p.lastFreed
}
