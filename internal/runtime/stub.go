package runtime

import "github.com/google/uuid"

// Flavor says what a Stub's payload holds. All interpretation of a stub
// goes through flavor-checked accessors; poking at fields across flavors is
// a contract violation and panics.
type Flavor byte

const (
	FlavorFree Flavor = iota // swept; any access is a use-after-free bug

	FlavorArray     // cells: general array-of-cells series
	FlavorText      // bytes: UTF-8 string series
	FlavorKeylist   // keys: ordered symbols, shareable copy-on-write
	FlavorVarlist   // cells: rootvar + variable slots; link: keylist
	FlavorSea       // sea-of-vars module context; patches hang off symbols
	FlavorPatch     // single variable slot of a sea context
	FlavorDetails   // cells: archetype + closure data; link: paramlist
	FlavorParameter // one parameter descriptor
	FlavorHandle    // opaque host data with cleanup callback
)

var flavorNames = []string{
	"free", "array", "text", "keylist", "varlist", "sea", "patch",
	"details", "parameter", "handle",
}

func (f Flavor) String() string { return flavorNames[f] }

type StubFlags uint16

const (
	// StubFlagManaged: the GC owns this stub; unset means the allocating
	// caller owns it and must Manage or Free it explicitly.
	StubFlagManaged StubFlags = 1 << iota

	// StubFlagMarked: set during the mark phase, cleared by sweep.
	StubFlagMarked

	// StubFlagFrozen: permanently immutable (interned text, paramlists,
	// literal constants).
	StubFlagFrozen

	// StubFlagShared: this keylist is referenced by more than one varlist;
	// expansion must fork it before writing (copy-on-write).
	StubFlagShared

	// StubFlagSealedKeys: paramlist keylist containing sealed slots.
	StubFlagSealedKeys

	// StubFlagLiteralFirst: details whose first gatherable parameter takes
	// its argument literally; cached so the evaluator needn't re-derive it.
	StubFlagLiteralFirst

	// StubFlagDispatcherCatches: details whose dispatcher wants to be
	// re-entered when a throw unwinds through its level.
	StubFlagDispatcherCatches
)

// Stub is the fixed header of a garbage-collected variable-length
// allocation. The link/misc slots are flavor-dependent:
//
//	varlist:  link = keylist, misc = adjunct (help strings etc.)
//	keylist:  link = ancestor keylist (pre-fork lineage)
//	patch:    link = owning sea, misc = next patch in the symbol's hitch
//	details:  link = paramlist varlist
type Stub struct {
	flavor Flavor
	flags  StubFlags

	cells []Cell
	bytes []byte
	keys  []*Symbol

	link *Stub
	misc *Stub

	// flavor-specific extras
	symbol     *Symbol       // patch: the symbol this patch defines
	parent     *Stub         // varlist: parent context for lookup chains
	patches    []*Stub       // sea: every patch this module owns
	dispatcher Dispatcher    // details: the call entry point
	intrinsic  Intrinsic     // details: optional level-free fast path
	handleData any           // handle: host payload
	cleaner    HandleCleaner // handle: invoked once by GC on last reference
	handleID   uuid.UUID     // handle: stable identity for mold/diagnostics
	param      *Parameter    // parameter: descriptor payload
	adjunct    map[*Symbol]string
}

// HandleCleaner is called exactly once, by the sweep phase, when a managed
// handle stub is collected. Hosts use it to release non-GC resources.
type HandleCleaner func(data any)

func (s *Stub) Flavor() Flavor { return s.flavor }

func (s *Stub) assertFlavor(f Flavor) {
	if s.flavor != f {
		panicf("stub access: want flavor %s, stub is %s", f, s.flavor)
	}
}

func (s *Stub) assertAnyContext() {
	if s.flavor != FlavorVarlist && s.flavor != FlavorSea {
		panicf("stub access: want a context flavor, stub is %s", s.flavor)
	}
}

func (s *Stub) HasFlag(f StubFlags) bool { return s.flags&f != 0 }
func (s *Stub) SetFlag(f StubFlags)      { s.flags |= f }
func (s *Stub) ClearFlag(f StubFlags)    { s.flags &^= f }

func (s *Stub) IsManaged() bool { return s.flags&StubFlagManaged != 0 }
func (s *Stub) IsFrozen() bool  { return s.flags&StubFlagFrozen != 0 }

// Freeze makes the stub deeply immutable, permanently.
func (s *Stub) Freeze() { s.flags |= StubFlagFrozen }

func (s *Stub) ensureMutable() {
	if s.flavor == FlavorFree {
		panicf("mutation of freed stub")
	}
	if s.IsFrozen() {
		panicf("mutation of frozen %s stub", s.flavor)
	}
}

// --- array flavor -------------------------------------------------------

func (s *Stub) ArrayLen() int {
	if s.flavor != FlavorArray && s.flavor != FlavorVarlist && s.flavor != FlavorDetails {
		panicf("array access on %s stub", s.flavor)
	}
	return len(s.cells)
}

func (s *Stub) ArrayAt(i int) *Cell {
	if i < 0 || i >= s.ArrayLen() {
		panicf("array index %d out of range (len %d)", i, len(s.cells))
	}
	return &s.cells[i]
}

// ArrayAppend copies a stable value onto the tail.
func (s *Stub) ArrayAppend(v *Cell) {
	s.ensureMutable()
	assertStorable(v)
	s.cells = append(s.cells, *v)
}

// appendRaw admits lifted/antiform cells; used by pack construction and
// frame machinery which deal in lifted representations.
func (s *Stub) appendRaw(v *Cell) {
	s.ensureMutable()
	s.cells = append(s.cells, *v)
}

// --- text flavor ---------------------------------------------------------

func (s *Stub) TextBytes() []byte {
	s.assertFlavor(FlavorText)
	return s.bytes
}

func (s *Stub) TextString() string {
	s.assertFlavor(FlavorText)
	return string(s.bytes)
}

func (s *Stub) TextAppend(b []byte) {
	s.assertFlavor(FlavorText)
	s.ensureMutable()
	s.bytes = append(s.bytes, b...)
}

// --- keylist flavor -------------------------------------------------------

func (s *Stub) KeysLen() int {
	s.assertFlavor(FlavorKeylist)
	return len(s.keys)
}

func (s *Stub) KeyAt(i int) *Symbol { // 0-based into the keylist
	s.assertFlavor(FlavorKeylist)
	return s.keys[i]
}

func (s *Stub) keyAppend(sym *Symbol) {
	s.assertFlavor(FlavorKeylist)
	if s.HasFlag(StubFlagShared) {
		panicf("append to shared keylist without copy-on-write fork")
	}
	s.ensureMutable()
	s.keys = append(s.keys, sym)
}

// Ancestor is the keylist this one was forked from, if any. Specialization
// compatibility checks walk this lineage.
func (s *Stub) Ancestor() *Stub {
	s.assertFlavor(FlavorKeylist)
	return s.link
}

// --- varlist flavor --------------------------------------------------------

// VarlistLen is the number of variables, excluding the rootvar. The
// invariant VarlistLen()+1 == ArrayLen() holds at all times.
func (s *Stub) VarlistLen() int {
	s.assertFlavor(FlavorVarlist)
	return len(s.cells) - 1
}

func (s *Stub) Rootvar() *Cell {
	s.assertFlavor(FlavorVarlist)
	return &s.cells[0]
}

// VarAt returns the variable slot at 1-based index i.
func (s *Stub) VarAt(i int) *Cell {
	s.assertFlavor(FlavorVarlist)
	if i < 1 || i > s.VarlistLen() {
		panicf("varlist index %d out of range (len %d)", i, s.VarlistLen())
	}
	return &s.cells[i]
}

func (s *Stub) Keylist() *Stub {
	s.assertFlavor(FlavorVarlist)
	return s.link
}

func (s *Stub) setKeylist(k *Stub) {
	s.assertFlavor(FlavorVarlist)
	k.assertFlavor(FlavorKeylist)
	s.link = k
}

func (s *Stub) Parent() *Stub {
	s.assertAnyContext()
	return s.parent
}

// --- sea flavor -------------------------------------------------------------

func (s *Stub) SeaPatches() []*Stub {
	s.assertFlavor(FlavorSea)
	return s.patches
}

// --- patch flavor -------------------------------------------------------------

func (s *Stub) PatchVar() *Cell {
	s.assertFlavor(FlavorPatch)
	return &s.cells[0]
}

func (s *Stub) PatchSymbol() *Symbol {
	s.assertFlavor(FlavorPatch)
	return s.symbol
}

func (s *Stub) PatchSea() *Stub {
	s.assertFlavor(FlavorPatch)
	return s.link
}

func (s *Stub) nextHitch() *Stub {
	s.assertFlavor(FlavorPatch)
	return s.misc
}

// --- details flavor -------------------------------------------------------------

// DetailsMax is the declared closure-slot capacity, excluding the slot 0
// archetype. Dispatchers index within it and must agree with it.
func (s *Stub) DetailsMax() int {
	s.assertFlavor(FlavorDetails)
	return len(s.cells) - 1
}

func (s *Stub) DetailsArchetype() *Cell {
	s.assertFlavor(FlavorDetails)
	return &s.cells[0]
}

// DetailsAt returns closure slot i (1-based, slot 0 being the archetype).
func (s *Stub) DetailsAt(i int) *Cell {
	s.assertFlavor(FlavorDetails)
	if i < 1 || i > s.DetailsMax() {
		panicf("details index %d out of range (max %d)", i, s.DetailsMax())
	}
	return &s.cells[i]
}

func (s *Stub) DispatcherOf() Dispatcher {
	s.assertFlavor(FlavorDetails)
	return s.dispatcher
}

func (s *Stub) Paramlist() *Stub {
	s.assertFlavor(FlavorDetails)
	return s.link
}

// --- parameter flavor -------------------------------------------------------------

// parameter payload lives in param.go (Parameter struct kept by pointer).

// --- handle flavor -------------------------------------------------------------

func (s *Stub) HandleData() any {
	s.assertFlavor(FlavorHandle)
	return s.handleData
}

func (s *Stub) HandleID() uuid.UUID {
	s.assertFlavor(FlavorHandle)
	return s.handleID
}
