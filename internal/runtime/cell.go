package runtime

// Heart is the fundamental datatype tag of a Cell, independent of quoting.
// Values < 64 so typesets can pack hearts into one uint64 (see Typeset).
type Heart byte

const (
	TypeCorrupt Heart = iota // poisoned dead cell, all access panics

	TypeBlank   // _
	TypeComma   // , expression barrier; evaluates to ghost
	TypeInteger // 64-bit integer
	TypeDecimal // 64-bit float
	TypeText    // UTF-8 string series
	TypeTag     // <tag>
	TypeWord
	TypeSetWord // word:
	TypeGetWord // :word (also marks refinements in function specs)
	TypeChain   // word:refinement[:refinement...] action invocation form
	TypeBlock   // [ ... ]
	TypeGroup   // ( ... )
	TypeObject  // varlist context
	TypeModule  // sea-of-vars context
	TypeFrame   // varlist whose keylist is a paramlist
	TypeAction
	TypeParameter // parameter descriptor (inside paramlists)
	TypeDatatype
	TypeHandle // opaque host resource with GC cleanup
	TypeError  // error object context

	MaxHeart
)

var heartNames = [MaxHeart]string{
	TypeCorrupt:   "corrupt!",
	TypeBlank:     "blank!",
	TypeComma:     "comma!",
	TypeInteger:   "integer!",
	TypeDecimal:   "decimal!",
	TypeText:      "text!",
	TypeTag:       "tag!",
	TypeWord:      "word!",
	TypeSetWord:   "set-word!",
	TypeGetWord:   "get-word!",
	TypeChain:     "chain!",
	TypeBlock:     "block!",
	TypeGroup:     "group!",
	TypeObject:    "object!",
	TypeModule:    "module!",
	TypeFrame:     "frame!",
	TypeAction:    "action!",
	TypeParameter: "parameter!",
	TypeDatatype:  "datatype!",
	TypeHandle:    "handle!",
	TypeError:     "error!",
}

func (h Heart) Name() string {
	if h >= MaxHeart {
		panicf("heart out of range: %d", h)
	}
	return heartNames[h]
}

// Lift byte encoding. A cell's lift describes its quoting/antiform state:
//
//	0         antiform (evaluation products only, never in array slots)
//	1         plain
//	2         quasiform (~value~)
//	1+2n, n>0 plain quoted n times
//	2+2n, n>0 quasiform quoted n times
//
// The heart+lift pair is self-describing: no outside context is ever needed
// to know what a cell is.
const (
	liftAntiform = 0
	liftPlain    = 1
	liftQuasi    = 2
)

// CellFlags carry orthogonal state in the header.
type CellFlags uint16

const (
	CellFlagConst CellFlags = 1 << iota
	CellFlagProtected
	CellFlagSealed        // paramlist slot hidden from the public interface
	CellFlagUnsurprising  // return slot observed type-stable across calls
	CellFlagNewlineBefore // scanner saw a line break before this value
)

// Cell is the universal value representation: a fixed-shape header plus a
// payload whose interpretation is fully determined by the heart. Cells are
// never individually heap-allocated as values in their own right; they live
// embedded in array stubs, frame slots, or Level scratch locals.
type Cell struct {
	heart Heart
	lift  byte
	flags CellFlags

	// Payload. Which fields mean anything is dictated by heart; the typed
	// accessors below are the only sanctioned way in.
	i64   int64
	f64   float64
	sym   *Symbol
	node  *Stub // primary node: array, text, context, details, handle
	extra *Stub // secondary node: word binding, action coupling
	index int   // series position, or datatype heart
}

func (c *Cell) Heart() Heart     { return c.heart }
func (c *Cell) LiftByte() byte   { return c.lift }
func (c *Cell) Flags() CellFlags { return c.flags }

func (c *Cell) SetFlag(f CellFlags)   { c.flags |= f }
func (c *Cell) ClearFlag(f CellFlags) { c.flags &^= f }
func (c *Cell) HasFlag(f CellFlags) bool {
	return c.flags&f != 0
}

func (c *Cell) IsAntiform() bool  { return c.lift == liftAntiform }
func (c *Cell) IsPlain() bool     { return c.lift == liftPlain }
func (c *Cell) IsQuasiform() bool { return c.lift == liftQuasi }
func (c *Cell) IsQuoted() bool    { return c.lift > liftQuasi }

// NumQuotes is the quoting depth above the plain or quasi base form.
func (c *Cell) NumQuotes() int {
	if c.lift <= liftQuasi {
		return 0
	}
	return int(c.lift-1) / 2
}

func (c *Cell) check(h Heart) {
	if c.heart != h {
		panicf("cell access: want %s, cell holds %s", h.Name(), c.heart.Name())
	}
}

// Corrupt poisons a logically dead cell so that stale reads trip an assert
// instead of silently misbehaving.
func (c *Cell) Corrupt() {
	*c = Cell{heart: TypeCorrupt}
}

func (c *Cell) assertLive() {
	if c.heart == TypeCorrupt {
		panicf("read of corrupt (dead) cell")
	}
}

// --- initializers -----------------------------------------------------

func (c *Cell) init(h Heart) *Cell {
	*c = Cell{heart: h, lift: liftPlain}
	return c
}

func (c *Cell) InitBlank() *Cell { return c.init(TypeBlank) }
func (c *Cell) InitComma() *Cell { return c.init(TypeComma) }

func (c *Cell) InitInteger(v int64) *Cell {
	c.init(TypeInteger)
	c.i64 = v
	return c
}

func (c *Cell) InitDecimal(v float64) *Cell {
	c.init(TypeDecimal)
	c.f64 = v
	return c
}

func (c *Cell) InitText(s *Stub, index int) *Cell {
	s.assertFlavor(FlavorText)
	c.init(TypeText)
	c.node = s
	c.index = index
	return c
}

func (c *Cell) InitTag(s *Stub) *Cell {
	s.assertFlavor(FlavorText)
	c.init(TypeTag)
	c.node = s
	return c
}

func (c *Cell) initAnyWord(h Heart, sym *Symbol) *Cell {
	c.init(h)
	c.sym = sym
	return c
}

func (c *Cell) InitWord(sym *Symbol) *Cell    { return c.initAnyWord(TypeWord, sym) }
func (c *Cell) InitSetWord(sym *Symbol) *Cell { return c.initAnyWord(TypeSetWord, sym) }
func (c *Cell) InitGetWord(sym *Symbol) *Cell { return c.initAnyWord(TypeGetWord, sym) }

// InitChain builds the word:refinement invocation form; a holds word cells,
// the first being the action name, the rest refinement names.
func (c *Cell) InitChain(a *Stub) *Cell {
	a.assertFlavor(FlavorArray)
	c.init(TypeChain)
	c.node = a
	return c
}

// chainParts splits a chain into its action symbol and refinement symbols.
func chainParts(c *Cell) (*Symbol, []*Symbol) {
	c.check(TypeChain)
	a := c.node
	first := a.ArrayAt(0).Sym()
	var refines []*Symbol
	for i := 1; i < a.ArrayLen(); i++ {
		refines = append(refines, a.ArrayAt(i).Sym())
	}
	return first, refines
}

func (c *Cell) initAnyList(h Heart, a *Stub, index int) *Cell {
	a.assertFlavor(FlavorArray)
	c.init(h)
	c.node = a
	c.index = index
	return c
}

func (c *Cell) InitBlock(a *Stub, index int) *Cell { return c.initAnyList(TypeBlock, a, index) }
func (c *Cell) InitGroup(a *Stub, index int) *Cell { return c.initAnyList(TypeGroup, a, index) }

func (c *Cell) InitObject(varlist *Stub) *Cell {
	varlist.assertFlavor(FlavorVarlist)
	c.init(TypeObject)
	c.node = varlist
	return c
}

func (c *Cell) InitModule(sea *Stub) *Cell {
	sea.assertFlavor(FlavorSea)
	c.init(TypeModule)
	c.node = sea
	return c
}

func (c *Cell) InitFrame(varlist *Stub) *Cell {
	varlist.assertFlavor(FlavorVarlist)
	c.init(TypeFrame)
	c.node = varlist
	return c
}

func (c *Cell) InitAction(details *Stub, coupling *Stub) *Cell {
	details.assertFlavor(FlavorDetails)
	c.init(TypeAction)
	c.node = details
	c.extra = coupling
	return c
}

func (c *Cell) InitParameter(p *Stub) *Cell {
	p.assertFlavor(FlavorParameter)
	c.init(TypeParameter)
	c.node = p
	return c
}

func (c *Cell) InitDatatype(h Heart) *Cell {
	c.init(TypeDatatype)
	c.index = int(h)
	return c
}

func (c *Cell) InitHandle(h *Stub) *Cell {
	h.assertFlavor(FlavorHandle)
	c.init(TypeHandle)
	c.node = h
	return c
}

func (c *Cell) InitError(varlist *Stub) *Cell {
	varlist.assertFlavor(FlavorVarlist)
	c.init(TypeError)
	c.node = varlist
	return c
}

// --- payload accessors (panic on heart mismatch) ----------------------

func (c *Cell) Int() int64 {
	c.assertLive()
	c.check(TypeInteger)
	return c.i64
}

func (c *Cell) Dec() float64 {
	c.assertLive()
	c.check(TypeDecimal)
	return c.f64
}

func (c *Cell) Sym() *Symbol {
	c.assertLive()
	if !IsWordLike(c.heart) {
		panicf("cell access: want a word heart, cell holds %s", c.heart.Name())
	}
	return c.sym
}

// Binding is the context a word cell resolves through, or nil if unbound.
func (c *Cell) Binding() *Stub {
	c.assertLive()
	if !IsWordLike(c.heart) {
		panicf("binding access on non-word %s", c.heart.Name())
	}
	return c.extra
}

func (c *Cell) SetBinding(ctx *Stub) {
	if !IsWordLike(c.heart) {
		panicf("bind of non-word %s", c.heart.Name())
	}
	c.extra = ctx
}

func (c *Cell) SeriesStub() *Stub {
	c.assertLive()
	switch c.heart {
	case TypeBlock, TypeGroup, TypeText, TypeTag:
		return c.node
	}
	panicf("series access on %s", c.heart.Name())
	return nil
}

func (c *Cell) SeriesIndex() int {
	c.assertLive()
	switch c.heart {
	case TypeBlock, TypeGroup, TypeText:
		return c.index
	}
	panicf("series index access on %s", c.heart.Name())
	return 0
}

func (c *Cell) ContextStub() *Stub {
	c.assertLive()
	switch c.heart {
	case TypeObject, TypeFrame, TypeError:
		return c.node
	case TypeModule:
		return c.node
	}
	panicf("context access on %s", c.heart.Name())
	return nil
}

func (c *Cell) DetailsStub() *Stub {
	c.assertLive()
	c.check(TypeAction)
	return c.node
}

// Coupling is the Level-lineage pointer installed when an action cell is
// instantiated inside a function body; definitional RETURN uses it to find
// its target frame.
func (c *Cell) Coupling() *Stub {
	c.assertLive()
	c.check(TypeAction)
	return c.extra
}

func (c *Cell) SetCoupling(s *Stub) {
	c.check(TypeAction)
	c.extra = s
}

func (c *Cell) ParamStub() *Stub {
	c.assertLive()
	c.check(TypeParameter)
	return c.node
}

func (c *Cell) DatatypeHeart() Heart {
	c.assertLive()
	c.check(TypeDatatype)
	return Heart(c.index)
}

func (c *Cell) HandleStub() *Stub {
	c.assertLive()
	c.check(TypeHandle)
	return c.node
}

// --- heart families ----------------------------------------------------

func IsWordLike(h Heart) bool {
	return h == TypeWord || h == TypeSetWord || h == TypeGetWord
}

func IsListLike(h Heart) bool {
	return h == TypeBlock || h == TypeGroup
}

func IsContextLike(h Heart) bool {
	return h == TypeObject || h == TypeModule || h == TypeFrame || h == TypeError
}

// --- quoting -----------------------------------------------------------

// Quote adds one level of quoting. Antiforms have no quoted form; lift them
// to quasiforms first (Liftify).
func (c *Cell) Quote() *Cell {
	if c.lift == liftAntiform {
		panicf("cannot quote an antiform")
	}
	c.lift += 2
	return c
}

func (c *Cell) Unquote() *Cell {
	if !c.IsQuoted() {
		panicf("unquote of unquoted cell")
	}
	c.lift -= 2
	return c
}

// Liftify is the meta operation: antiform -> quasiform, anything else gains
// a quote. Round-trips with Unliftify.
func (c *Cell) Liftify() *Cell {
	if c.lift == liftAntiform {
		c.lift = liftQuasi
		return c
	}
	c.lift += 2
	return c
}

func (c *Cell) Unliftify() *Cell {
	if c.lift == liftQuasi {
		c.lift = liftAntiform
		return c
	}
	if c.lift < 2 {
		panicf("unlift of non-lifted cell")
	}
	c.lift -= 2
	return c
}

// Quasify turns a plain value into its quasiform.
func (c *Cell) Quasify() *Cell {
	if c.lift != liftPlain {
		panicf("quasify of non-plain cell")
	}
	c.lift = liftQuasi
	return c
}

// Unquasify turns a quasiform into its plain shape.
func (c *Cell) Unquasify() *Cell {
	if c.lift != liftQuasi {
		panicf("unquasify of non-quasiform")
	}
	c.lift = liftPlain
	return c
}

// assertStorable bars antiforms from array slots; the array writers call it
// before committing a write. Evaluation slots (Level out/spare/scratch and
// frame variables) are exempt.
func assertStorable(c *Cell) {
	if c.IsAntiform() {
		panicf("antiform %s cannot be stored in an array slot", c.heart.Name())
	}
}
