package runtime

// ParamClass is the argument-gathering convention of one parameter.
type ParamClass byte

const (
	// ParamNormal: the argument expression is evaluated.
	ParamNormal ParamClass = iota

	// ParamSoft: taken literally, except a group argument is evaluated.
	// Spelled (arg) in the spec.
	ParamSoft

	// ParamThe: taken literally from the feed. Spelled 'arg.
	ParamThe

	// ParamJust: taken literally, and even escapes are not honored.
	// Spelled ''arg.
	ParamJust

	// ParamMeta: evaluated, then the result is passed in lifted form, so
	// antiforms (errors, packs) arrive inspectable. Spelled ~arg~.
	ParamMeta

	// ParamLocal: not an argument; a frame-local slot starting at trash.
	// Declared after <local>.
	ParamLocal

	// ParamReturn: the definitional-return slot; holds the constraint the
	// function's result must satisfy.
	ParamReturn
)

var paramClassNames = []string{
	"normal", "soft", "the", "just", "meta", "local", "return",
}

func (pc ParamClass) String() string { return paramClassNames[pc] }

// Parameter is one slot descriptor inside a paramlist: gathering class,
// a packed typeset for O(1) built-in checks, and an overflow list for
// constraints the bitset can't express.
type Parameter struct {
	Class      ParamClass
	Refinement bool // optional named argument, spelled :arg

	Typeset Typeset
	Checks  *Stub // array of literal/quasi/predicate constraint cells; nil if none

	// Unconstrained is set when the spec gave no type block at all; such
	// parameters accept any stable value (and ParamMeta ones accept
	// unstable antiforms too).
	Unconstrained bool
}

func paramOf(c *Cell) *Parameter {
	return c.ParamStub().param
}

// IsSpecialized reports whether a paramlist slot holds a concrete value
// rather than a parameter descriptor awaiting an argument.
func IsSpecialized(slot *Cell) bool {
	return !(slot.IsPlain() && slot.heart == TypeParameter)
}

// --- spec analysis -------------------------------------------------------

type specMode byte

const (
	specModeDefault specMode = iota
	specModeLocal
	specModeWith
)

// paramGather accumulates (symbol, parameter) pairs during spec analysis,
// before PopParamlist materializes them. Mirrors a data-stack push/pop
// protocol: order of appearance is the order of frame slots.
type paramGather struct {
	rt   *Runtime
	keys []*Symbol
	vals []Cell // parameter cells, or concrete cells for (init) locals

	adjunct     map[*Symbol]string
	description string

	mode         specMode
	returnerSeen bool
	pendingParam int // index into keys/vals of the param a block/text may annotate; -1 none
}

// PushKeysAndParams analyzes a function spec block into gathered keys and
// parameter descriptors.
//
// The spec grammar: a leading text is the function description; word-family
// tokens declare parameters with their gathering class; a block right after
// a parameter narrows its types; a text right after attaches help; <local>
// and <with> shift mode. When returner is non-nil (e.g. the RETURN: slot of
// FUNC, or YIELD: of a generator) that slot is pushed first and `return:`
// in the spec fills it; a second `return:` is a duplicate error; if it
// never appears the returner stays unconstrained.
func (rt *Runtime) PushKeysAndParams(spec []Cell, returner *Symbol) (*paramGather, error) {
	g := &paramGather{rt: rt, pendingParam: -1}

	if returner != nil {
		p := &Parameter{Class: ParamReturn, Typeset: typesetAll(), Unconstrained: true}
		g.pushParam(returner, p, true)
		g.pendingParam = -1 // return: in the spec re-targets it explicitly
	}

	for i := 0; i < len(spec); i++ {
		v := &spec[i]

		switch {
		case v.IsPlain() && v.heart == TypeText:
			if err := g.takeText(v); err != nil {
				return nil, err
			}

		case v.IsPlain() && v.heart == TypeTag:
			g.pendingParam = -1
			switch v.node.TextString() {
			case "local":
				g.mode = specModeLocal
			case "with":
				g.mode = specModeWith
			default:
				return nil, newError(ErrBadFuncDef, "unrecognized tag <"+v.node.TextString()+">")
			}

		case v.IsPlain() && v.heart == TypeBlock:
			if err := g.takeTypeBlock(v); err != nil {
				return nil, err
			}

		case v.IsPlain() && v.heart == TypeSetWord:
			// returner slot: RETURN: (or YIELD: etc.)
			if returner == nil || v.Sym() != returner {
				return nil, newError(ErrBadFuncDef, "stray set-word "+v.Sym().Text()+": in spec")
			}
			if g.returnerSeen {
				return nil, newError(ErrDupReturner, returner.Text())
			}
			g.returnerSeen = true
			g.pendingParam = 0 // slot 0 is the returner; a block may follow

		case v.IsPlain() && v.heart == TypeGroup && g.mode == specModeLocal && g.pendingParam >= 0:
			// one-shot initializer for the preceding local
			out, err := rt.RunGroupFully(v)
			if err != nil {
				return nil, err
			}
			g.vals[g.pendingParam] = out
			g.pendingParam = -1

		default:
			if err := g.takeWordLike(v); err != nil {
				return nil, err
			}
		}
	}
	return g, nil
}

func (g *paramGather) pushParam(sym *Symbol, p *Parameter, sealed bool) {
	g.keys = append(g.keys, sym)
	var c Cell
	c.InitParameter(g.rt.AllocParameter(p))
	if sealed {
		c.SetFlag(CellFlagSealed)
	}
	g.vals = append(g.vals, c)
	g.pendingParam = len(g.vals) - 1
}

func (g *paramGather) takeText(v *Cell) error {
	text := v.node.TextString()
	if g.pendingParam >= 0 {
		if g.adjunct == nil {
			g.adjunct = make(map[*Symbol]string)
		}
		g.adjunct[g.keys[g.pendingParam]] = text
		g.pendingParam = -1
		return nil
	}
	if len(g.keys) == 0 || (len(g.keys) == 1 && g.vals[0].HasFlag(CellFlagSealed)) {
		g.description = text
		return nil
	}
	return newError(ErrBadFuncDef, "text not attached to any parameter")
}

func (g *paramGather) takeTypeBlock(v *Cell) error {
	if g.pendingParam < 0 {
		return newError(ErrBadFuncDef, "type block not immediately following a parameter")
	}
	slot := &g.vals[g.pendingParam]
	if slot.heart != TypeParameter {
		return newError(ErrBadFuncDef, "type block after an initialized local")
	}
	p := paramOf(slot)
	if p.Class == ParamLocal {
		return newError(ErrBadFuncDef, "locals take no type block")
	}
	arr := v.SeriesStub()
	ts, checks, err := g.rt.parseTypeConstraints(arr.cells[v.SeriesIndex():])
	if err != nil {
		return err
	}
	p.Typeset = ts
	p.Checks = checks
	p.Unconstrained = false
	g.pendingParam = -1
	return nil
}

func (g *paramGather) takeWordLike(v *Cell) error {
	var sym *Symbol
	var class ParamClass
	refinement := false

	switch {
	case v.IsPlain() && v.heart == TypeWord:
		sym, class = v.Sym(), ParamNormal
	case v.IsPlain() && v.heart == TypeGetWord:
		sym, class, refinement = v.Sym(), ParamNormal, true
	case v.IsQuoted() && v.heart == TypeWord && v.NumQuotes() == 1:
		sym, class = v.Sym(), ParamThe
	case v.IsQuoted() && v.heart == TypeWord && v.NumQuotes() == 2:
		sym, class = v.Sym(), ParamJust
	case v.IsQuasiform() && v.heart == TypeWord:
		sym, class = v.Sym(), ParamMeta
	case v.IsPlain() && v.heart == TypeGroup:
		inner := v.SeriesStub()
		at := v.SeriesIndex()
		if inner.ArrayLen()-at != 1 || inner.ArrayAt(at).heart != TypeWord {
			return newError(ErrBadFuncDef, "soft parameter group must hold one word")
		}
		sym, class = inner.ArrayAt(at).Sym(), ParamSoft
	default:
		return newError(ErrBadFuncDef, "unrecognized spec element "+v.heart.Name())
	}

	switch g.mode {
	case specModeLocal:
		if class != ParamNormal || refinement {
			return newError(ErrBadFuncDef, "locals must be plain words")
		}
		p := &Parameter{Class: ParamLocal}
		g.pushParam(sym, p, true)
		return nil

	case specModeWith:
		// commentary only: the name must already be bound somewhere.
		if v.Binding() == nil && g.rt.LibSlot(sym) == nil {
			return newError(ErrBadFuncDef, "<with> word "+sym.Text()+" is not bound")
		}
		g.pendingParam = -1
		return nil
	}

	p := &Parameter{Class: class, Refinement: refinement, Typeset: typesetAll(), Unconstrained: true}
	g.pushParam(sym, p, false)
	return nil
}

// PopParamlist materializes the gathered pairs into a frozen-shape
// paramlist (a varlist whose rootvar is a frame archetype and whose slots
// are parameter descriptors). Duplicate parameter names are detected with a
// scoped binder; sealed slots don't collide with a later public use of the
// same name, which lets specialization layer a fresh public parameter over
// a sealed one.
func (rt *Runtime) PopParamlist(g *paramGather) (*Stub, error) {
	binder := make(map[*Symbol]bool, len(g.keys))
	for i, sym := range g.keys {
		if g.vals[i].HasFlag(CellFlagSealed) && g.vals[i].heart == TypeParameter &&
			paramOf(&g.vals[i]).Class == ParamReturn {
			continue // the returner's name may be reused publicly
		}
		if binder[sym] {
			return nil, newError(ErrDupVars, sym.Text())
		}
		binder[sym] = true
	}

	paramlist := rt.AllocVarlist(len(g.keys))
	initRootvar(paramlist, TypeFrame)
	keylist := rt.AllocKeylist(len(g.keys))
	keylist.keys = append(keylist.keys, g.keys...)
	Manage(keylist)
	paramlist.setKeylist(keylist)
	for i := range g.vals {
		paramlist.cells = append(paramlist.cells, g.vals[i])
	}
	if g.description != "" {
		if g.adjunct == nil {
			g.adjunct = make(map[*Symbol]string, 1)
		}
		g.adjunct[nil] = g.description
	}
	paramlist.adjunct = g.adjunct
	return Manage(paramlist), nil
}

// Description is the leading help text of the spec, empty when none was
// given. It rides in the adjunct map under the nil key, next to the
// per-parameter help strings.
func Description(paramlist *Stub) string {
	paramlist.assertFlavor(FlavorVarlist)
	return paramlist.adjunct[nil]
}

// ParamHelp is the help text attached to one parameter, empty when none.
func ParamHelp(paramlist *Stub, sym *Symbol) string {
	paramlist.assertFlavor(FlavorVarlist)
	return paramlist.adjunct[sym]
}

// MakeParamlist runs the full spec analysis pipeline.
func (rt *Runtime) MakeParamlist(spec []Cell, returner *Symbol) (*Stub, error) {
	g, err := rt.PushKeysAndParams(spec, returner)
	if err != nil {
		return nil, err
	}
	return rt.PopParamlist(g)
}

// NumParams counts externally visible (unsealed) parameters.
func NumParams(paramlist *Stub) int {
	n := 0
	for i := 1; i <= paramlist.VarlistLen(); i++ {
		slot := paramlist.VarAt(i)
		if slot.heart == TypeParameter && !slot.HasFlag(CellFlagSealed) {
			n++
		}
	}
	return n
}

// FirstUnspecialized gives the first gatherable parameter, used to cache
// the literal-first calling convention.
func FirstUnspecialized(paramlist *Stub) *Parameter {
	for i := 1; i <= paramlist.VarlistLen(); i++ {
		slot := paramlist.VarAt(i)
		if slot.heart == TypeParameter && !slot.HasFlag(CellFlagSealed) {
			return paramOf(slot)
		}
	}
	return nil
}
