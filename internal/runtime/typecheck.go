package runtime

import "strings"

// Type constraint blocks compile into two layers: a Typeset bitset covering
// plain datatype names and named groups (checked in O(1)), plus an overflow
// array of constraint cells for everything richer. The overflow grammar:
//
//	'value        literal match (the argument must equal the quoted value)
//	~word~        antiform keyword match (~null~, ~okay~, ~trash~, ~void~)
//	word?         predicate action applied to the argument; truthy admits
//	[a b ...]     any-of: at least one inner constraint must admit
//	(a b ...)     all-of: every inner constraint must admit
func (rt *Runtime) parseTypeConstraints(cells []Cell) (Typeset, *Stub, error) {
	var ts Typeset
	var checks *Stub

	overflow := func(c *Cell) {
		if checks == nil {
			checks = rt.AllocArray(4)
		}
		checks.appendRaw(c)
	}

	for i := range cells {
		v := &cells[i]
		switch {
		case v.IsPlain() && v.heart == TypeWord:
			name := v.Sym().Text()
			if h := heartFromTypeName(name); h != MaxHeart {
				ts.Add(h)
				continue
			}
			if group, ok := typesetGroups[name]; ok {
				ts |= group
				continue
			}
			if strings.HasSuffix(name, "?") {
				overflow(v)
				continue
			}
			return 0, nil, newError(ErrBadFuncDef, name+" is not a datatype or predicate")

		case v.IsPlain() && v.heart == TypeDatatype:
			ts.Add(v.DatatypeHeart())

		case v.IsQuoted():
			overflow(v)

		case v.IsQuasiform():
			overflow(v)

		case v.IsPlain() && (v.heart == TypeBlock || v.heart == TypeGroup):
			overflow(v)

		default:
			return 0, nil, newError(ErrBadFuncDef, "unusable type constraint "+v.heart.Name())
		}
	}

	if checks != nil {
		checks.Freeze()
		Manage(checks)
	}
	return ts, checks, nil
}

// TypecheckCellAgainstParam reports whether v satisfies p. The bitset and
// the overflow constraints are alternatives: membership in either admits.
func (rt *Runtime) TypecheckCellAgainstParam(p *Parameter, v *Cell) (bool, error) {
	if p.Unconstrained {
		return true, nil
	}
	if v.lift == liftAntiform && v.heart == TypeAction {
		// actions are deactivated before testing, so an action! constraint
		// admits them with no chance of the test running the action
		unrun := *v
		unrun.lift = liftPlain
		v = &unrun
	}
	if v.IsPlain() && p.Typeset.Has(v.heart) {
		return true, nil
	}
	if p.Checks == nil {
		return false, nil
	}
	for i := 0; i < p.Checks.ArrayLen(); i++ {
		ok, err := rt.runConstraint(p.Checks.ArrayAt(i), v)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

func (rt *Runtime) runConstraint(check *Cell, v *Cell) (bool, error) {
	switch {
	case check.IsQuasiform() && check.heart == TypeWord:
		switch check.Sym().canon {
		case spellingNull:
			return IsNull(v), nil
		case spellingOkay:
			return IsOkay(v), nil
		case spellingTrash:
			return IsTrash(v), nil
		}
		return false, newError(ErrBadFuncDef, "unknown antiform constraint ~"+check.Sym().Text()+"~")

	case check.IsQuasiform() && check.heart == TypeBlank:
		return IsVoid(v), nil

	case check.IsQuoted():
		lit := *check
		lit.Unquote()
		return cellsEqual(&lit, v), nil

	case check.IsPlain() && check.heart == TypeWord:
		return rt.runPredicate(check, v)

	case check.IsPlain() && check.heart == TypeBlock:
		arr := check.SeriesStub()
		for i := check.SeriesIndex(); i < arr.ArrayLen(); i++ {
			ok, err := rt.runConstraint(arr.ArrayAt(i), v)
			if err != nil || ok {
				return ok, err
			}
		}
		return false, nil

	case check.IsPlain() && check.heart == TypeGroup:
		arr := check.SeriesStub()
		for i := check.SeriesIndex(); i < arr.ArrayLen(); i++ {
			ok, err := rt.runConstraint(arr.ArrayAt(i), v)
			if err != nil || !ok {
				return ok, err
			}
		}
		return true, nil
	}
	return false, newError(ErrBadFuncDef, "unusable type constraint "+check.heart.Name())
}

// runPredicate applies a predicate word (matcher? style) to v. Predicates
// with an intrinsic skip Level construction entirely; others run through a
// nested trampoline. A predicate answering void is a defect in the
// predicate, reported as such rather than treated as false.
func (rt *Runtime) runPredicate(word *Cell, v *Cell) (bool, error) {
	slot, ok := rt.lookupCellWord(word, nil)
	if !ok {
		return false, newError(ErrNoValue, word.Sym().Text())
	}
	if !(slot.IsPlain() && slot.heart == TypeAction) {
		return false, newError(ErrBadPredicate, word.Sym().Text())
	}

	details := slot.DetailsStub()
	var out Cell
	if details.intrinsic != nil {
		if err := details.intrinsic(rt, v, &out); err != nil {
			return false, err
		}
	} else {
		if err := rt.ApplyAction(slot, word.Sym(), []Cell{*v}, &out); err != nil {
			return false, err
		}
	}
	if IsVoid(&out) {
		return false, newError(ErrBadPredicate, word.Sym().Text())
	}
	return Truthy(&out)
}

// cellsEqual is the shallow sameness used by literal constraints and SWITCH:
// equal hearts and lifts, with payload identity for series and contexts
// (literal constraints compare the thing itself, not a deep copy).
func cellsEqual(a, b *Cell) bool {
	if a.heart != b.heart || a.lift != b.lift {
		return false
	}
	switch a.heart {
	case TypeBlank, TypeComma:
		return true
	case TypeInteger:
		return a.i64 == b.i64
	case TypeDecimal:
		return a.f64 == b.f64
	case TypeWord, TypeSetWord, TypeGetWord:
		return a.sym == b.sym
	case TypeText, TypeTag:
		return string(a.node.TextBytes()) == string(b.node.TextBytes())
	case TypeDatatype:
		return a.index == b.index
	default:
		return a.node == b.node && a.index == b.index
	}
}

// valuesEquivalent is cellsEqual with the numeric hearts widened, so 1 and
// 1.0 answer equal the way EQUAL? promises.
func valuesEquivalent(a, b *Cell) bool {
	if a.IsPlain() && b.IsPlain() {
		if a.heart == TypeInteger && b.heart == TypeDecimal {
			return float64(a.i64) == b.f64
		}
		if a.heart == TypeDecimal && b.heart == TypeInteger {
			return a.f64 == float64(b.i64)
		}
	}
	return cellsEqual(a, b)
}

// listsEqual compares two lists structurally: same heart and lift, same
// length, pairwise-equivalent elements, recursing into nested lists. Sharing
// the same array at the same index short-circuits.
func listsEqual(a, b *Cell) bool {
	if a.heart != b.heart || a.lift != b.lift {
		return false
	}
	as, bs := a.SeriesStub(), b.SeriesStub()
	ai, bi := a.SeriesIndex(), b.SeriesIndex()
	if as == bs && ai == bi {
		return true
	}
	if as.ArrayLen()-ai != bs.ArrayLen()-bi {
		return false
	}
	for k := 0; k < as.ArrayLen()-ai; k++ {
		x, y := as.ArrayAt(ai+k), bs.ArrayAt(bi+k)
		if x.IsPlain() && (x.heart == TypeBlock || x.heart == TypeGroup) {
			if !listsEqual(x, y) {
				return false
			}
			continue
		}
		if !valuesEquivalent(x, y) {
			return false
		}
	}
	return true
}

// Describe renders the constraint for error messages: the datatype names in
// the bitset, with a hint when overflow constraints exist.
func (p *Parameter) Describe() string {
	if p.Unconstrained {
		return "any value"
	}
	var names []string
	for h := TypeBlank; h < MaxHeart; h++ {
		if p.Typeset.Has(h) {
			names = append(names, heartNames[h])
		}
	}
	if len(names) > 4 {
		names = append(names[:4], "...")
	}
	if p.Checks != nil {
		names = append(names, "(or a constrained form)")
	}
	if len(names) == 0 {
		return "a constrained value"
	}
	return strings.Join(names, " ")
}
