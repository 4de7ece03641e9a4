package runtime

import (
	"math"
	"math/rand"
)

// Math verbs route through generic dispatch: the native owns the interface,
// the per-heart implementations own the arithmetic. Commutative verbs
// normalize operand order first so mixed integer/decimal pairs always land
// on the decimal implementation.

func (rt *Runtime) installMathNatives() {
	binary := func(name string, commutative bool) {
		verb := name
		rt.registerNative(nativeDef{
			name: name,
			spec: `"arithmetic on two values, dispatched on datatype"
				value1 [any-number?] value2 [any-number?]`,
			run: func(rt *Runtime, L *Level) (Bounce, error) {
				if commutative {
					normalizeCommutative(L)
				}
				return rt.RunGenericDispatch(verb, L)
			},
		})
	}
	binary("add", true)
	binary("multiply", true)
	binary("subtract", false)
	binary("divide", false)

	compare := func(name string) {
		verb := name
		rt.registerNative(nativeDef{
			name: name,
			spec: `"order comparison, dispatched on the first datatype"
				value1 value2`,
			run: func(rt *Runtime, L *Level) (Bounce, error) {
				return rt.RunGenericDispatch(verb, L)
			},
		})
	}
	compare("lesser?")
	compare("greater?")

	rt.registerNative(nativeDef{
		name: "negate",
		spec: `"the additive inverse"
			value [any-number?]`,
		run: func(rt *Runtime, L *Level) (Bounce, error) {
			return rt.RunGenericDispatch("negate", L)
		},
	})
	rt.registerNative(nativeDef{
		name: "random",
		spec: `"a uniform random number up to max, or a shuffle of a series"
			value [integer! decimal! text! block!]`,
		run: func(rt *Runtime, L *Level) (Bounce, error) {
			return rt.RunGenericDispatch("random", L)
		},
	})
}

func (rt *Runtime) installGenerics() {
	rt.ImplementGeneric("add", TypeInteger, func(rt *Runtime, L *Level) (Bounce, error) {
		a, b := L.Arg(1).Int(), L.Arg(2).Int()
		sum := a + b
		if (sum > a) != (b > 0) {
			return BounceOut, newError(ErrMathOverflow)
		}
		L.Out.InitInteger(sum)
		return BounceOut, nil
	})
	rt.ImplementGeneric("add", TypeDecimal, func(rt *Runtime, L *Level) (Bounce, error) {
		L.Out.InitDecimal(decOf(L.Arg(1)) + decOf(L.Arg(2)))
		return BounceOut, nil
	})

	rt.ImplementGeneric("multiply", TypeInteger, func(rt *Runtime, L *Level) (Bounce, error) {
		a, b := L.Arg(1).Int(), L.Arg(2).Int()
		if a != 0 && b != 0 {
			prod := a * b
			if prod/a != b {
				return BounceOut, newError(ErrMathOverflow)
			}
			L.Out.InitInteger(prod)
			return BounceOut, nil
		}
		L.Out.InitInteger(0)
		return BounceOut, nil
	})
	rt.ImplementGeneric("multiply", TypeDecimal, func(rt *Runtime, L *Level) (Bounce, error) {
		L.Out.InitDecimal(decOf(L.Arg(1)) * decOf(L.Arg(2)))
		return BounceOut, nil
	})

	rt.ImplementGeneric("subtract", TypeInteger, func(rt *Runtime, L *Level) (Bounce, error) {
		b := L.Arg(2)
		if b.heart == TypeDecimal {
			L.Out.InitDecimal(decOf(L.Arg(1)) - b.Dec())
			return BounceOut, nil
		}
		x, y := L.Arg(1).Int(), b.Int()
		diff := x - y
		if (diff < x) != (y > 0) {
			return BounceOut, newError(ErrMathOverflow)
		}
		L.Out.InitInteger(diff)
		return BounceOut, nil
	})
	rt.ImplementGeneric("subtract", TypeDecimal, func(rt *Runtime, L *Level) (Bounce, error) {
		L.Out.InitDecimal(decOf(L.Arg(1)) - decOf(L.Arg(2)))
		return BounceOut, nil
	})

	rt.ImplementGeneric("divide", TypeInteger, func(rt *Runtime, L *Level) (Bounce, error) {
		b := L.Arg(2)
		if b.heart == TypeDecimal {
			if b.Dec() == 0 {
				return BounceOut, newError(ErrZeroDivide)
			}
			L.Out.InitDecimal(decOf(L.Arg(1)) / b.Dec())
			return BounceOut, nil
		}
		x, y := L.Arg(1).Int(), b.Int()
		if y == 0 {
			return BounceOut, newError(ErrZeroDivide)
		}
		if x == math.MinInt64 && y == -1 {
			return BounceOut, newError(ErrMathOverflow)
		}
		if x%y == 0 {
			L.Out.InitInteger(x / y)
		} else {
			L.Out.InitDecimal(float64(x) / float64(y))
		}
		return BounceOut, nil
	})
	rt.ImplementGeneric("divide", TypeDecimal, func(rt *Runtime, L *Level) (Bounce, error) {
		d := decOf(L.Arg(2))
		if d == 0 {
			return BounceOut, newError(ErrZeroDivide)
		}
		L.Out.InitDecimal(L.Arg(1).Dec() / d)
		return BounceOut, nil
	})

	rt.ImplementGeneric("negate", TypeInteger, func(rt *Runtime, L *Level) (Bounce, error) {
		v := L.Arg(1).Int()
		if v == math.MinInt64 {
			return BounceOut, newError(ErrMathOverflow)
		}
		L.Out.InitInteger(-v)
		return BounceOut, nil
	})
	rt.ImplementGeneric("negate", TypeDecimal, func(rt *Runtime, L *Level) (Bounce, error) {
		L.Out.InitDecimal(-L.Arg(1).Dec())
		return BounceOut, nil
	})

	rt.ImplementGeneric("lesser?", TypeInteger, lesserNumeric)
	rt.ImplementGeneric("lesser?", TypeDecimal, lesserNumeric)
	rt.ImplementGeneric("lesser?", TypeText, func(rt *Runtime, L *Level) (Bounce, error) {
		b := L.Arg(2)
		if !(b.IsPlain() && b.heart == TypeText) {
			return BounceOut, newError(ErrBadCast, b.heart.Name(), "text! to compare")
		}
		rt.InitLogic(L.Out, L.Arg(1).node.TextString() < b.node.TextString())
		return BounceOut, nil
	})

	rt.ImplementGeneric("greater?", TypeInteger, greaterNumeric)
	rt.ImplementGeneric("greater?", TypeDecimal, greaterNumeric)
	rt.ImplementGeneric("greater?", TypeText, func(rt *Runtime, L *Level) (Bounce, error) {
		b := L.Arg(2)
		if !(b.IsPlain() && b.heart == TypeText) {
			return BounceOut, newError(ErrBadCast, b.heart.Name(), "text! to compare")
		}
		rt.InitLogic(L.Out, L.Arg(1).node.TextString() > b.node.TextString())
		return BounceOut, nil
	})

	// EQUAL? routes here before the cell-sameness fallback. Mismatched
	// hearts answer false rather than erroring: equality is a question,
	// not a demand.
	equalNumeric := func(rt *Runtime, L *Level) (Bounce, error) {
		rt.InitLogic(L.Out, valuesEquivalent(L.Arg(1), L.Arg(2)))
		return BounceOut, nil
	}
	rt.ImplementGeneric("equal?", TypeInteger, equalNumeric)
	rt.ImplementGeneric("equal?", TypeDecimal, equalNumeric)
	rt.ImplementGeneric("equal?", TypeText, func(rt *Runtime, L *Level) (Bounce, error) {
		rt.InitLogic(L.Out, cellsEqual(L.Arg(1), L.Arg(2)))
		return BounceOut, nil
	})
	equalList := func(rt *Runtime, L *Level) (Bounce, error) {
		rt.InitLogic(L.Out, listsEqual(L.Arg(1), L.Arg(2)))
		return BounceOut, nil
	}
	rt.ImplementGeneric("equal?", TypeBlock, equalList)
	rt.ImplementGeneric("equal?", TypeGroup, equalList)

	rt.ImplementGeneric("random", TypeInteger, randomInteger)
	rt.ImplementGeneric("random", TypeDecimal, randomDecimal)
	rt.ImplementGeneric("random", TypeText, randomText)
	rt.ImplementGeneric("random", TypeBlock, randomBlock)

	// every heart molds through the registry, one engine behind them all
	for h := TypeBlank; h < MaxHeart; h++ {
		rt.ImplementGeneric("moldify", h, moldifyDefault)
	}
}

func lesserNumeric(rt *Runtime, L *Level) (Bounce, error) {
	if err := wantNumeric(L.Arg(2)); err != nil {
		return BounceOut, err
	}
	rt.InitLogic(L.Out, decOf(L.Arg(1)) < decOf(L.Arg(2)))
	return BounceOut, nil
}

func greaterNumeric(rt *Runtime, L *Level) (Bounce, error) {
	if err := wantNumeric(L.Arg(2)); err != nil {
		return BounceOut, err
	}
	rt.InitLogic(L.Out, decOf(L.Arg(1)) > decOf(L.Arg(2)))
	return BounceOut, nil
}

func wantNumeric(c *Cell) error {
	if c.IsPlain() && (c.heart == TypeInteger || c.heart == TypeDecimal) {
		return nil
	}
	return newError(ErrBadCast, c.heart.Name(), "a number to compare")
}

// decOf widens either numeric heart to float64 for mixed arithmetic.
func decOf(c *Cell) float64 {
	if c.heart == TypeInteger {
		return float64(c.i64)
	}
	return c.Dec()
}

func randomInteger(rt *Runtime, L *Level) (Bounce, error) {
	max := L.Arg(1).Int()
	if max <= 0 {
		return BounceOut, newError(ErrPastEnd)
	}
	L.Out.InitInteger(rand.Int63n(max) + 1)
	return BounceOut, nil
}

func randomDecimal(rt *Runtime, L *Level) (Bounce, error) {
	max := L.Arg(1).Dec()
	if max <= 0 {
		return BounceOut, newError(ErrPastEnd)
	}
	L.Out.InitDecimal(rand.Float64() * max)
	return BounceOut, nil
}

// randomText shuffles the string's bytes in place and returns the series.
func randomText(rt *Runtime, L *Level) (Bounce, error) {
	s := L.Arg(1).node
	s.ensureMutable()
	b := s.bytes
	rand.Shuffle(len(b), func(i, j int) {
		b[i], b[j] = b[j], b[i]
	})
	*L.Out = *L.Arg(1)
	return BounceOut, nil
}

// randomBlock shuffles the cells from the block's index onward, in place.
func randomBlock(rt *Runtime, L *Level) (Bounce, error) {
	c := L.Arg(1)
	s := c.SeriesStub()
	s.ensureMutable()
	cells := s.cells[c.SeriesIndex():]
	rand.Shuffle(len(cells), func(i, j int) {
		cells[i], cells[j] = cells[j], cells[i]
	})
	*L.Out = *c
	return BounceOut, nil
}
