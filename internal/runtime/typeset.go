package runtime

// Typeset is a compact bitset of built-in hearts, giving O(1) membership
// for the common case of parameter type constraints. Constraints that
// aren't plain datatypes (quoted literals, quasiforms, predicate actions,
// nested AND/OR lists) overflow into Parameter.Checks.
type Typeset uint64

func (ts Typeset) Has(h Heart) bool {
	return ts&(1<<uint(h)) != 0
}

func (ts *Typeset) Add(h Heart) {
	*ts |= 1 << uint(h)
}

func (ts Typeset) Empty() bool { return ts == 0 }

// typesetAll admits every plain heart (the unconstrained parameter).
func typesetAll() Typeset {
	var ts Typeset
	for h := TypeBlank; h < MaxHeart; h++ {
		ts.Add(h)
	}
	return ts
}

// Named typeset groups usable in spec blocks, e.g. any-word?/any-list?.
// These mirror the heart families.
var typesetGroups = map[string]Typeset{
	"any-word?":    wordTypeset(),
	"any-list?":    listTypeset(),
	"any-context?": contextTypeset(),
	"any-value?":   typesetAll(),
	"any-number?":  numberTypeset(),
}

func wordTypeset() Typeset {
	var ts Typeset
	ts.Add(TypeWord)
	ts.Add(TypeSetWord)
	ts.Add(TypeGetWord)
	return ts
}

func listTypeset() Typeset {
	var ts Typeset
	ts.Add(TypeBlock)
	ts.Add(TypeGroup)
	return ts
}

func contextTypeset() Typeset {
	var ts Typeset
	ts.Add(TypeObject)
	ts.Add(TypeModule)
	ts.Add(TypeFrame)
	ts.Add(TypeError)
	return ts
}

func numberTypeset() Typeset {
	var ts Typeset
	ts.Add(TypeInteger)
	ts.Add(TypeDecimal)
	return ts
}

// heartFromTypeName resolves a word like integer! to its heart, or
// MaxHeart when the word isn't a built-in datatype name.
func heartFromTypeName(name string) Heart {
	for h := TypeBlank; h < MaxHeart; h++ {
		if heartNames[h] == name {
			return h
		}
	}
	return MaxHeart
}
