package runtime

// CollectFlags steer what the collector picks up and how strict it is.
type CollectFlags uint16

const (
	// CollectOnlySetWords: only word: forms declare variables (the default
	// object-construction rule). Without it, any word-like value counts.
	CollectOnlySetWords CollectFlags = 1 << iota

	// CollectDeep: recurse into nested blocks and groups.
	CollectDeep

	// CollectNoDup: a settable word seen twice (outside keys preloaded from
	// the parent) is a duplicate-variable error instead of a no-op.
	CollectNoDup
)

// Collector gathers unique symbols from a value range into a stable
// 1-based index order, for building contexts and paramlists. The binder is
// scoped to the collector; parent keys are preloaded so they keep their
// original indices and count as "already present" for duplicate checks.
type Collector struct {
	rt     *Runtime
	flags  CollectFlags
	binder map[*Symbol]int
	syms   []*Symbol // insertion order; index i lives at syms[i-1]

	preloaded int // how many indices came from the parent
}

// ConstructCollector initializes the scoped symbol->index binder. A
// VarList parent preloads its keys; a SeaOfVars parent preloads nothing
// (sea lookup happens by hitch-chain walking at use time, so its names
// aren't a fixed set worth indexing).
func (rt *Runtime) ConstructCollector(flags CollectFlags, parent *Stub) *Collector {
	col := &Collector{rt: rt, flags: flags, binder: make(map[*Symbol]int)}
	if parent != nil && parent.flavor == FlavorVarlist {
		keylist := parent.Keylist()
		for i := 0; i < keylist.KeysLen(); i++ {
			sym := keylist.KeyAt(i)
			col.binder[sym] = i + 1
			col.syms = append(col.syms, sym)
		}
		col.preloaded = keylist.KeysLen()
	}
	return col
}

// Index gives sym's collected 1-based index, or 0.
func (col *Collector) Index(sym *Symbol) int {
	return col.binder[sym]
}

// Len is the total number of collected symbols, parent keys included.
func (col *Collector) Len() int { return len(col.syms) }

// Push assigns the next sequential index to sym. Returns false if already
// present.
func (col *Collector) Push(sym *Symbol) bool {
	if _, dup := col.binder[sym]; dup {
		return false
	}
	col.syms = append(col.syms, sym)
	col.binder[sym] = len(col.syms)
	return true
}

// CollectInnerLoop walks the range, assigning indices to settable words in
// order of first appearance. Duplicates against the parent's preloaded keys
// are always tolerated (they already have an index); duplicates within the
// newly collected set fail when CollectNoDup is set.
func (col *Collector) CollectInnerLoop(body []Cell) error {
	for i := range body {
		v := &body[i]
		if !v.IsPlain() {
			continue // quoted/quasi forms never declare variables
		}
		switch v.heart {
		case TypeSetWord:
			if err := col.collectWord(v.Sym()); err != nil {
				return err
			}
		case TypeWord, TypeGetWord:
			if col.flags&CollectOnlySetWords == 0 {
				if err := col.collectWord(v.Sym()); err != nil {
					return err
				}
			}
		case TypeBlock, TypeGroup:
			if col.flags&CollectDeep != 0 {
				sub := v.SeriesStub()
				if err := col.CollectInnerLoop(sub.cells[v.SeriesIndex():]); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (col *Collector) collectWord(sym *Symbol) error {
	if idx, present := col.binder[sym]; present {
		if idx <= col.preloaded {
			return nil // inherited key, keeps its original index
		}
		if col.flags&CollectNoDup != 0 {
			return newError(ErrDupVars, sym.Text())
		}
		return nil
	}
	col.Push(sym)
	return nil
}
