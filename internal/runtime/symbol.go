package runtime

import (
	"strings"

	"github.com/segmentio/fasthash/fnv1a"
)

// Symbol is an interned word spelling. Interning is per-Runtime; two words
// with the same (case-folded) spelling share one Symbol, so identity
// comparison is pointer comparison. Symbols are frozen for the life of the
// runtime and are never swept: module variables hang their patch chains off
// them (see SeaOfVars), and the premade lib patches live until shutdown.
type Symbol struct {
	text  string // first spelling seen, preserved for mold
	canon string // case-folded spelling used for identity
	hash  uint64

	// hitch is the circularly linked chain of sea-of-vars patches declaring
	// this symbol, one per module. Nil when no module defines it.
	hitch *Stub

	next *Symbol // intern bucket chain
}

func (s *Symbol) Text() string { return s.text }
func (s *Symbol) Hash() uint64 { return s.hash }

// SymbolTable interns spellings. Buckets are keyed by fnv1a of the folded
// spelling; collisions chain through Symbol.next.
type SymbolTable struct {
	buckets map[uint64]*Symbol
	count   int
}

func NewSymbolTable(sizeHint int) *SymbolTable {
	if sizeHint <= 0 {
		sizeHint = 256
	}
	return &SymbolTable{buckets: make(map[uint64]*Symbol, sizeHint)}
}

func (st *SymbolTable) Len() int { return st.count }

// Intern returns the unique Symbol for spelling, creating it on first use.
// Word spellings compare case-insensitively; the first-seen casing is kept
// as the canonical text for output.
func (st *SymbolTable) Intern(spelling string) *Symbol {
	canon := strings.ToLower(spelling)
	h := fnv1a.HashString64(canon)
	for s := st.buckets[h]; s != nil; s = s.next {
		if s.canon == canon {
			return s
		}
	}
	s := &Symbol{text: spelling, canon: canon, hash: h, next: st.buckets[h]}
	st.buckets[h] = s
	st.count++
	return s
}

// TryIntern returns the Symbol for spelling only if already interned.
func (st *SymbolTable) TryIntern(spelling string) *Symbol {
	canon := strings.ToLower(spelling)
	h := fnv1a.HashString64(canon)
	for s := st.buckets[h]; s != nil; s = s.next {
		if s.canon == canon {
			return s
		}
	}
	return nil
}
