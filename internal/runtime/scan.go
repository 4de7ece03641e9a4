package runtime

import (
	"fmt"
	"strconv"
	"strings"
)

// Scan turns source text into an array of cells, the load-time half of the
// evaluator. The scanner produces plain data: words, set/get-words, chains,
// numbers, text, tags, blocks, groups, quoted and quasi forms. Nothing is
// bound or evaluated here.
func (rt *Runtime) Scan(source string) (*Stub, error) {
	sc := &scanner{rt: rt, src: source, line: 1}
	arr, err := sc.scanArray(0)
	if err != nil {
		return nil, err
	}
	return arr, nil
}

type scanner struct {
	rt   *Runtime
	src  string
	pos  int
	line int

	sawNewline bool // a line break occurred since the last emitted value
}

func (sc *scanner) failf(format string, args ...any) error {
	return newError(ErrScan, fmt.Sprintf(format, args...)+
		fmt.Sprintf(" (line %d)", sc.line))
}

func (sc *scanner) atEnd() bool { return sc.pos >= len(sc.src) }

func (sc *scanner) peek() byte { return sc.src[sc.pos] }

func (sc *scanner) skipFiller() {
	for !sc.atEnd() {
		switch sc.peek() {
		case ' ', '\t', '\r':
			sc.pos++
		case '\n':
			sc.sawNewline = true
			sc.line++
			sc.pos++
		case ';':
			for !sc.atEnd() && sc.peek() != '\n' {
				sc.pos++
			}
		default:
			return
		}
	}
}

// scanArray reads values until terminator (']' or ')'; 0 means end of
// input). The returned array is managed but not yet reachable from any
// root, so callers guard it or wire it in before the next collection.
func (sc *scanner) scanArray(terminator byte) (*Stub, error) {
	arr := sc.rt.AllocArray(8)
	for {
		sc.skipFiller()
		if sc.atEnd() {
			if terminator != 0 {
				return nil, sc.failf("missing closing %q", string(terminator))
			}
			return Manage(arr), nil
		}
		if terminator != 0 && sc.peek() == terminator {
			sc.pos++
			return Manage(arr), nil
		}
		if sc.peek() == ']' || sc.peek() == ')' {
			return nil, sc.failf("unexpected %q", string(sc.peek()))
		}

		newline := sc.sawNewline
		sc.sawNewline = false
		v, err := sc.scanValue()
		if err != nil {
			return nil, err
		}
		if newline {
			v.SetFlag(CellFlagNewlineBefore)
		}
		arr.appendRaw(&v)
	}
}

func (sc *scanner) scanValue() (Cell, error) {
	var c Cell
	b := sc.peek()

	switch {
	case b == '\'':
		quotes := 0
		for !sc.atEnd() && sc.peek() == '\'' {
			quotes++
			sc.pos++
		}
		if sc.atEnd() {
			return c, sc.failf("quote mark with nothing to quote")
		}
		v, err := sc.scanValue()
		if err != nil {
			return c, err
		}
		for i := 0; i < quotes; i++ {
			v.Quote()
		}
		return v, nil

	case b == '~':
		return sc.scanQuasi()

	case b == '[':
		sc.pos++
		inner, err := sc.scanArray(']')
		if err != nil {
			return c, err
		}
		c.InitBlock(inner, 0)
		return c, nil

	case b == '(':
		sc.pos++
		inner, err := sc.scanArray(')')
		if err != nil {
			return c, err
		}
		c.InitGroup(inner, 0)
		return c, nil

	case b == '"':
		return sc.scanText()

	case b == '<':
		return sc.scanTag()

	case b == ',':
		sc.pos++
		c.InitComma()
		return c, nil

	case b == '_' && !sc.wordContinues(1):
		sc.pos++
		c.InitBlank()
		return c, nil

	case b >= '0' && b <= '9',
		(b == '-' || b == '+') && sc.digitAt(1):
		return sc.scanNumber()

	case b == ':':
		sc.pos++
		word, err := sc.scanWordText()
		if err != nil {
			return c, err
		}
		c.InitGetWord(sc.rt.Symbols.Intern(word))
		return c, nil

	default:
		return sc.scanWordish()
	}
}

func (sc *scanner) digitAt(offset int) bool {
	i := sc.pos + offset
	return i < len(sc.src) && sc.src[i] >= '0' && sc.src[i] <= '9'
}

func (sc *scanner) wordContinues(offset int) bool {
	i := sc.pos + offset
	return i < len(sc.src) && isWordByte(sc.src[i])
}

func isWordByte(b byte) bool {
	switch {
	case b >= 'a' && b <= 'z', b >= 'A' && b <= 'Z', b >= '0' && b <= '9':
		return true
	}
	return strings.IndexByte("-?!*+.=&_/", b) >= 0
}

func (sc *scanner) scanWordText() (string, error) {
	start := sc.pos
	for !sc.atEnd() && isWordByte(sc.peek()) {
		sc.pos++
	}
	if sc.pos == start {
		return "", sc.failf("expected a word, found %q", string(sc.peek()))
	}
	return sc.src[start:sc.pos], nil
}

// scanWordish handles word, word: (set-word) and word:ref:ref (chain).
func (sc *scanner) scanWordish() (Cell, error) {
	var c Cell
	first, err := sc.scanWordText()
	if err != nil {
		return c, err
	}

	if sc.atEnd() || sc.peek() != ':' {
		c.InitWord(sc.rt.Symbols.Intern(first))
		return c, nil
	}
	sc.pos++ // consume ':'

	if sc.atEnd() || !isWordByte(sc.peek()) {
		c.InitSetWord(sc.rt.Symbols.Intern(first))
		return c, nil
	}

	// chain: word:refinement[:refinement...]
	parts := sc.rt.AllocArray(2)
	var w Cell
	w.InitWord(sc.rt.Symbols.Intern(first))
	parts.appendRaw(&w)
	for {
		name, err := sc.scanWordText()
		if err != nil {
			return c, err
		}
		w.InitWord(sc.rt.Symbols.Intern(name))
		parts.appendRaw(&w)
		if sc.atEnd() || sc.peek() != ':' {
			break
		}
		sc.pos++
		if sc.atEnd() || !isWordByte(sc.peek()) {
			return c, sc.failf("chain %s: ends in a colon", first)
		}
	}
	parts.Freeze()
	Manage(parts)
	c.InitChain(parts)
	return c, nil
}

// scanQuasi reads ~word~ (quasiform word) or a bare ~ (quasiform blank).
func (sc *scanner) scanQuasi() (Cell, error) {
	var c Cell
	sc.pos++ // consume '~'
	if sc.atEnd() || !isWordByte(sc.peek()) {
		c.InitBlank()
		c.Quasify()
		return c, nil
	}
	word, err := sc.scanWordText()
	if err != nil {
		return c, err
	}
	if sc.atEnd() || sc.peek() != '~' {
		return c, sc.failf("quasiform ~%s missing closing tilde", word)
	}
	sc.pos++
	c.InitWord(sc.rt.Symbols.Intern(word))
	c.Quasify()
	return c, nil
}

func (sc *scanner) scanNumber() (Cell, error) {
	var c Cell
	start := sc.pos
	if sc.peek() == '-' || sc.peek() == '+' {
		sc.pos++
	}
	for !sc.atEnd() && sc.peek() >= '0' && sc.peek() <= '9' {
		sc.pos++
	}
	isDecimal := false
	if !sc.atEnd() && sc.peek() == '.' && sc.digitAt(1) {
		isDecimal = true
		sc.pos++
		for !sc.atEnd() && sc.peek() >= '0' && sc.peek() <= '9' {
			sc.pos++
		}
	}
	text := sc.src[start:sc.pos]
	if isDecimal {
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return c, sc.failf("unreadable decimal %s", text)
		}
		c.InitDecimal(f)
		return c, nil
	}
	n, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return c, sc.failf("unreadable integer %s", text)
	}
	c.InitInteger(n)
	return c, nil
}

// scanText reads a "quoted string" with caret escapes: ^" embeds a quote,
// ^^ a caret, ^/ a newline, ^- a tab.
func (sc *scanner) scanText() (Cell, error) {
	var c Cell
	sc.pos++ // consume opening quote
	var buf []byte
	for {
		if sc.atEnd() {
			return c, sc.failf("unterminated string")
		}
		b := sc.peek()
		sc.pos++
		switch b {
		case '"':
			stub := sc.rt.AllocText(string(buf))
			Manage(stub)
			c.InitText(stub, 0)
			return c, nil
		case '^':
			if sc.atEnd() {
				return c, sc.failf("unterminated string escape")
			}
			esc := sc.peek()
			sc.pos++
			switch esc {
			case '"':
				buf = append(buf, '"')
			case '^':
				buf = append(buf, '^')
			case '/':
				buf = append(buf, '\n')
			case '-':
				buf = append(buf, '\t')
			default:
				return c, sc.failf("unknown string escape ^%s", string(esc))
			}
		case '\n':
			sc.line++
			buf = append(buf, b)
		default:
			buf = append(buf, b)
		}
	}
}

func (sc *scanner) scanTag() (Cell, error) {
	var c Cell
	sc.pos++ // consume '<'
	start := sc.pos
	for !sc.atEnd() && sc.peek() != '>' {
		if sc.peek() == '\n' {
			return c, sc.failf("unterminated tag")
		}
		sc.pos++
	}
	if sc.atEnd() {
		return c, sc.failf("unterminated tag")
	}
	text := sc.src[start:sc.pos]
	sc.pos++ // consume '>'
	stub := sc.rt.AllocText(text)
	Manage(stub)
	c.InitTag(stub)
	return c, nil
}
