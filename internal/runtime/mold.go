package runtime

import (
	"fmt"
	"strconv"
	"strings"
)

// Mold renders a value as loadable source text (the inverse of Scan, up to
// whitespace). Antiforms have no source form; they render as ~name~ style
// quasi notation with an antiform marker left off, matching what a user
// would type to reconstruct them through evaluation.
func (rt *Runtime) Mold(c *Cell) string {
	var b strings.Builder
	moldInto(&b, c, 0)
	return b.String()
}

// moldShallow is the cheap rendering used inside error messages, where a
// deep structure dump would drown the message.
func moldShallow(c *Cell) string {
	var b strings.Builder
	moldInto(&b, c, moldMaxDepth-1)
	return b.String()
}

const moldMaxDepth = 8

func moldInto(b *strings.Builder, c *Cell, depth int) {
	if c.heart == TypeCorrupt {
		b.WriteString("#[corrupt]")
		return
	}

	for i := 0; i < c.NumQuotes(); i++ {
		b.WriteByte('\'')
	}
	quasi := c.lift == liftQuasi || (c.lift == liftAntiform && c.heart != TypeError)
	if quasi && c.heart != TypeBlank {
		b.WriteByte('~')
	}

	switch c.heart {
	case TypeBlank:
		if quasi {
			b.WriteByte('~')
		} else {
			b.WriteByte('_')
		}
	case TypeComma:
		b.WriteByte(',')
	case TypeInteger:
		b.WriteString(strconv.FormatInt(c.i64, 10))
	case TypeDecimal:
		b.WriteString(strconv.FormatFloat(c.f64, 'g', -1, 64))
	case TypeText:
		b.WriteByte('"')
		for _, r := range c.node.TextString() {
			switch r {
			case '"':
				b.WriteString(`^"`)
			case '^':
				b.WriteString("^^")
			case '\n':
				b.WriteString("^/")
			case '\t':
				b.WriteString("^-")
			default:
				b.WriteRune(r)
			}
		}
		b.WriteByte('"')
	case TypeTag:
		b.WriteByte('<')
		b.WriteString(c.node.TextString())
		b.WriteByte('>')
	case TypeWord:
		b.WriteString(c.sym.Text())
	case TypeSetWord:
		b.WriteString(c.sym.Text())
		b.WriteByte(':')
	case TypeGetWord:
		b.WriteByte(':')
		b.WriteString(c.sym.Text())
	case TypeChain:
		first, refines := chainParts(c)
		b.WriteString(first.Text())
		for _, r := range refines {
			b.WriteByte(':')
			b.WriteString(r.Text())
		}
	case TypeBlock:
		moldList(b, c, depth, '[', ']')
	case TypeGroup:
		moldList(b, c, depth, '(', ')')
	case TypeObject:
		b.WriteString("#[object]")
	case TypeModule:
		b.WriteString("#[module]")
	case TypeFrame:
		b.WriteString("#[frame]")
	case TypeError:
		moldError(b, c)
	case TypeAction:
		b.WriteString("#[action]")
	case TypeParameter:
		b.WriteString("#[parameter]")
	case TypeDatatype:
		b.WriteString(Heart(c.index).Name())
	case TypeHandle:
		fmt.Fprintf(b, "#[handle %s]", c.node.HandleID())
	default:
		fmt.Fprintf(b, "#[unknown %d]", c.heart)
	}

	if quasi && c.heart != TypeBlank && c.heart != TypeChain {
		b.WriteByte('~')
	}
}

func moldList(b *strings.Builder, c *Cell, depth int, open, close byte) {
	b.WriteByte(open)
	if depth >= moldMaxDepth {
		b.WriteString("...")
	} else {
		arr := c.node
		for i := c.index; i < arr.ArrayLen(); i++ {
			if i > c.index {
				b.WriteByte(' ')
			}
			moldInto(b, arr.ArrayAt(i), depth+1)
		}
	}
	b.WriteByte(close)
}

func moldError(b *strings.Builder, c *Cell) {
	e := errorFromContext(c.node)
	fmt.Fprintf(b, "#[error %s %q]", e.ID, e.Msg)
}

// Form renders for human output (PRINT): text without quotes, everything
// else molded.
func (rt *Runtime) Form(c *Cell) string {
	if c.IsPlain() && c.heart == TypeText {
		return c.node.TextString()
	}
	if IsLogic(c) || IsTrash(c) {
		return "~" + c.sym.Text() + "~"
	}
	return rt.Mold(c)
}
