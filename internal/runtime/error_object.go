package runtime

// Error contexts are ordinary varlists with an error! rootvar and a fixed
// shape: id, message, near. Raised-error antiforms point at one; DISARM and
// EXCEPT hand the same context to scripts as a plain error! value.

const (
	errSlotID      = 1
	errSlotMessage = 2
	errSlotNear    = 3
	errSlotCount   = 3
)

// MakeErrorContext reifies a catalog error as an error! context.
func (rt *Runtime) MakeErrorContext(e *Error) *Stub {
	varlist := rt.AllocVarlist(errSlotCount)
	initRootvar(varlist, TypeError)

	keylist := rt.AllocKeylist(errSlotCount)
	keylist.keys = append(keylist.keys,
		rt.Symbols.Intern("id"),
		rt.Symbols.Intern("message"),
		rt.Symbols.Intern("near"),
	)
	Manage(keylist)
	varlist.setKeylist(keylist)

	push := func(s string) {
		text := rt.AllocText(s)
		Manage(text)
		var c Cell
		c.InitText(text, 0)
		varlist.cells = append(varlist.cells, c)
	}
	push(e.ID)
	push(e.Msg)
	push(e.Near)
	return Manage(varlist)
}

// errorFromContext reads an error! context back into catalog form. Reads by
// position; the shape is fixed by MakeErrorContext.
func errorFromContext(varlist *Stub) *Error {
	if varlist.VarlistLen() < errSlotCount {
		return &Error{ID: "malformed", Msg: "malformed error context"}
	}
	text := func(i int) string {
		slot := varlist.VarAt(i)
		if slot.IsPlain() && slot.heart == TypeText {
			return slot.node.TextString()
		}
		return ""
	}
	return &Error{
		ID:   text(errSlotID),
		Msg:  text(errSlotMessage),
		Near: text(errSlotNear),
	}
}

// InitRaisedError wraps a Go-side catalog error as a raised antiform, the
// form natives use to "return" a definitional error rather than aborting.
func (rt *Runtime) InitRaisedError(out *Cell, err error) *Cell {
	e := AsError(err)
	if e == nil {
		e = &Error{ID: "host", Msg: err.Error()}
	}
	return InitRaised(out, rt.MakeErrorContext(e))
}
