package runtime

// Antiforms are evaluation products that ordinary array slots refuse to
// hold. The heart of the antiform says which kind it is:
//
//	word "null"   null (the falsey logic state, also "soft failure")
//	word "okay"   okay (the truthy logic state)
//	word "trash"  trash (unset variables; errors when read as a value)
//	blank         void (absence of a result; ALL [] and ANY [] yield this)
//	comma         ghost (vanishing result of comments/barriers; doesn't vote)
//	block         pack (multi-return bundle; decays to its first item)
//	error         raised error (cooperative failure traveling as a value)
//
// Null, okay, void and trash are stable: a frame variable can hold them.
// Ghost, pack and raised errors are unstable and must decay (or be
// explicitly welcomed by a ^META parameter) before storage.

// Antiform keyword spellings interned at startup.
const (
	spellingNull  = "null"
	spellingOkay  = "okay"
	spellingTrash = "trash"
)

func (rt *Runtime) InitNull(c *Cell) *Cell {
	c.InitWord(rt.symNull)
	c.lift = liftAntiform
	return c
}

func (rt *Runtime) InitOkay(c *Cell) *Cell {
	c.InitWord(rt.symOkay)
	c.lift = liftAntiform
	return c
}

func (rt *Runtime) InitTrash(c *Cell) *Cell {
	c.InitWord(rt.symTrash)
	c.lift = liftAntiform
	return c
}

func (rt *Runtime) InitLogic(c *Cell, truthy bool) *Cell {
	if truthy {
		return rt.InitOkay(c)
	}
	return rt.InitNull(c)
}

func InitVoid(c *Cell) *Cell {
	c.InitBlank()
	c.lift = liftAntiform
	return c
}

func InitGhost(c *Cell) *Cell {
	c.InitComma()
	c.lift = liftAntiform
	return c
}

// InitPack bundles already-lifted values into a pack antiform. The array
// holds the items in lifted form so that packs can carry antiforms.
func InitPack(c *Cell, a *Stub) *Cell {
	c.InitBlock(a, 0)
	c.lift = liftAntiform
	return c
}

func InitRaised(c *Cell, errCtx *Stub) *Cell {
	c.InitError(errCtx)
	c.lift = liftAntiform
	return c
}

func (c *Cell) isKeywordAntiform(spelling string) bool {
	return c.lift == liftAntiform && c.heart == TypeWord && c.sym != nil &&
		c.sym.canon == spelling
}

func IsNull(c *Cell) bool  { return c.isKeywordAntiform(spellingNull) }
func IsOkay(c *Cell) bool  { return c.isKeywordAntiform(spellingOkay) }
func IsTrash(c *Cell) bool { return c.isKeywordAntiform(spellingTrash) }
func IsLogic(c *Cell) bool { return IsNull(c) || IsOkay(c) }

func IsVoid(c *Cell) bool {
	return c.lift == liftAntiform && c.heart == TypeBlank
}

func IsGhost(c *Cell) bool {
	return c.lift == liftAntiform && c.heart == TypeComma
}

func IsPack(c *Cell) bool {
	return c.lift == liftAntiform && c.heart == TypeBlock
}

func IsRaised(c *Cell) bool {
	return c.lift == liftAntiform && c.heart == TypeError
}

// IsUnstable antiforms cannot even sit in frame variables; they exist only
// in Level output slots until decayed or intercepted.
func IsUnstable(c *Cell) bool {
	return IsGhost(c) || IsPack(c) || IsRaised(c)
}

// Decay collapses unstable antiforms to a stable value: a pack yields its
// first item (itself decayed), a raised error surfaces as a Go error, and a
// ghost has nothing to offer. Stable values pass through unchanged.
func (rt *Runtime) Decay(c *Cell) error {
	if IsPack(c) {
		arr := c.node
		if arr.ArrayLen() == 0 {
			return newError(ErrBadVoid)
		}
		*c = *arr.ArrayAt(0)
		c.Unliftify()
		return rt.Decay(c)
	}
	if IsRaised(c) {
		return errorFromContext(c.node)
	}
	if IsGhost(c) {
		return newError(ErrBadVoid)
	}
	return nil
}

// Truthy applies the conditional-test rules: null is the one falsey state,
// okay and every plain value are truthy, and the "opted out" states (void,
// trash, ghost) refuse the test rather than guessing.
func Truthy(c *Cell) (bool, error) {
	if IsNull(c) {
		return false, nil
	}
	if IsOkay(c) {
		return true, nil
	}
	if IsVoid(c) {
		return false, newError(ErrBadConditional, "void")
	}
	if IsTrash(c) {
		return false, newError(ErrBadTrash)
	}
	if IsGhost(c) {
		return false, newError(ErrBadConditional, "ghost")
	}
	if c.IsAntiform() {
		// remaining antiforms (packs, raised) should have been decayed
		return false, newError(ErrBadConditional, c.heart.Name())
	}
	return true, nil
}
