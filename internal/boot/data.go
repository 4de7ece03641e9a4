package boot

// builtinErrors augments (and can override) the core's compiled-in message
// templates. Kept sparse: only messages the core doesn't already carry, or
// whose wording was improved after the core shipped.
var builtinErrors = map[string]string{
	"stack-overflow": "evaluation nested too deeply",
	"not-finished":   "feature not finished in this build: %s",
}

// mezzanine is the in-language part of the standard library. It runs with
// lib as binding, so every set-word lands next to the natives. Only natives
// may be used here, in strict arity form; the mezzanine cannot rely on
// anything it defines later in the same file.
const mezzanine = `
; --- comparison conveniences -------------------------------------------

max: func [a b] [either greater? a b [a] [b]]
min: func [a b] [either lesser? a b [a] [b]]

abs: func [n [any-number?]] [
    either lesser? n 0 [negate n] [n]
]

; --- logic helpers ------------------------------------------------------

zero?: func [n [any-number?]] [equal? n 0]
negative?: func [n [any-number?]] [lesser? n 0]
positive?: func [n [any-number?]] [greater? n 0]

; --- value plumbing -----------------------------------------------------

; a default that only fills absence, never overwrites
default: func [value fallback] [
    either null? value [fallback] [value]
]

probe: func ["print a molded value and pass it through" value] [
    print mold value
    value
]
`
