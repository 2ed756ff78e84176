package collector

import (
	"regexp"
	"strconv"
)

// ValueKind classifies what a token coerced into.
type ValueKind int

const (
	// KindText means the token did not look numeric and passed
	// through unchanged.
	KindText ValueKind = iota
	KindInt
	KindFloat
)

// Value is the result of coercing a text token. Text always holds the
// original token so non-numeric values survive untouched.
type Value struct {
	Kind  ValueKind
	Int   int64
	Float float64
	Text  string
}

var (
	intPattern   = regexp.MustCompile(`^-?\d+$`)
	floatPattern = regexp.MustCompile(`^-?[\d.]+$`)
)

// Coerce turns a token into an integer when it is all digits (with an
// optional sign), a float when it is digits and dots, and otherwise
// passes it through as text. Tokens that look numeric but don't parse
// (e.g. "1.2.3") stay text as well. Coercion never fails; callers
// decide what a text value means for them.
func Coerce(token string) Value {
	if intPattern.MatchString(token) {
		n, err := strconv.ParseInt(token, 10, 64)
		if err == nil {
			return Value{Kind: KindInt, Int: n, Float: float64(n), Text: token}
		}
	}

	if floatPattern.MatchString(token) {
		f, err := strconv.ParseFloat(token, 64)
		if err == nil {
			return Value{Kind: KindFloat, Float: f, Text: token}
		}
	}

	return Value{Kind: KindText, Text: token}
}

// AsFloat reports the numeric value of v, with ok false for text.
func (v Value) AsFloat() (f float64, ok bool) {
	if v.Kind == KindText {
		return 0, false
	}

	return v.Float, true
}
