package reader

// Numeric literal scanning follows the overall digit-run-collection shape of
// the nenuphar scanner's number() (lang/scanner/number.go), adapted to the
// Lisp number grammar: optional sign, hex/octal/arbitrary-radix integers,
// ratios, floats, and the N/M bigint/bigdecimal suffixes.

import (
	"strconv"
	"strings"

	"github.com/cljcore/cljc/lang/token"
)

type numKind int

const (
	numInt numKind = iota
	numFloat
	numRatio
	numBigInt
	numBigDecimal
)

// scanNumber reads a numeric literal starting at the scanner's current
// position (the caller has already verified it begins with a digit, or a
// sign followed by a digit). It returns the literal's raw text and kind.
func (s *scanner) scanNumber() (raw string, kind numKind) {
	start := s.off
	if s.cur == '+' || s.cur == '-' {
		s.advance()
	}

	if s.cur == '0' && (lower(s.peek()) == 'x') {
		s.advance()
		s.advance()
		for isHex(s.cur) {
			s.advance()
		}
		return string(s.src[start:s.off]), numInt
	}

	digitsStart := s.off
	for isDigit(s.cur) {
		s.advance()
	}
	intLen := s.off - digitsStart

	if s.cur == 'r' && intLen > 0 {
		// arbitrary radix: NrDDDD
		s.advance()
		for isAlnum(s.cur) {
			s.advance()
		}
		return string(s.src[start:s.off]), numInt
	}

	if intLen > 1 && s.src[digitsStart] == '0' {
		// leading-zero octal, e.g. 017
		allOctal := true
		for _, b := range s.src[digitsStart:s.off] {
			if b < '0' || b > '7' {
				allOctal = false
				break
			}
		}
		if allOctal && s.cur != '.' && s.cur != 'e' && s.cur != 'E' {
			return string(s.src[start:s.off]), numInt
		}
	}

	kind = numInt
	if s.cur == '/' && isDigit(rune(s.peek())) {
		s.advance()
		for isDigit(s.cur) {
			s.advance()
		}
		return string(s.src[start:s.off]), numRatio
	}

	if s.cur == '.' && isDigit(rune(s.peek())) || (s.cur == '.' && !isSymbolCont(rune(s.peek()))) {
		kind = numFloat
		s.advance()
		for isDigit(s.cur) {
			s.advance()
		}
	}

	if s.cur == 'e' || s.cur == 'E' {
		kind = numFloat
		s.advance()
		if s.cur == '+' || s.cur == '-' {
			s.advance()
		}
		for isDigit(s.cur) {
			s.advance()
		}
	}

	switch s.cur {
	case 'N':
		s.advance()
		if kind == numInt {
			kind = numBigInt
		}
	case 'M':
		s.advance()
		kind = numBigDecimal
	}

	return string(s.src[start:s.off]), kind
}

func lower(b byte) byte {
	if 'A' <= b && b <= 'Z' {
		return b + ('a' - 'A')
	}
	return b
}

func isHex(r rune) bool {
	return isDigit(r) || ('a' <= lower(byte(r)) && lower(byte(r)) <= 'f' && r < 128)
}

func isAlnum(r rune) bool {
	return isDigit(r) || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

// decodeNumber converts a scanned numeric literal's raw text to a Form,
// stripping suffix/radix markers as needed. pos is the literal's start.
func decodeNumber(pos token.Pos, raw string, kind numKind) (Form, error) {
	switch kind {
	case numInt:
		v, err := parseInt(raw)
		if err != nil {
			return Form{}, &SyntaxError{Pos: pos, Msg: "invalid integer literal " + raw + ": " + err.Error()}
		}
		return Form{Kind: KindInt, Pos: pos, Int: v}, nil
	case numFloat:
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return Form{}, &SyntaxError{Pos: pos, Msg: "invalid float literal " + raw + ": " + err.Error()}
		}
		return Form{Kind: KindFloat, Pos: pos, Float: v}, nil
	case numRatio:
		return Form{Kind: KindRatio, Pos: pos, Str: raw}, nil
	case numBigInt:
		return Form{Kind: KindBigInt, Pos: pos, Str: strings.TrimSuffix(raw, "N")}, nil
	case numBigDecimal:
		return Form{Kind: KindBigDecimal, Pos: pos, Str: strings.TrimSuffix(raw, "M")}, nil
	default:
		return Form{}, &SyntaxError{Pos: pos, Msg: "invalid numeric literal " + raw}
	}
}

func parseInt(raw string) (int64, error) {
	neg := false
	s := raw
	if len(s) > 0 && (s[0] == '+' || s[0] == '-') {
		neg = s[0] == '-'
		s = s[1:]
	}
	var v int64
	var err error
	switch {
	case strings.HasPrefix(lowerStr(s), "0x"):
		v, err = strconv.ParseInt(s[2:], 16, 64)
	case len(s) > 1 && s[0] == '0' && isAllOctal(s):
		v, err = strconv.ParseInt(s[1:], 8, 64)
	case strings.ContainsRune(s, 'r'):
		i := strings.IndexByte(s, 'r')
		base, perr := strconv.Atoi(s[:i])
		if perr != nil {
			return 0, perr
		}
		v, err = strconv.ParseInt(s[i+1:], base, 64)
	default:
		v, err = strconv.ParseInt(s, 10, 64)
	}
	if err != nil {
		return 0, err
	}
	if neg {
		v = -v
	}
	return v, nil
}

func isAllOctal(s string) bool {
	for i := 1; i < len(s); i++ {
		if s[i] < '0' || s[i] > '7' {
			return false
		}
	}
	return true
}

func lowerStr(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		b.WriteByte(lower(s[i]))
	}
	return b.String()
}
