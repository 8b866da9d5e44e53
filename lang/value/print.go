package value

// Print returns the pr-str-style representation of v: like v.String() for
// most kinds, but strings and chars are rendered with their read-back-able
// quoting when nested inside a collection's own String(). Top-level display
// of a bare string (the str function) should call v.String() directly
// instead of Print.
func Print(v Value) string {
	switch t := v.(type) {
	case String:
		return t.Quote()
	case Char:
		return printChar(t)
	default:
		return v.String()
	}
}

var namedChars = map[rune]string{
	'\n': "\\newline",
	' ':  "\\space",
	'\t': "\\tab",
	'\r': "\\return",
	'\b': "\\backspace",
	'\f': "\\formfeed",
}

func printChar(c Char) string {
	if name, ok := namedChars[rune(c)]; ok {
		return name
	}
	return "\\" + string(rune(c))
}
