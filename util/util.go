package util

// Byte classification shared by the three lexers. Only ASCII is meaningful in
// hack assembly, vm bytecode and jack sources, so everything works on bytes.

func IsNumber(b byte) bool {
	return b >= '0' && b <= '9'
}

func IsUnderScore(b byte) bool {
	return b == '_'
}

func IsLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func IsLetterOrUnderscore(b byte) bool {
	return IsLetter(b) || IsUnderScore(b)
}

func IsLetterOrUnderscoreOrNumber(b byte) bool {
	return IsLetter(b) || IsUnderScore(b) || IsNumber(b)
}

func IsSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r', '\f', '\v':
		return true
	}
	return false
}

// IsSymbolByte reports whether b may appear in an assembly or vm symbol:
// letters, digits, '_', '.', '$' and ':'.
func IsSymbolByte(b byte) bool {
	return IsLetterOrUnderscoreOrNumber(b) || b == '.' || b == '$' || b == ':'
}

// IsSymbol reports whether s is a valid assembly/vm symbol, which is a non-empty
// sequence of symbol bytes not starting with a digit.
func IsSymbol(s string) bool {
	if len(s) == 0 || IsNumber(s[0]) {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !IsSymbolByte(s[i]) {
			return false
		}
	}
	return true
}

// IsDecimal reports whether s is a non-empty run of decimal digits.
func IsDecimal(s string) bool {
	if len(s) == 0 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !IsNumber(s[i]) {
			return false
		}
	}
	return true
}
