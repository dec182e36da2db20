package token

import (
	"unicode"
)

type Type int

const (
	LParen Type = iota
	RParen
	Ident  // keywords, opcodes and $symbols
	Value  // %name
	String // quoted symbol
	Number
	Equals
)

func (t Type) String() string {
	switch t {
	case LParen:
		return "'('"
	case RParen:
		return "')'"
	case Ident:
		return "identifier"
	case Value:
		return "value"
	case String:
		return "string"
	case Number:
		return "number"
	case Equals:
		return "'='"
	}
	return "unknown"
}

type Token struct {
	Value string
	Type  Type
	Line  int
}

// Tokenize splits IR text into tokens. Characters that cannot start a token
// are reported as single-character identifiers so the parser can reject them
// with a line number.
func Tokenize(input string) []Token {
	var tokens []Token
	line := 1
	runes := []rune(input)

	for i := 0; i < len(runes); i++ {
		r := runes[i]

		if r == '\n' {
			line++
			continue
		}
		if unicode.IsSpace(r) {
			continue
		}

		// Line comment
		if r == ';' && i+1 < len(runes) && runes[i+1] == ';' {
			for i < len(runes) && runes[i] != '\n' {
				i++
			}
			line++
			continue
		}

		// Block comment or left paren
		if r == '(' {
			if i+1 < len(runes) && runes[i+1] == ';' {
				depth := 1
				i += 2
				for i < len(runes) && depth > 0 {
					if runes[i] == '(' && i+1 < len(runes) && runes[i+1] == ';' {
						depth++
						i++
					} else if runes[i] == ';' && i+1 < len(runes) && runes[i+1] == ')' {
						depth--
						i++
					} else if runes[i] == '\n' {
						line++
					}
					i++
				}
				i--
				continue
			}
			tokens = append(tokens, Token{"(", LParen, line})
			continue
		}

		if r == ')' {
			tokens = append(tokens, Token{")", RParen, line})
			continue
		}

		if r == '=' {
			tokens = append(tokens, Token{"=", Equals, line})
			continue
		}

		// String literal, kept with escapes for strconv.Unquote
		if r == '"' {
			start := i
			i++
			for i < len(runes) && runes[i] != '"' {
				if runes[i] == '\\' {
					i++
				}
				i++
			}
			end := min(i+1, len(runes))
			tokens = append(tokens, Token{string(runes[start:end]), String, line})
			continue
		}

		// Number (including negative)
		if r == '-' || r == '+' || unicode.IsDigit(r) {
			start := i
			if r == '-' || r == '+' {
				i++
			}
			for i < len(runes) {
				c := runes[i]
				if unicode.IsDigit(c) || c == '_' || c == 'x' || c == 'X' ||
					(c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F') {
					i++
				} else {
					break
				}
			}
			tokens = append(tokens, Token{string(runes[start:i]), Number, line})
			i--
			continue
		}

		// Value reference
		if r == '%' {
			start := i
			i++
			for i < len(runes) && isNameRune(runes[i]) {
				i++
			}
			tokens = append(tokens, Token{string(runes[start:i]), Value, line})
			i--
			continue
		}

		// Identifier (keywords, opcodes and $symbols)
		if r == '$' || unicode.IsLetter(r) || r == '_' || r == '.' {
			start := i
			for i < len(runes) && (isNameRune(runes[i]) || runes[i] == '$') {
				i++
			}
			tokens = append(tokens, Token{string(runes[start:i]), Ident, line})
			i--
			continue
		}

		tokens = append(tokens, Token{string(r), Ident, line})
	}

	return tokens
}

func isNameRune(c rune) bool {
	return unicode.IsLetter(c) || unicode.IsDigit(c) || c == '_' || c == '.' || c == '-'
}
