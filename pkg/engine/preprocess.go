package engine

import "strings"

// preprocessSource rewrites script source into something zygomys accepts:
//
//   - :name becomes the string "__kw_name", so keywords never collide with
//     user variables of the same name.
//   - kebab-case identifiers become snake_case (atom-count -> atom_count).
//     A hyphen only counts as part of a name when it sits between an
//     identifier character and a letter, so (- 10 5) and -0.5 survive.
//   - ; comments become // comments.
//
// String literals (both quote styles) and existing comments pass through
// untouched.
func preprocessSource(source string) string {
	var out strings.Builder
	out.Grow(len(source) + len(source)/4)

	n := len(source)
	for i := 0; i < n; {
		c := source[i]
		switch {
		case c == '"' || c == '`':
			end := closingQuote(source, i)
			out.WriteString(source[i:end])
			i = end

		case c == ';':
			for i < n && source[i] == ';' {
				i++
			}
			end := lineEnd(source, i)
			out.WriteString("//")
			out.WriteString(source[i:end])
			i = end

		case c == '/' && i+1 < n && source[i+1] == '/':
			end := lineEnd(source, i)
			out.WriteString(source[i:end])
			i = end

		case c == ':' && i+1 < n && isLetter(source[i+1]):
			j := i + 1
			for j < n && isKeywordChar(source[j]) {
				j++
			}
			out.WriteByte('"')
			out.WriteString(kwPrefix)
			out.WriteString(source[i+1 : j])
			out.WriteByte('"')
			i = j

		case c == '-' && i > 0 && i+1 < n && isIdentChar(source[i-1]) && isLetter(source[i+1]):
			out.WriteByte('_')
			i++

		default:
			out.WriteByte(c)
			i++
		}
	}
	return out.String()
}

// closingQuote returns the index just past the literal opening at start.
// Backslash escapes apply only inside double quotes. An unterminated
// literal runs to the end of the source.
func closingQuote(s string, start int) int {
	q := s[start]
	for i := start + 1; i < len(s); i++ {
		switch {
		case q == '"' && s[i] == '\\':
			i++
		case s[i] == q:
			return i + 1
		}
	}
	return len(s)
}

func lineEnd(s string, from int) int {
	if k := strings.IndexByte(s[from:], '\n'); k >= 0 {
		return from + k
	}
	return len(s)
}

func isLetter(c byte) bool { return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' }

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isIdentChar(c byte) bool { return isLetter(c) || isDigit(c) || c == '_' }

func isKeywordChar(c byte) bool { return isIdentChar(c) || c == '-' }
