package querystring

import (
	"html"
	"strings"
)

// Tokenize splits raw into fragments and returns the key/value tokens in
// input order. Fragments without '=' are discarded.
func Tokenize(raw string) []Token {
	raw = stripURLPrefix(raw)
	if raw == "" {
		return nil
	}
	return TokenizeFragments(SplitFragments(raw))
}

// SplitFragments splits raw on '&'. An '&' that opens an HTML entity such as
// "&amp;" or "&#38;" is part of the fragment, not a separator.
func SplitFragments(raw string) []string {
	var fragments []string
	start := 0
	for i := 0; i < len(raw); i++ {
		if raw[i] != '&' {
			continue
		}
		if n := entityLen(raw[i:]); n > 0 {
			i += n - 1
			continue
		}
		fragments = append(fragments, raw[start:i])
		start = i + 1
	}
	return append(fragments, raw[start:])
}

// entityLen returns the length of the HTML entity at the start of s, or 0.
// Accepted forms are &name; &#DDD; and &#xHHH;.
func entityLen(s string) int {
	i := 1
	digit := isLetterOrDigit
	if i < len(s) && s[i] == '#' {
		i++
		digit = isDecimal
		if i < len(s) && (s[i] == 'x' || s[i] == 'X') {
			i++
			digit = isHex
		}
	} else if i >= len(s) || !isLetter(s[i]) {
		return 0
	}
	begin := i
	for i < len(s) && digit(s[i]) {
		i++
	}
	if i == begin || i >= len(s) || s[i] != ';' {
		return 0
	}
	return i + 1
}

// TokenizeFragments is Tokenize for input that has already been split on '&'.
func TokenizeFragments(fragments []string) []Token {
	tokens := make([]Token, 0, len(fragments))
	for _, fragment := range fragments {
		key, value, ok := strings.Cut(fragment, "=")
		if !ok {
			continue
		}
		tokens = append(tokens, Token{Key: decode(key), Value: decode(value)})
	}
	return tokens
}

// stripURLPrefix drops "/path?" style prefixes, including repeated '?'s. A
// '?' that appears after the first '=' or '&' belongs to a value and is left
// alone.
func stripURLPrefix(raw string) string {
	i := strings.IndexByte(raw, '?')
	if i < 0 || strings.ContainsAny(raw[:i], "=&") {
		return raw
	}
	return strings.TrimLeft(raw[i+1:], "?")
}

func decode(s string) string {
	return html.UnescapeString(unescapePercent(s))
}

// unescapePercent decodes '+' and well-formed %XX sequences. Malformed
// sequences such as a trailing "100%" are kept verbatim instead of
// invalidating the whole fragment, which url.QueryUnescape would do.
func unescapePercent(s string) string {
	if !strings.ContainsAny(s, "%+") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c == '+':
			b.WriteByte(' ')
		case c == '%' && i+2 < len(s) && isHex(s[i+1]) && isHex(s[i+2]):
			b.WriteByte(unhex(s[i+1])<<4 | unhex(s[i+2]))
			i += 2
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

func isLetter(c byte) bool {
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

func isDecimal(c byte) bool {
	return '0' <= c && c <= '9'
}

func isLetterOrDigit(c byte) bool {
	return isLetter(c) || isDecimal(c)
}

func isHex(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}

func unhex(c byte) byte {
	switch {
	case '0' <= c && c <= '9':
		return c - '0'
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10
	default:
		return c - 'A' + 10
	}
}
