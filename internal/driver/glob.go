package driver

import "strings"

// Include patterns are slash-separated globs: "*" matches within one path
// segment, a "**" segment matches across segments. Patterns are parsed once
// into a prefix/wildcard sequence and matched with backtracking.

type globWildcard uint8

const (
	globNone globWildcard = iota
	globAllExceptSlash
	globAllIncludingSlash
)

type globPart struct {
	prefix   string
	wildcard globWildcard
}

// The returned slice always has at least one element. If there are no
// wildcards then it has exactly one element with globNone.
func parseGlobPattern(text string) (pattern []globPart) {
	for {
		star := strings.IndexByte(text, '*')
		if star < 0 {
			pattern = append(pattern, globPart{prefix: text})
			break
		}
		count := 1
		for star+count < len(text) && text[star+count] == '*' {
			count++
		}
		wildcard := globAllExceptSlash

		// A "globstar" is a whole path segment of stars
		if count > 1 && (star == 0 || text[star-1] == '/') &&
			(star+count == len(text) || text[star+count] == '/') {
			wildcard = globAllIncludingSlash
		}

		pattern = append(pattern, globPart{prefix: text[:star], wildcard: wildcard})
		text = text[star+count:]
	}
	return
}

func globMatch(pattern []globPart, text string) bool {
	if len(pattern) == 0 {
		return text == ""
	}
	part := pattern[0]
	if !strings.HasPrefix(text, part.prefix) {
		return false
	}
	text = text[len(part.prefix):]
	rest := pattern[1:]

	switch part.wildcard {
	case globNone:
		return len(rest) == 0 && text == ""

	case globAllExceptSlash:
		for i := 0; i <= len(text); i++ {
			if globMatch(rest, text[i:]) {
				return true
			}
			if i < len(text) && text[i] == '/' {
				break
			}
		}

	case globAllIncludingSlash:
		for i := 0; i <= len(text); i++ {
			if globMatch(rest, text[i:]) {
				return true
			}
		}

		// "a/**/b" must also match "a/b": the globstar may swallow the slash
		// that separates it from what follows.
		if len(rest) > 0 && strings.HasPrefix(rest[0].prefix, "/") {
			trimmed := make([]globPart, len(rest))
			copy(trimmed, rest)
			trimmed[0].prefix = trimmed[0].prefix[1:]
			return globMatch(trimmed, text)
		}
	}
	return false
}

// matchesAny reports whether the slash-separated relative path matches at
// least one include pattern.
func matchesAny(patterns [][]globPart, relPath string) bool {
	for _, pattern := range patterns {
		if globMatch(pattern, relPath) {
			return true
		}
	}
	return false
}
