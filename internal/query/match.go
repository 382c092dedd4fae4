package query

import "strings"

// IsWildcard reports whether pattern selects wildcard mode. There is no
// escape for a literal '*' or '?'.
func IsWildcard(pattern string) bool {
	return strings.ContainsAny(pattern, "*?")
}

// Match reports whether name matches the glob pattern, ignoring case.
// '*' matches any run of characters, including none; '?' matches exactly
// one character; "[seq]" matches one character in seq and "[!seq]" one
// character not in seq, with "a-z" ranges. A ']' right after the opening
// bracket is a member. An unterminated '[' and every other character,
// '\' included, is literal.
func Match(pattern, name string) bool {
	return matchFold([]rune(strings.ToLower(pattern)), []rune(strings.ToLower(name)))
}

// matchFold is the classic greedy glob match with single-star backtracking.
func matchFold(pattern, name []rune) bool {
	p, n := 0, 0
	starP, starN := -1, 0
	for n < len(name) {
		if p < len(pattern) {
			c := pattern[p]
			if c == '*' {
				starP, starN = p, n
				p++
				continue
			}

			width, ok := 1, false
			switch {
			case c == '?':
				ok = true
			case c == '[':
				if end, closed := classEnd(pattern, p); closed {
					width = end - p
					ok = classMatch(pattern[p+1:end-1], name[n])
				} else {
					ok = name[n] == '['
				}
			default:
				ok = c == name[n]
			}
			if ok {
				p += width
				n++
				continue
			}
		}
		if starP < 0 {
			return false
		}
		// Let the last star absorb one more character and retry.
		starN++
		p, n = starP+1, starN
	}
	for p < len(pattern) && pattern[p] == '*' {
		p++
	}
	return p == len(pattern)
}

// classEnd returns the index just past the ']' closing the class that
// opens at pattern[open], or false when the class is unterminated.
func classEnd(pattern []rune, open int) (int, bool) {
	j := open + 1
	if j < len(pattern) && pattern[j] == '!' {
		j++
	}
	if j < len(pattern) && pattern[j] == ']' {
		j++
	}
	for j < len(pattern) && pattern[j] != ']' {
		j++
	}
	if j >= len(pattern) {
		return 0, false
	}
	return j + 1, true
}

// classMatch reports whether r is selected by the class body between the brackets.
func classMatch(body []rune, r rune) bool {
	negate := false
	if len(body) > 0 && body[0] == '!' {
		negate = true
		body = body[1:]
	}
	found := false
	for i := 0; i < len(body); i++ {
		if i+2 < len(body) && body[i+1] == '-' {
			if body[i] <= r && r <= body[i+2] {
				found = true
			}
			i += 2
			continue
		}
		if body[i] == r {
			found = true
		}
	}
	return found != negate
}
