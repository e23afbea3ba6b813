package search

import (
	"path"
	"strings"
)

// GitignoreMatcher holds an ordered set of gitignore-style patterns and
// decides whether a root-relative path is excluded. Later patterns win,
// so negations (!) can re-include earlier exclusions.
type GitignoreMatcher struct {
	patterns []ignorePattern
}

type ignorePattern struct {
	glob     string // parsed glob body
	negation bool
	dirOnly  bool   // trailing / in the source line
	anchored bool   // leading / in the source line
	hasSlash bool   // glob contains / after trimming
	base     string // slash-relative dir the pattern file lives in ("." = root)
	literal  string // fast path: exact component/path match
	prefix   string // fast path: foo*
	suffix   string // fast path: *foo
}

// NewGitignoreMatcher creates an empty matcher.
func NewGitignoreMatcher() *GitignoreMatcher {
	return &GitignoreMatcher{}
}

// Clone deep-copies the matcher so a subdirectory can extend the
// inherited rule set without mutating its parent's.
func (gm *GitignoreMatcher) Clone() *GitignoreMatcher {
	clone := NewGitignoreMatcher()
	if gm == nil || len(gm.patterns) == 0 {
		return clone
	}
	clone.patterns = make([]ignorePattern, len(gm.patterns))
	copy(clone.patterns, gm.patterns)
	return clone
}

// AddPatterns parses the content of one ignore file found in base
// (slash-relative to the traversal root, "." for the root itself) and
// appends its patterns in order.
func (gm *GitignoreMatcher) AddPatterns(content, base string) {
	for _, line := range strings.Split(content, "\n") {
		if p, ok := parseIgnoreLine(line, base); ok {
			gm.patterns = append(gm.patterns, p)
		}
	}
}

func parseIgnoreLine(line, base string) (ignorePattern, bool) {
	line = strings.TrimSuffix(line, "\r")
	line = trimUnescapedTrailingSpaces(line)
	if line == "" {
		return ignorePattern{}, false
	}
	if strings.HasPrefix(line, "#") {
		return ignorePattern{}, false
	}

	negation := false
	if strings.HasPrefix(line, "!") {
		negation = true
		line = line[1:]
	}

	dirOnly := false
	if strings.HasSuffix(line, "/") {
		dirOnly = true
		line = strings.TrimSuffix(line, "/")
	}

	anchored := false
	if strings.HasPrefix(line, "/") {
		anchored = true
		line = line[1:]
	}
	// A slash anywhere before the final component also anchors the
	// pattern to the ignore file's directory (git semantics).
	if strings.Contains(line, "/") {
		anchored = true
	}

	if line == "" {
		return ignorePattern{}, false
	}

	p := ignorePattern{
		glob:     line,
		negation: negation,
		dirOnly:  dirOnly,
		anchored: anchored,
		hasSlash: strings.Contains(line, "/"),
		base:     base,
	}

	if !strings.ContainsAny(line, "*?[\\") {
		p.literal = line
	} else if !strings.ContainsRune(line, '\\') {
		if strings.HasPrefix(line, "*") && !strings.HasPrefix(line, "**") {
			rest := line[1:]
			if rest != "" && !strings.ContainsAny(rest, "*?[") {
				p.suffix = rest
			}
		}
		if strings.HasSuffix(line, "*") && !strings.HasSuffix(line, "**") {
			head := line[:len(line)-1]
			if head != "" && !strings.ContainsAny(head, "*?[") {
				p.prefix = head
			}
		}
	}

	return p, true
}

// trimUnescapedTrailingSpaces drops trailing spaces unless escaped with
// a backslash, per gitignore parsing rules.
func trimUnescapedTrailingSpaces(line string) string {
	i := len(line) - 1
	for i >= 0 && line[i] == ' ' {
		backslashes := 0
		for j := i - 1; j >= 0 && line[j] == '\\'; j-- {
			backslashes++
		}
		if backslashes%2 == 1 {
			break
		}
		i--
	}
	return line[:i+1]
}

// Ignored reports whether the root-relative slash path is excluded.
func (gm *GitignoreMatcher) Ignored(relPath string, isDir bool) bool {
	if gm == nil {
		return false
	}
	ignored := false
	for _, p := range gm.patterns {
		if matchesIgnorePattern(relPath, isDir, p) {
			ignored = !p.negation
		}
	}
	return ignored
}

func matchesIgnorePattern(relPath string, isDir bool, p ignorePattern) bool {
	if p.dirOnly && !isDir {
		return false
	}

	checkPath := relPath
	if p.base != "." && p.base != "" {
		switch {
		case relPath == p.base:
			checkPath = path.Base(relPath)
		case strings.HasPrefix(relPath, p.base+"/"):
			checkPath = relPath[len(p.base)+1:]
		default:
			return false
		}
	}

	name := checkPath
	if idx := strings.LastIndexByte(checkPath, '/'); idx >= 0 {
		name = checkPath[idx+1:]
	}

	componentMatch := !p.hasSlash && !p.anchored

	if p.literal != "" {
		if componentMatch {
			return name == p.literal || checkPath == p.literal
		}
		return checkPath == p.literal
	}
	if p.suffix != "" && componentMatch {
		if strings.HasSuffix(name, p.suffix) || strings.HasSuffix(checkPath, p.suffix) {
			return true
		}
	}
	if p.prefix != "" && componentMatch {
		if strings.HasPrefix(name, p.prefix) || strings.HasPrefix(checkPath, p.prefix) {
			return true
		}
	}

	glob := p.glob

	if glob == "**" {
		return true
	}
	if rest, ok := strings.CutPrefix(glob, "**/"); ok {
		// Matches at any depth below the pattern's base.
		if globMatch(rest, checkPath) {
			return true
		}
		if !strings.Contains(rest, "/") && globMatch(rest, name) {
			return true
		}
		return matchesAnySuffix(rest, checkPath)
	}
	if head, ok := strings.CutSuffix(glob, "/**"); ok {
		// Everything inside the named directory.
		return checkPath == head || strings.HasPrefix(checkPath, head+"/")
	}
	if before, after, ok := strings.Cut(glob, "/**/"); ok {
		if checkPath == before {
			return globMatch(after, "")
		}
		if !strings.HasPrefix(checkPath, before+"/") {
			return false
		}
		rest := checkPath[len(before)+1:]
		if globMatch(after, rest) {
			return true
		}
		return matchesAnySuffix(after, rest)
	}

	if p.anchored {
		return globMatch(glob, checkPath)
	}

	// Unanchored single-component pattern: may match the path at any
	// directory level.
	if globMatch(glob, checkPath) {
		return true
	}
	return matchesAnySuffix(glob, checkPath)
}

// matchesAnySuffix tries the glob against every component-aligned
// suffix of the path.
func matchesAnySuffix(glob, relPath string) bool {
	for {
		idx := strings.IndexByte(relPath, '/')
		if idx < 0 {
			return false
		}
		relPath = relPath[idx+1:]
		if globMatch(glob, relPath) {
			return true
		}
	}
}

// globMatch implements gitignore-flavored fnmatch: * and ? never cross
// a path separator, [class] supports negation and ranges, \ escapes.
// A ** reaching this level degrades to *.
func globMatch(pattern, s string) bool {
	for pattern != "" {
		switch pattern[0] {
		case '*':
			for strings.HasPrefix(pattern, "*") {
				pattern = pattern[1:]
			}
			if pattern == "" {
				return !strings.Contains(s, "/")
			}
			for i := 0; ; i++ {
				if globMatch(pattern, s[i:]) {
					return true
				}
				if i >= len(s) || s[i] == '/' {
					return false
				}
			}
		case '?':
			if s == "" || s[0] == '/' {
				return false
			}
			pattern = pattern[1:]
			s = s[1:]
		case '[':
			if s == "" {
				return false
			}
			rest, ok := matchCharClass(pattern, s[0])
			if !ok {
				return false
			}
			pattern = rest
			s = s[1:]
		case '\\':
			if len(pattern) < 2 || s == "" || pattern[1] != s[0] {
				return false
			}
			pattern = pattern[2:]
			s = s[1:]
		default:
			if s == "" || pattern[0] != s[0] {
				return false
			}
			pattern = pattern[1:]
			s = s[1:]
		}
	}
	return s == ""
}

// matchCharClass matches one byte against the [class] opening the
// pattern and returns the remainder of the pattern after the class.
func matchCharClass(pattern string, c byte) (string, bool) {
	// pattern[0] == '['
	i := 1
	negate := false
	if i < len(pattern) && (pattern[i] == '!' || pattern[i] == '^') {
		negate = true
		i++
	}
	matched := false
	first := true
	for i < len(pattern) {
		if pattern[i] == ']' && !first {
			if matched != negate && c != '/' {
				return pattern[i+1:], true
			}
			return "", false
		}
		first = false
		lo := pattern[i]
		if lo == '\\' && i+1 < len(pattern) {
			i++
			lo = pattern[i]
		}
		hi := lo
		if i+2 < len(pattern) && pattern[i+1] == '-' && pattern[i+2] != ']' {
			hi = pattern[i+2]
			i += 2
		}
		if c >= lo && c <= hi {
			matched = true
		}
		i++
	}
	// No closing bracket: treat as a failed match.
	return "", false
}
