package search

import (
	"bufio"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
)

// ignoreFileNames are the per-directory pattern files, lowest priority
// first so later files can override with negations.
var ignoreFileNames = []string{".gitignore", ".ignore", ".ffindignore"}

// ignoreProvider resolves the effective ignore rule set for each
// directory of one traversal. Rules accumulate down the tree: a
// directory's matcher is its parent's plus the pattern files found in
// the directory itself. The provider is owned by a single search call;
// the cache is concurrency-safe because directory workers resolve
// matchers in parallel.
type ignoreProvider struct {
	root  string
	cache sync.Map // rel dir key -> *GitignoreMatcher
}

func newIgnoreProvider(root string) *ignoreProvider {
	p := &ignoreProvider{root: root}

	base := NewGitignoreMatcher()
	p.applyGlobalPatterns(base)
	p.addPatternFileIfExists(base, filepath.Join(root, ".git", "info", "exclude"), ".")
	p.applyDirectoryPatterns(base, ".")
	p.cache.Store(".", base)

	return p
}

// MatcherFor returns the matcher in effect for the given root-relative
// directory, building and caching ancestors as needed.
func (p *ignoreProvider) MatcherFor(relDir string) *GitignoreMatcher {
	key := normalizeDirKey(relDir)

	if m, ok := p.cache.Load(key); ok {
		return m.(*GitignoreMatcher)
	}

	parent := p.MatcherFor(parentDirKey(key))
	child := parent.Clone()
	p.applyDirectoryPatterns(child, key)

	p.cache.Store(key, child)
	return child
}

func (p *ignoreProvider) applyDirectoryPatterns(matcher *GitignoreMatcher, relDir string) {
	dir := p.root
	if relDir != "." {
		dir = filepath.Join(p.root, filepath.FromSlash(relDir))
	}
	for _, name := range ignoreFileNames {
		p.addPatternFileIfExists(matcher, filepath.Join(dir, name), relDir)
	}
}

// userGlobalIgnoreFiles lists candidate user-wide ignore files outside
// the repo. A variable so tests can pin it and stay independent of the
// runner's home directory.
var userGlobalIgnoreFiles = func() []string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return nil
	}
	return []string{
		filepath.Join(home, ".gitignore"),
		filepath.Join(home, ".gitignore_global"),
		filepath.Join(home, ".config", "git", "ignore"),
	}
}

func (p *ignoreProvider) applyGlobalPatterns(matcher *GitignoreMatcher) {
	seen := make(map[string]struct{})

	add := func(candidate string) {
		if candidate == "" {
			return
		}
		if _, ok := seen[candidate]; ok {
			return
		}
		if p.addPatternFileIfExists(matcher, candidate, ".") {
			seen[candidate] = struct{}{}
		}
	}

	add(p.coreExcludesFile())

	for _, candidate := range userGlobalIgnoreFiles() {
		add(candidate)
	}
}

func (p *ignoreProvider) addPatternFileIfExists(matcher *GitignoreMatcher, filePath, base string) bool {
	info, err := os.Stat(filePath)
	if err != nil || info.IsDir() {
		return false
	}
	data, err := os.ReadFile(filePath)
	if err != nil || len(data) == 0 {
		return false
	}
	matcher.AddPatterns(string(data), base)
	return true
}

// coreExcludesFile reads core.excludesFile from the repo's .git/config,
// if any, so the user's configured global ignore file applies.
func (p *ignoreProvider) coreExcludesFile() string {
	file, err := os.Open(filepath.Join(p.root, ".git", "config"))
	if err != nil {
		return ""
	}
	defer func() {
		_ = file.Close()
	}()

	scanner := bufio.NewScanner(file)
	inCore := false
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") {
			continue
		}
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			inCore = strings.HasPrefix(strings.ToLower(line), "[core")
			continue
		}
		if !inCore {
			continue
		}
		if !strings.HasPrefix(strings.ToLower(line), "excludesfile") {
			continue
		}
		value := line
		if idx := strings.Index(line, "="); idx >= 0 {
			value = strings.TrimSpace(line[idx+1:])
		} else {
			fields := strings.Fields(line)
			if len(fields) < 2 {
				continue
			}
			value = strings.Join(fields[1:], " ")
		}
		value = expandUserPath(value)
		if value == "" {
			continue
		}
		if !filepath.IsAbs(value) {
			value = filepath.Join(p.root, value)
		}
		return value
	}
	return ""
}

func expandUserPath(value string) string {
	value = strings.TrimSpace(value)
	if !strings.HasPrefix(value, "~") {
		return value
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return value
	}
	if value == "~" {
		return home
	}
	if strings.HasPrefix(value, "~/") {
		return filepath.Join(home, value[2:])
	}
	return value
}

func normalizeDirKey(relDir string) string {
	if relDir == "" {
		return "."
	}
	cleaned := filepath.ToSlash(filepath.Clean(relDir))
	cleaned = strings.TrimPrefix(cleaned, "./")
	if cleaned == "" || cleaned == "." || cleaned == "/" {
		return "."
	}
	return cleaned
}

func parentDirKey(relDir string) string {
	if relDir == "." {
		return "."
	}
	parent := path.Dir(relDir)
	if parent == "." || parent == "/" {
		return "."
	}
	return parent
}
