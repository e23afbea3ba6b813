package textutil

import "strings"

// Invisible formatting runes are made visible instead of dropped, so a
// file name crafted to reorder or hide display text stays detectable.
var formattingRuneLabels = map[rune]string{
	0x061C: "⟪ALM⟫",
	0x200B: "⟪ZWSP⟫",
	0x200C: "⟪ZWNJ⟫",
	0x200D: "⟪ZWJ⟫",
	0x200E: "⟪LRM⟫",
	0x200F: "⟪RLM⟫",
	0x202A: "⟪LRE⟫",
	0x202B: "⟪RLE⟫",
	0x202C: "⟪PDF⟫",
	0x202D: "⟪LRO⟫",
	0x202E: "⟪RLO⟫",
	0x2028: "⟪LSEP⟫",
	0x2029: "⟪PSEP⟫",
	0x00AD: "⟪SHY⟫",
	0x2060: "⟪WJ⟫",
	0x2066: "⟪LRI⟫",
	0x2067: "⟪RLI⟫",
	0x2068: "⟪FSI⟫",
	0x2069: "⟪PDI⟫",
	0xFEFF: "⟪BOM⟫",
}

// SanitizePath replaces control characters and invisible formatting
// runes in a path so it cannot inject terminal escape sequences or
// break the one-path-per-line output contract.
func SanitizePath(path string) string {
	for _, r := range path {
		if requiresSanitization(r) {
			return sanitize(path)
		}
	}
	return path
}

func requiresSanitization(r rune) bool {
	if r < 0x20 || r == 0x7f {
		return true
	}
	_, formatting := formattingRuneLabels[r]
	return formatting
}

func sanitize(path string) string {
	var b strings.Builder
	b.Grow(len(path))
	for _, r := range path {
		switch {
		case r < 0x20 || r == 0x7f:
			b.WriteByte('?')
		default:
			if label, ok := formattingRuneLabels[r]; ok {
				b.WriteString(label)
			} else {
				b.WriteRune(r)
			}
		}
	}
	return b.String()
}
