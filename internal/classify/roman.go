package classify

import (
	"path/filepath"
	"regexp"
	"sort"
)

// romanToken matches a whole-word roman numeral: a token must be a
// *whole* path-segment word to count, so "IV" inside "Live" never
// matches.
var romanToken = regexp.MustCompile(`(?i)\b(M{0,4}(CM|CD|D?C{0,3})(XC|XL|L?X{0,3})(IX|IV|V?I{0,3}))\b`)

var romanValues = map[rune]int{
	'I': 1, 'V': 5, 'X': 10, 'L': 50, 'C': 100, 'D': 500, 'M': 1000,
}

// romanValue returns the integer value of a roman numeral token, or 0 if
// it's empty or not a valid numeral (e.g. the empty match the regex can
// produce for non-numeral words).
func romanValue(tok string) int {
	total := 0
	runes := []rune(tok)
	for i, r := range runes {
		v, ok := romanValues[toUpper(r)]
		if !ok {
			return 0
		}
		if i+1 < len(runes) {
			if nv, ok := romanValues[toUpper(runes[i+1])]; ok && nv > v {
				total -= v
				continue
			}
		}
		total += v
	}
	return total
}

func toUpper(r rune) rune {
	if r >= 'a' && r <= 'z' {
		return r - ('a' - 'A')
	}
	return r
}

// stripRomanTokens removes every whole-word roman-numeral token (with
// value > 0) from name.
func stripRomanTokens(name string) string {
	return romanToken.ReplaceAllStringFunc(name, func(tok string) string {
		if romanValue(tok) > 0 {
			return ""
		}
		return tok
	})
}

// RomanNumeralsAffectOrder reports whether the names in a directory
// contain roman numerals in positions that affect sort order: true iff
// stripping every roman-numeral token from every name, then naturally
// sorting, produces a different order than naturally sorting the
// original names. Used by the pipeline to flag a book for manual fixing
// rather than auto-processing an ambiguous chapter order.
func RomanNumeralsAffectOrder(names []string) bool {
	if len(names) < 2 {
		return false
	}

	withNumerals := make([]string, len(names))
	copy(withNumerals, names)
	sort.SliceStable(withNumerals, func(i, j int) bool {
		return lessNatural(withNumerals[i], withNumerals[j])
	})

	stripped := make([]string, len(names))
	for i, n := range names {
		stripped[i] = stripRomanTokens(n)
	}
	order := make([]int, len(names))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return lessNatural(stripped[order[i]], stripped[order[j]])
	})

	originalOrder := make([]int, len(names))
	for i := range originalOrder {
		originalOrder[i] = i
	}
	sort.SliceStable(originalOrder, func(i, j int) bool {
		return lessNatural(names[originalOrder[i]], names[originalOrder[j]])
	})

	for i := range order {
		if order[i] != originalOrder[i] {
			return true
		}
	}
	return false
}

// RomanNumeralsAffectOrderInFiles is a convenience wrapper over file paths.
func RomanNumeralsAffectOrderInFiles(paths []string) bool {
	names := make([]string, len(paths))
	for i, p := range paths {
		names[i] = filepath.Base(p)
	}
	return RomanNumeralsAffectOrder(names)
}
