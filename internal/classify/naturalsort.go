package classify

import (
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Implemented directly against the standard library rather than a
// third-party natural-sort package (see DESIGN.md).

var digitRun = regexp.MustCompile(`\d+`)

// naturalKey splits s into alternating digit and non-digit runs, e.g.
// "Chapter 10" -> ["Chapter ", "10", ""].
func naturalKey(s string) []string {
	var runs []string
	last := 0
	for _, loc := range digitRun.FindAllStringIndex(s, -1) {
		if loc[0] > last {
			runs = append(runs, s[last:loc[0]])
		} else {
			runs = append(runs, "")
		}
		runs = append(runs, s[loc[0]:loc[1]])
		last = loc[1]
	}
	runs = append(runs, s[last:])
	return runs
}

// lessNatural compares two strings by alternating digit/non-digit runs:
// digit runs compare numerically, non-digit runs compare
// case-insensitively. It must place "Chapter 2" before "Chapter 10".
func lessNatural(a, b string) bool {
	ra, rb := naturalKey(a), naturalKey(b)
	n := len(ra)
	if len(rb) < n {
		n = len(rb)
	}
	for i := 0; i < n; i++ {
		sa, sb := ra[i], rb[i]
		if sa == sb {
			continue
		}
		na, errA := strconv.Atoi(sa)
		nb, errB := strconv.Atoi(sb)
		if errA == nil && errB == nil {
			if na != nb {
				return na < nb
			}
			continue
		}
		la, lb := strings.ToLower(sa), strings.ToLower(sb)
		if la != lb {
			return la < lb
		}
	}
	return len(ra) < len(rb)
}

// SortNatural sorts paths in place by the natural order of their
// basenames, so "Chapter 2.mp3" precedes "Chapter 10.mp3".
func SortNatural(paths []string) {
	sort.SliceStable(paths, func(i, j int) bool {
		return lessNatural(filepath.Base(paths[i]), filepath.Base(paths[j]))
	})
}

// NaturalLess exposes the comparator directly for callers that already
// hold bare names rather than paths.
func NaturalLess(a, b string) bool {
	return lessNatural(a, b)
}
