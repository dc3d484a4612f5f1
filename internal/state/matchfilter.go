package state

import "regexp"

// NameMatches reports whether basename satisfies re, the configured
// match filter. A nil re (no filter configured) matches everything.
func NameMatches(re *regexp.Regexp, basename string) bool {
	if re == nil {
		return true
	}
	return re.MatchString(basename)
}
