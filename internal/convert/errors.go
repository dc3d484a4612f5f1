package convert

import "regexp"

// ignorablePatterns are stderr/stdout blocks that look like errors but are
// known to be harmless noise from the converter tool. Kept as a
// package-level table so new noise patterns can be added without touching
// the interpreter logic below.
var ignorablePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)failed to save key`),
	regexp.MustCompile(`(?i)implicit conversion from float`),
	regexp.MustCompile(`(?i)ffmpeg version .* likely to cause errors`),
}

var phpErrorBlock = regexp.MustCompile(`(?is)PHP (?:Warning|Fatal error):\s*(.*?)Stack trace`)
var arrayErrorBlock = regexp.MustCompile(`(?is)an error occured[\s\S]*?Array[\s\S]*?\)`)
var arrayMessageField = regexp.MustCompile(`(?im)^\s*\[message\]\s*=>\s*(.*)$`)
var hasErrorWord = regexp.MustCompile(`(?i)error`)

// interpretOutput inspects the converter's stdout for known error shapes
// and decides whether the run actually failed. It returns ("", true)
// when the output is clean or only contains ignorable noise, and
// (summary, false) when a real error was found.
//
// Each candidate "an error occured ... Array ... )" block is matched
// against the *ignorable pattern* itself, not against a previously
// captured error string — matching against the candidate directly
// catches ignorable errors the other direction would miss.
func interpretOutput(stdout string) (summary string, ok bool) {
	if !hasErrorWord.MatchString(stdout) {
		return "", true
	}

	if m := phpErrorBlock.FindStringSubmatch(stdout); m != nil {
		msg := trimBlock(m[1])
		if msg != "" {
			return msg, false
		}
	}

	block := arrayErrorBlock.FindString(stdout)
	if block == "" {
		// "error" appears somewhere but not in a recognised shape; treat
		// conservatively as a real failure so nothing is silently eaten.
		return "converter reported an error", false
	}

	for _, ignorable := range ignorablePatterns {
		if ignorable.MatchString(block) {
			return "", true
		}
	}

	if m := arrayMessageField.FindStringSubmatch(block); m != nil {
		return trimBlock(m[1]), false
	}
	return "converter reported an unrecognised error", false
}

func trimBlock(s string) string {
	for len(s) > 0 && (s[0] == '\n' || s[0] == ' ' || s[0] == '\t' || s[len(s)-1] == '\n' || s[len(s)-1] == ' ' || s[len(s)-1] == '\t') {
		if s[0] == '\n' || s[0] == ' ' || s[0] == '\t' {
			s = s[1:]
			continue
		}
		s = s[:len(s)-1]
	}
	return s
}
