package classify

import "testing"

func TestRomanValue(t *testing.T) {
	cases := map[string]int{
		"I":    1,
		"IV":   4,
		"IX":   9,
		"XL":   40,
		"L":    50,
		"C":    100,
		"Live": 0, // not a valid standalone roman numeral reading
	}
	for tok, want := range cases {
		if got := romanValue(tok); got != want {
			t.Errorf("romanValue(%q) = %d, want %d", tok, got, want)
		}
	}
}

func TestRomanNumeralsAffectOrder_NoNumerals(t *testing.T) {
	names := []string{"Chapter 1.mp3", "Chapter 2.mp3", "Chapter 3.mp3"}
	if RomanNumeralsAffectOrder(names) {
		t.Error("expected no effect on order without roman numerals")
	}
}

func TestRomanNumeralsAffectOrder_Affected(t *testing.T) {
	// With the numerals present, "IV" < "IX" lexically so "Book IV..."
	// sorts before "Book IX...". Strip both numerals and the remaining
	// text ("One" vs "Two") reverses that order.
	names := []string{"Book IX Part One.mp3", "Book IV Part Two.mp3"}
	if !RomanNumeralsAffectOrder(names) {
		t.Error("expected roman numerals to affect order")
	}
}

func TestRomanNumeralsAffectOrder_LiveNotNumeral(t *testing.T) {
	names := []string{"Live at the Opera.mp3", "Live Forever.mp3"}
	if RomanNumeralsAffectOrder(names) {
		t.Error("'Live' must not be treated as a roman numeral token")
	}
}

func TestStripRomanTokens(t *testing.T) {
	if got := stripRomanTokens("Live Forever"); got != "Live Forever" {
		t.Errorf("stripRomanTokens(%q) = %q, want unchanged", "Live Forever", got)
	}
	if got := stripRomanTokens("Part IV"); got == "Part IV" {
		t.Errorf("stripRomanTokens(%q) should have removed the numeral", "Part IV")
	}
}
