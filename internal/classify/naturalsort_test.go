package classify

import "testing"

func TestNaturalLess(t *testing.T) {
	cases := []struct {
		a, b string
		want bool
	}{
		{"Chapter 2.mp3", "Chapter 10.mp3", true},
		{"Chapter 10.mp3", "Chapter 2.mp3", false},
		{"track01.mp3", "track2.mp3", true},
		{"a.mp3", "a.mp3", false},
		{"Part I.mp3", "Part II.mp3", true},
	}
	for _, c := range cases {
		if got := NaturalLess(c.a, c.b); got != c.want {
			t.Errorf("NaturalLess(%q, %q) = %v, want %v", c.a, c.b, got, c.want)
		}
	}
}

func TestSortNatural(t *testing.T) {
	in := []string{"Chapter 10.mp3", "Chapter 2.mp3", "Chapter 1.mp3"}
	SortNatural(in)
	want := []string{"Chapter 1.mp3", "Chapter 2.mp3", "Chapter 10.mp3"}
	for i := range want {
		if in[i] != want[i] {
			t.Fatalf("SortNatural = %v, want %v", in, want)
		}
	}
}
