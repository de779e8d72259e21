package units

import "testing"

func TestSymbol(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"micron", "µm"},
		{"microns", "µm"},
		{"micrometer", "µm"},
		{"um", "µm"},
		{"µm", "µm"},
		{"nanometer", "nm"},
		{"nm", "nm"},
		{"millimetre", "mm"},
		{"", "unit"},
		{"parsec", "parsec"},
	}
	for _, c := range cases {
		if got := Symbol(c.in); got != c.want {
			t.Errorf("Symbol(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestPowered(t *testing.T) {
	if got := Powered("micron", 3); got != "µm^3" {
		t.Errorf("Powered(micron, 3) = %q", got)
	}
	if got := Powered("micron", 2); got != "µm^2" {
		t.Errorf("Powered(micron, 2) = %q", got)
	}
	if got := Powered("micron", 1); got != "µm" {
		t.Errorf("Powered(micron, 1) = %q", got)
	}
	if got := Powered("", 3); got != "unit^3" {
		t.Errorf("Powered(\"\", 3) = %q", got)
	}
}
