package postcode

import (
	"slices"
	"testing"
)

func TestFind(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{name: "lowercase address", input: "10 high st, tamworth b77 2nz", expect: "B77 2NZ"},
		{name: "single digit district", input: "5 Low Rd, M1 1AA", expect: "M1 1AA"},
		{name: "two letter area", input: "SW1A 1AA London", expect: "SW1A 1AA"},
		{name: "no space is not a postcode", input: "B772NZ", expect: ""},
		{name: "empty", input: "", expect: ""},
		{name: "embedded in a word", input: "XB77 2NZX", expect: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Find(tt.input); got != tt.expect {
				t.Fatalf("expected %q, got %q", tt.expect, got)
			}
		})
	}
}

func TestFindAllKeepsOrder(t *testing.T) {
	got := FindAll("Collect from 10 High St, B77 2NZ deliver to 5 Low Rd, M1 1AA. Price £150")
	expect := []string{"B77 2NZ", "M1 1AA"}
	if !slices.Equal(got, expect) {
		t.Fatalf("expected %v, got %v", expect, got)
	}
}

func TestNormalize(t *testing.T) {
	if got := Normalize("  b77 2nz \n"); got != "B77 2NZ" {
		t.Fatalf("unexpected normalized postcode: %q", got)
	}
}
