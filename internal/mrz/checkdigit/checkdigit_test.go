package checkdigit

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValue(t *testing.T) {
	assert.Equal(t, 0, Value('<'))
	assert.Equal(t, 0, Value('0'))
	assert.Equal(t, 9, Value('9'))
	assert.Equal(t, 10, Value('A'))
	assert.Equal(t, 35, Value('Z'))
	assert.Equal(t, 0, Value('#'), "characters outside the alphabet count as filler")
}

func TestCalculate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"document number", "L898902C<", "3"},
		{"date of birth", "800101", "4"},
		{"expiry date", "300101", "9"},
		{"icao specimen document number", "L898902C3", "6"},
		{"icao specimen birth date", "740812", "2"},
		{"icao specimen expiry", "120415", "9"},
		{"empty string", "", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Calculate(tt.input))
		})
	}
}

func TestCalculate_AllFillerIsZero(t *testing.T) {
	for n := 0; n <= 44; n++ {
		assert.Equal(t, "0", Calculate(strings.Repeat("<", n)), "length %d", n)
	}
}

func TestVerify(t *testing.T) {
	assert.True(t, Verify("800101", "4"))
	assert.False(t, Verify("800101", "5"))
}

// FuzzCalculate checks that the engine is total over arbitrary input and always
// yields a single decimal digit.
func FuzzCalculate(f *testing.F) {
	f.Add("L898902C<")
	f.Add("<<<<<<<<<<<<<<")
	f.Add("")
	f.Add("abc\x00\xff")

	f.Fuzz(func(t *testing.T, input string) {
		got := Calculate(input)
		if len(got) != 1 || got[0] < '0' || got[0] > '9' {
			t.Fatalf("Calculate(%q) = %q, want single digit", input, got)
		}
		if got != Calculate(input) {
			t.Fatalf("Calculate(%q) is not deterministic", input)
		}
	})
}
