//go:build go1.18

package domain

import (
	"testing"
)

// FuzzParsePrincipal checks that parsing never panics on arbitrary input and
// that accepted values round-trip unchanged.
func FuzzParsePrincipal(f *testing.F) {
	f.Add("")
	f.Add("NNtxeX9UhKfHySqPQ29hQEZc2MutFjCsvy")
	f.Add("0OIl")
	f.Add("'; DROP TABLE identities;--")
	f.Add(string([]byte{0x00, 0x17, 0xff}))

	f.Fuzz(func(t *testing.T, input string) {
		p, err := ParsePrincipal(input)
		if err != nil {
			return
		}
		again, err2 := ParsePrincipal(p.String())
		if err2 != nil {
			t.Errorf("accepted principal failed round-trip: %v", err2)
		}
		if again != p {
			t.Error("round-trip changed principal value")
		}
	})
}
