//go:build go1.18

package domain

import "testing"

// FuzzParseApplicationID checks that parsing never panics and that accepted
// ids round-trip.
func FuzzParseApplicationID(f *testing.F) {
	f.Add("")
	f.Add("550e8400-e29b-41d4-a716-446655440000")
	f.Add("00000000-0000-0000-0000-000000000000")
	f.Add("not-a-uuid")
	f.Add(string([]byte{0x00, 0x01, 0x02}))

	f.Fuzz(func(t *testing.T, input string) {
		id, err := ParseApplicationID(input)
		if err != nil {
			return
		}
		if id.IsNil() {
			t.Fatal("accepted a nil id")
		}
		again, err := ParseApplicationID(id.String())
		if err != nil || again != id {
			t.Fatalf("round-trip failed for %q", input)
		}
	})
}
