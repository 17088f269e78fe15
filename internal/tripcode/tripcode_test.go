package tripcode

import (
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		code, err := New()
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}
		if len(code) != Length {
			t.Errorf("code %q has length %d, want %d", code, len(code), Length)
		}
		for _, r := range code {
			if !strings.ContainsRune(alphabet, r) {
				t.Errorf("code %q contains invalid character %q", code, r)
			}
		}
		seen[code] = true
	}
	// 100 draws from a 31^6 space should essentially never collide.
	if len(seen) < 99 {
		t.Errorf("got %d unique codes out of 100", len(seen))
	}
}
