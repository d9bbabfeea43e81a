package version

import (
	"strings"
	"testing"
)

func TestString(t *testing.T) {
	v, c, d := Info()
	s := String()
	for _, part := range []string{v, c, d} {
		if !strings.Contains(s, part) {
			t.Errorf("String() = %q, missing %q", s, part)
		}
	}
}
