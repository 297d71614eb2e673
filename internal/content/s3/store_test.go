package s3content

import (
	"testing"
)

func TestCIDDeterministic(t *testing.T) {
	a := CID([]byte("tunemarket"))
	b := CID([]byte("tunemarket"))
	if a != b {
		t.Errorf("CID not deterministic: %s vs %s", a, b)
	}
	if len(a) != 64 {
		t.Errorf("CID length = %d, want 64 hex chars", len(a))
	}
	if a == CID([]byte("tunemarket!")) {
		t.Error("different content produced the same CID")
	}
}

func TestCIDKnownVector(t *testing.T) {
	// SHA3-256 of the empty string.
	const empty = "a7ffc6f8bf1ed76651c14756a061d662f580ff4de43b49fa82d80a4b80f8434a"
	if got := CID(nil); got != empty {
		t.Errorf("CID(nil) = %s, want %s", got, empty)
	}
}
