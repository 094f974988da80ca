package sha256

import "testing"

func TestHashIsHexAndStable(t *testing.T) {
	t.Parallel()

	h := New()
	a, err := h.Hash([]byte("https://example.com/privacy"))
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	b, err := h.Hash([]byte("https://example.com/privacy"))
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	if a != b {
		t.Errorf("same input hashed differently: %q vs %q", a, b)
	}
	if len(a) != 64 {
		t.Errorf("digest length = %d, want 64", len(a))
	}
}

func TestShortTruncates(t *testing.T) {
	t.Parallel()

	full, _ := New().Hash([]byte("data"))
	short := Short([]byte("data"), 10)
	if len(short) != 10 {
		t.Fatalf("Short length = %d, want 10", len(short))
	}
	if full[:10] != short {
		t.Errorf("Short = %q, want prefix of %q", short, full)
	}
	if got := Short([]byte("data"), 0); got != full {
		t.Errorf("Short with n=0 = %q, want full digest", got)
	}
	if got := Short([]byte("data"), 1000); got != full {
		t.Errorf("Short with oversized n = %q, want full digest", got)
	}
}
