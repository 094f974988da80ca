package uuid

import (
	"testing"

	guuid "github.com/google/uuid"
)

func TestNewIDIsUUIDv7(t *testing.T) {
	t.Parallel()

	gen := New()
	id, err := gen.NewID()
	if err != nil {
		t.Fatalf("NewID() error = %v", err)
	}
	parsed, err := guuid.Parse(id)
	if err != nil {
		t.Fatalf("NewID() returned unparseable id %q: %v", id, err)
	}
	if parsed.Version() != 7 {
		t.Errorf("uuid version = %d, want 7", parsed.Version())
	}
}

func TestNewIDIsUnique(t *testing.T) {
	t.Parallel()

	gen := New()
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id, err := gen.NewID()
		if err != nil {
			t.Fatalf("NewID() error = %v", err)
		}
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}
