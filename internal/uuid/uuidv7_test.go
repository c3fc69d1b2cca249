package uuid

import (
	"testing"

	googleuuid "github.com/google/uuid"
)

func TestNew(t *testing.T) {
	id := New()
	parsed, err := googleuuid.Parse(id)
	if err != nil {
		t.Fatalf("expected valid uuid, got %q: %v", id, err)
	}
	if parsed.Version() != 7 {
		t.Errorf("expected version 7, got %d", parsed.Version())
	}
}

func TestNew_Ordered(t *testing.T) {
	a := New()
	b := New()
	if a >= b {
		t.Errorf("expected %s < %s", a, b)
	}
}

func TestIsValid(t *testing.T) {
	if !IsValid(NewClientID()) {
		t.Error("client id should be valid")
	}
	if IsValid("not-a-uuid") {
		t.Error("expected invalid")
	}
}
