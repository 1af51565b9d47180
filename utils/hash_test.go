package utils

import "testing"

func TestHashIdentifier(t *testing.T) {
	a := HashIdentifier("salt", "203.0.113.7")
	if len(a) != 32 {
		t.Fatalf("len = %d, want 32", len(a))
	}
	if a != HashIdentifier("salt", "203.0.113.7") {
		t.Error("hash should be stable")
	}
	if a == HashIdentifier("other", "203.0.113.7") {
		t.Error("salt should change the hash")
	}
	if a == HashIdentifier("salt", "203.0.113.8") {
		t.Error("different values should not collide")
	}
}
