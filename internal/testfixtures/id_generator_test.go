package testfixtures

import "testing"

func TestIDGenerator_Sequence(t *testing.T) {
	t.Parallel()

	gen := NewIDGenerator("booking")
	if got := gen.Next(); got != "booking-1" {
		t.Fatalf("expected booking-1, got %s", got)
	}
	if got := gen.Next(); got != "booking-2" {
		t.Fatalf("expected booking-2, got %s", got)
	}
}

func TestIDGenerator_DefaultPrefix(t *testing.T) {
	t.Parallel()

	gen := NewIDGenerator("")
	if got := gen.Next(); got != "id-1" {
		t.Fatalf("expected id-1, got %s", got)
	}
}

func TestIDGenerator_NilNextFunc(t *testing.T) {
	t.Parallel()

	var gen *IDGenerator
	if got := gen.NextFunc()(); got != "" {
		t.Fatalf("expected empty id from nil generator, got %s", got)
	}
}
