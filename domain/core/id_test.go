package core

import (
	"testing"
)

// TestNewIDUniqueness tests that NewID generates unique identifiers
func TestNewIDUniqueness(t *testing.T) {
	const numIDs = 1000

	ids := make(map[ID]bool, numIDs)
	for i := 0; i < numIDs; i++ {
		id := NewID()
		if id.IsEmpty() {
			t.Errorf("Generated empty ID at iteration %d", i)
		}
		if ids[id] {
			t.Errorf("Generated duplicate ID: %s", id)
		}
		ids[id] = true
	}
}

func TestIDString(t *testing.T) {
	id := ID("test-123")
	if id.String() != "test-123" {
		t.Errorf("Expected String() to return 'test-123', got '%s'", id.String())
	}
}

func TestParseSessionID(t *testing.T) {
	id, err := ParseSessionID("abc")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if id.String() != "abc" {
		t.Errorf("Expected 'abc', got '%s'", id)
	}

	if _, err := ParseSessionID(""); err == nil {
		t.Error("Expected error for empty session ID")
	}
}

func TestParseDatasetID(t *testing.T) {
	if _, err := ParseDatasetID(""); err == nil {
		t.Error("Expected error for empty dataset ID")
	}
}
