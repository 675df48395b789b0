package models

import (
	"strings"
	"testing"
	"time"
)

func TestNewEntity(t *testing.T) {
	e := NewEntity("Architect", "The Architect", CategorySilver)

	if len(e.ID) != 8 {
		t.Errorf("ID = %q, want 8 characters", e.ID)
	}
	if e.Name != "Architect" {
		t.Errorf("Name = %q, want %q", e.Name, "Architect")
	}
	if e.State.Initialized {
		t.Error("new entity should not be initialized")
	}
	if e.State.Frequency != 700.0 {
		t.Errorf("Frequency = %v, want 700", e.State.Frequency)
	}
	if e.State.Precision != 0 || e.State.Flow != 0 || e.State.Coherence != 0 {
		t.Errorf("new entity metrics should be zero, got %+v", e.State)
	}
	if len(e.Log) != 0 {
		t.Errorf("new entity should have empty log, got %d entries", len(e.Log))
	}
}

func TestNewEntity_UniqueIDs(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		id := NewEntity("x", "", CategoryVoid).ID
		if seen[id] {
			t.Fatalf("duplicate ID %s", id)
		}
		seen[id] = true
	}
}

func TestEntity_PerformTask(t *testing.T) {
	e := NewEntity("Fury", "The Fury", CategoryCrimson)
	at := time.Date(2025, 12, 8, 10, 0, 0, 0, time.UTC)

	e.PerformTask(at, "Aggressive acquisition")

	if len(e.Log) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(e.Log))
	}
	got := e.Log[0].String()
	if !strings.HasPrefix(got, "[2025-12-08T10:00:00Z]") {
		t.Errorf("log entry %q missing timestamp prefix", got)
	}
	if !strings.HasSuffix(got, "TASK EXECUTED: Aggressive acquisition") {
		t.Errorf("log entry %q missing task text", got)
	}
}
