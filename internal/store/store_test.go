package store

import (
	"testing"

	"github.com/mhacks/dredd-judging/internal/model"
)

func TestGetOutOfRangeReturnsFalse(t *testing.T) {
	s := New([]model.Entity{{ProjectID: 0}, {ProjectID: 1}})
	if _, ok := s.Get(5); ok {
		t.Fatalf("Get(5) should report false for a 2-entity store")
	}
	if _, ok := s.Get(-1); ok {
		t.Fatalf("Get(-1) should report false")
	}
}

func TestAllReturnsDefensiveCopy(t *testing.T) {
	original := []model.Entity{{ProjectID: 0, ProjectName: "A"}}
	s := New(original)
	all := s.All()
	all[0].ProjectName = "mutated"

	got, _ := s.Get(0)
	if got.ProjectName != "A" {
		t.Fatalf("mutating All()'s result leaked into the store: %q", got.ProjectName)
	}
}

func TestLenMatchesConstructorInput(t *testing.T) {
	s := New([]model.Entity{{}, {}, {}})
	if s.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", s.Len())
	}
}
