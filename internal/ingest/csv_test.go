package ingest

import (
	"errors"
	"strings"
	"testing"
)

const header = "Project Title,Submission Url,Table Number,M Hacks Main Track,Highest Step Completed\n"

func TestLoadCSVFiltersToSubmittedRows(t *testing.T) {
	csv := header +
		"Alpha,https://a,1,AI,Submit\n" +
		"Beta,https://b,2,Web,Draft\n" +
		"Gamma,https://c,3,AI,Submit\n"

	entities, err := LoadCSV(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("LoadCSV: %v", err)
	}
	if len(entities) != 2 {
		t.Fatalf("got %d entities, want 2", len(entities))
	}
	if entities[0].ProjectName != "Alpha" || entities[1].ProjectName != "Gamma" {
		t.Fatalf("unexpected entities: %+v", entities)
	}
}

func TestLoadCSVAssignsSequentialProjectIDs(t *testing.T) {
	csv := header +
		"Alpha,https://a,1,AI,Submit\n" +
		"Beta,https://b,2,Web,Submit\n"

	entities, err := LoadCSV(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("LoadCSV: %v", err)
	}
	for i, e := range entities {
		if e.ProjectID != i {
			t.Errorf("entity %d has ProjectID %d, want %d", i, e.ProjectID, i)
		}
	}
}

func TestLoadCSVDefaultsMissingTrack(t *testing.T) {
	csv := header + "Alpha,https://a,1,,Submit\n"

	entities, err := LoadCSV(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("LoadCSV: %v", err)
	}
	if entities[0].Tracks != "No Track" {
		t.Errorf("Tracks = %q, want %q", entities[0].Tracks, "No Track")
	}
}

func TestLoadCSVMissingColumnFails(t *testing.T) {
	csv := "Project Title,Submission Url\nAlpha,https://a\n"
	if _, err := LoadCSV(strings.NewReader(csv)); !errors.Is(err, ErrMalformedCSV) {
		t.Fatalf("error = %v, want ErrMalformedCSV", err)
	}
}

func TestLoadCSVColumnOrderDoesNotMatter(t *testing.T) {
	csv := "Highest Step Completed,M Hacks Main Track,Table Number,Submission Url,Project Title\n" +
		"Submit,AI,1,https://a,Alpha\n"

	entities, err := LoadCSV(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("LoadCSV: %v", err)
	}
	if len(entities) != 1 || entities[0].ProjectName != "Alpha" {
		t.Fatalf("unexpected entities: %+v", entities)
	}
}
