// Package ingest parses the hackathon entity list from CSV, following the
// column contract spec.md §6 fixes: only submitted rows are retained, and
// project_id is assigned by filtered position, not by CSV row number.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/mhacks/dredd-judging/internal/model"
)

// ErrMalformedCSV is returned when the upload is missing a required
// header column.
var ErrMalformedCSV = errors.New("ingest: malformed csv")

const (
	colTitle     = "Project Title"
	colLink      = "Submission Url"
	colTable     = "Table Number"
	colTrack     = "M Hacks Main Track"
	colStep      = "Highest Step Completed"
	submitStatus = "Submit"
	noTrack      = "No Track"
)

// LoadCSV reads the entity list from r and returns the filtered,
// zero-indexed sequence of entities: only rows whose "Highest Step
// Completed" column equals "Submit" are kept, in their original order.
func LoadCSV(r io.Reader) ([]model.Entity, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: reading header: %v", ErrMalformedCSV, err)
	}

	index := make(map[string]int, len(header))
	for i, h := range header {
		index[h] = i
	}
	for _, required := range []string{colTitle, colLink, colTable, colStep} {
		if _, ok := index[required]; !ok {
			return nil, fmt.Errorf("%w: missing column %q", ErrMalformedCSV, required)
		}
	}

	get := func(row []string, col string) string {
		i, ok := index[col]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	var entities []model.Entity
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedCSV, err)
		}

		if get(row, colStep) != submitStatus {
			continue
		}

		track := get(row, colTrack)
		if track == "" {
			track = noTrack
		}

		entities = append(entities, model.Entity{
			ProjectID:   len(entities),
			ProjectName: get(row, colTitle),
			DevpostLink: get(row, colLink),
			TableNum:    get(row, colTable),
			Tracks:      track,
		})
	}

	return entities, nil
}
