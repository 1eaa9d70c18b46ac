package storage

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/inspiral/internal/dynamo"
)

type ExportData struct {
	RunMetadata
	Columns []string       `json:"columns"`
	Times   []float64      `json:"times"`
	States  []dynamo.State `json:"states"`
}

// ExportJSON writes a stored run as a single JSON document.
func (s *Store) ExportJSON(w io.Writer, runID string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	states, times, err := s.LoadStates(runID)
	if err != nil {
		return err
	}

	data := ExportData{
		RunMetadata: *meta,
		Columns:     stateColumns,
		Times:       times,
		States:      states,
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// ExportJSONFile is ExportJSON into a new file at path.
func (s *Store) ExportJSONFile(path, runID string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := s.ExportJSON(f, runID); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
