// Package export writes finished simulation runs to disk for offline
// inspection, either as a JSON record or as an SVG trajectory plot.
package export

import (
	"encoding/json"
	"os"
)

// Run captures the sampled output of one finished simulation.
type Run struct {
	Scene              string    `json:"scene"`
	Dt                 float64   `json:"dt"`
	Duration           float64   `json:"duration"`
	Steps              int       `json:"steps"`
	Bodies             int       `json:"bodies"`
	Times              []float64 `json:"times"`
	Samples            []float64 `json:"samples"`
	ContactEvents      int       `json:"contact_events"`
	IntersectionEvents int       `json:"intersection_events"`
}

// WriteJSON writes the run record to path, indented.
func WriteJSON(path string, run *Run) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	return encoder.Encode(run)
}
