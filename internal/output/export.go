package output

import (
	"encoding/json"
	"io"

	"github.com/corpusarch/carch/internal/models"
)

// Export is the JSON shape of a full survey export.
type Export struct {
	Run      models.SurveyRun      `json:"run"`
	Versions []models.Version      `json:"versions"`
	Changes  []models.ChangeRecord `json:"changes,omitempty"`
}

// WriteJSON writes a survey export as indented JSON.
func WriteJSON(w io.Writer, export Export) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(export)
}
