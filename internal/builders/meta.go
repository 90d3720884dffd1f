package builders

import "time"

// FormatVersion is the single supported artifact schema version.
const FormatVersion = "1"

// Meta heads every artifact document.
type Meta struct {
	FormatVersion string `json:"format_version"`
	Generated     string `json:"generated"`
	Project       string `json:"project"`
	RunID         string `json:"run_id"`
}

func NewMeta(project, runID string) Meta {
	return Meta{
		FormatVersion: FormatVersion,
		Generated:     time.Now().UTC().Format(time.RFC3339),
		Project:       project,
		RunID:         runID,
	}
}
