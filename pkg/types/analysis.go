package types

import "time"

// TrainingModule is a unit of study produced by document analysis and
// consumed by the planner
type TrainingModule struct {
	Title            string `json:"title" yaml:"title"`
	Description      string `json:"description,omitempty" yaml:"description,omitempty"`
	EstimatedMinutes int    `json:"estimated_minutes" yaml:"estimated_minutes"`
}

// ExtractedDocument is the text and basic metrics pulled out of an upload
type ExtractedDocument struct {
	Filename    string  `json:"filename"`
	Format      string  `json:"format"` // "pdf", "docx", "txt"
	Text        string  `json:"text"`
	NumPages    int     `json:"num_pages"`
	UsefulRatio float64 `json:"useful_ratio"` // 0-1, share of non-empty lines or paragraphs
}

// Analysis is the structured result of analyzing a document
type Analysis struct {
	ID              string           `json:"id,omitempty"`
	Filename        string           `json:"filename,omitempty"`
	Language        string           `json:"language,omitempty"` // ISO-639-1 or "unknown"
	Provider        string           `json:"provider,omitempty"`
	CreatedAt       *time.Time       `json:"created_at,omitempty"`
	Summary         string           `json:"summary"`
	KeyPoints       []string         `json:"key_points"`
	TrainingModules []TrainingModule `json:"training_modules"`
	NumPages        int              `json:"num_pages"`
	UsefulTextRatio float64          `json:"useful_text_ratio"`
	NumKeyPoints    int              `json:"num_key_points"`
}

// TotalMinutes sums the estimated duration of all training modules
func (a *Analysis) TotalMinutes() int {
	total := 0
	for _, m := range a.TrainingModules {
		total += m.EstimatedMinutes
	}
	return total
}
