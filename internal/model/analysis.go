package model

import "time"

// Analysis is one completed brochure analysis or comparison.
type Analysis struct {
	ID       string `json:"id"`
	Mode     string `json:"mode"`
	PlanName string `json:"plan_name,omitempty"`
	// Sources lists the labels of the brochures that were read, in order.
	Sources []string `json:"sources"`
	// Dropped lists sources beyond the mode's document limit.
	Dropped    []string  `json:"dropped,omitempty"`
	Model      string    `json:"model"`
	InputChars int       `json:"input_chars"`
	Response   string    `json:"response"`
	CreatedAt  time.Time `json:"created_at"`
}
