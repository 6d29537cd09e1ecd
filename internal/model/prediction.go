package model

import (
	"fmt"
	"sort"
	"strconv"
)

// Prediction is a single label/confidence pair returned by a classifier.
type Prediction struct {
	Label      string  `json:"label" yaml:"label"`
	Confidence float64 `json:"confidence" yaml:"confidence"`
}

// Validate ensures the Prediction has usable data.
func (p *Prediction) Validate() error {
	if p.Label == "" {
		return fmt.Errorf("label is required")
	}

	if p.Confidence < 0.0 || p.Confidence > 1.0 {
		return fmt.Errorf("confidence must be between 0.0 and 1.0, got %.2f", p.Confidence)
	}

	return nil
}

// ConfidenceText formats the confidence with two fixed decimals.
func (p Prediction) ConfidenceText() string {
	return FormatConfidence(p.Confidence)
}

// FormatConfidence renders a confidence as a fixed two-decimal string ("0.82", "1.00").
func FormatConfidence(confidence float64) string {
	return strconv.FormatFloat(confidence, 'f', 2, 64)
}

// Predictions is a ranked list of predictions, highest confidence first.
type Predictions []Prediction

// Len implements sort.Interface.
func (p Predictions) Len() int {
	return len(p)
}

// Less implements sort.Interface - higher confidences come first.
func (p Predictions) Less(i, j int) bool {
	if p[i].Confidence != p[j].Confidence {
		return p[i].Confidence > p[j].Confidence
	}
	// Equal confidences fall back to label order for a stable display
	return p[i].Label < p[j].Label
}

// Swap implements sort.Interface.
func (p Predictions) Swap(i, j int) {
	p[i], p[j] = p[j], p[i]
}

// Sort sorts the predictions by confidence in descending order.
func (p Predictions) Sort() {
	sort.Sort(p)
}

// Top returns the highest-ranked prediction, or nil if empty.
// The list is assumed to be ranked already.
func (p Predictions) Top() *Prediction {
	if len(p) == 0 {
		return nil
	}
	return &p[0]
}

// TopN returns a copy of at most n leading predictions.
func (p Predictions) TopN(n int) Predictions {
	if n <= 0 {
		return Predictions{}
	}

	if n > len(p) {
		n = len(p)
	}

	result := make(Predictions, n)
	copy(result, p[:n])
	return result
}

// Clone returns an independent copy of the list.
func (p Predictions) Clone() Predictions {
	if p == nil {
		return nil
	}
	result := make(Predictions, len(p))
	copy(result, p)
	return result
}

// Validate ensures every prediction in the list is valid.
func (p Predictions) Validate() error {
	for i := range p {
		if err := p[i].Validate(); err != nil {
			return fmt.Errorf("invalid prediction at index %d: %w", i, err)
		}
	}
	return nil
}
