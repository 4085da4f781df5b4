// Package heuristic provides rule-based stand-ins for the language model
// behind diagnosis and customer outreach.
package heuristic

import (
	"context"
	"strings"

	"github.com/aretw0/pitstop/pkg/domain"
)

// Thresholds used by the Classifier.
const (
	NominalPressurePSI = 550.0
	MinPadThicknessMM  = 3.0
)

// Classifier picks a category from the record's trouble code, falling back
// to brake wear signals.
type Classifier struct {
	// LowPressurePSI marks brake fluid pressure as abnormal below it.
	LowPressurePSI float64
}

// NewClassifier creates a classifier flagging pressure below lowPressurePSI.
func NewClassifier(lowPressurePSI float64) *Classifier {
	return &Classifier{LowPressurePSI: lowPressurePSI}
}

// Classify answers with one of valid, or "Unknown" if no rule applies.
func (c *Classifier) Classify(ctx context.Context, vehicleID string, rec domain.TelemetryRecord, valid []domain.Category) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if code := strings.TrimSpace(rec.DTCCode); code != "" {
		for _, cat := range valid {
			if strings.EqualFold(cat.DTCCode(), code) {
				return string(cat), nil
			}
		}
	}

	brakeWear := rec.BrakeFluidPressurePSI < c.LowPressurePSI ||
		(rec.BrakePadThicknessMM > 0 && rec.BrakePadThicknessMM < MinPadThicknessMM)
	if brakeWear && contains(valid, domain.CategoryBrakes) {
		return string(domain.CategoryBrakes), nil
	}
	return "Unknown", nil
}

func contains(set []domain.Category, c domain.Category) bool {
	for _, v := range set {
		if v == c {
			return true
		}
	}
	return false
}
