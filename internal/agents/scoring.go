package agents

import (
	"context"
	"log/slog"

	"github.com/aretw0/pitstop/pkg/domain"
)

const (
	// FailureProbability is the fixed failure likelihood used by the DRPS.
	FailureProbability = 0.92

	severityWeight = 5
	riskWeight     = 3
	contextWeight  = 2

	highwayContext = 9
	defaultContext = 5
)

// DRPS computes the Diagnostic Repair Priority Score of a category for a
// driving style, truncated toward zero, together with its weighted parts.
func DRPS(c domain.Category, style domain.DrivingStyle) (int, domain.ScoreBreakdown) {
	ctxFactor := defaultContext
	if style == domain.DrivingHighway {
		ctxFactor = highwayContext
	}
	failureRisk := FailureProbability * 10

	b := domain.ScoreBreakdown{
		Severity:    float64(c.Severity()) * severityWeight,
		FailureRisk: failureRisk * riskWeight,
		Context:     float64(ctxFactor) * contextWeight,
	}
	return int(b.Severity + b.FailureRisk + b.Context), b
}

// Diagnosis is the result of classify-and-score.
type Diagnosis struct {
	Category  domain.Category
	DRPS      int
	Breakdown domain.ScoreBreakdown
	// Substituted is set when the classifier answered outside the category set.
	Substituted bool
}

// Diagnose classifies the anomaly and scores it for the vehicle's owner.
// An answer outside the closed category set falls back to DefaultCategory.
func Diagnose(ctx context.Context, tools *Toolbox, logger *slog.Logger, role domain.Role, vehicleID string, rec domain.TelemetryRecord) (Diagnosis, error) {
	raw, err := tools.Classify(ctx, role, vehicleID, rec)
	if err != nil {
		return Diagnosis{}, err
	}

	var d Diagnosis
	category, ok := domain.ParseCategory(raw)
	if !ok {
		logger.WarnContext(ctx, "classifier returned an invalid category", "answer", raw, "fallback", domain.DefaultCategory)
		category = domain.DefaultCategory
		d.Substituted = true
	}

	profile, err := tools.LookupProfile(ctx, role, vehicleID)
	if err != nil {
		return Diagnosis{}, err
	}

	d.Category = category
	d.DRPS, d.Breakdown = DRPS(category, profile.DrivingStyle)
	return d, nil
}
