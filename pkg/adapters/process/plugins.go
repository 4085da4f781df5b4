package process

import (
	"context"
	"errors"
	"strings"

	"github.com/aretw0/pitstop/pkg/domain"
	"github.com/aretw0/pitstop/pkg/ports"
)

// ClassifyRequest is the stdin document of a classifier command.
type ClassifyRequest struct {
	VehicleID  string                 `json:"vehicle_id"`
	Record     domain.TelemetryRecord `json:"record"`
	Categories []domain.Category      `json:"categories"`
}

// Classifier asks an external command for a root-cause category. The answer
// is returned as printed; agents validate it against the category set.
type Classifier struct {
	cfg ProcessConfig
}

var _ ports.Classifier = (*Classifier)(nil)

// NewClassifier creates a classifier running cfg.
func NewClassifier(cfg ProcessConfig) *Classifier {
	return &Classifier{cfg: cfg}
}

func (c *Classifier) Classify(ctx context.Context, vehicleID string, record domain.TelemetryRecord, valid []domain.Category) (string, error) {
	names := make([]string, len(valid))
	for i, cat := range valid {
		names[i] = string(cat)
	}
	return run(ctx, c.cfg, ClassifyRequest{VehicleID: vehicleID, Record: record, Categories: valid}, map[string]string{
		"vehicle_id": vehicleID,
		"categories": strings.Join(names, ","),
	})
}

// ComposeRequest is the stdin document of a composer command.
type ComposeRequest struct {
	CustomerName string                 `json:"customer_name"`
	DRPS         int                    `json:"drps_score"`
	Urgency      domain.Urgency         `json:"urgency"`
	Category     domain.Category        `json:"category"`
	Record       domain.TelemetryRecord `json:"record"`
}

// Composer asks an external command for an outreach message.
type Composer struct {
	cfg ProcessConfig
}

var _ ports.Composer = (*Composer)(nil)

// NewComposer creates a composer running cfg.
func NewComposer(cfg ProcessConfig) *Composer {
	return &Composer{cfg: cfg}
}

func (c *Composer) Compose(ctx context.Context, req domain.OutreachRequest) (string, error) {
	msg, err := run(ctx, c.cfg, ComposeRequest{
		CustomerName: req.CustomerName,
		DRPS:         req.DRPS,
		Urgency:      req.Urgency,
		Category:     req.Category,
		Record:       req.Record,
	}, map[string]string{
		"customer_name": req.CustomerName,
		"urgency":       string(req.Urgency),
	})
	if err != nil {
		return "", err
	}
	if msg == "" {
		return "", errors.New("composer printed an empty message")
	}
	return msg, nil
}
