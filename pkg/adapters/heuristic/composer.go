package heuristic

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"text/template"

	"github.com/aretw0/pitstop/pkg/domain"
)

const defaultScript = `Hello {{.CustomerName}}, this is AutoMate from your service center.
We noticed a potential issue with your vehicle's {{lower .Category}}.
Brake pressure has dropped to {{psi .Record.BrakeFluidPressurePSI}} psi (normal is above {{psi .Nominal}} psi) and pad thickness is at {{mm .Record.BrakePadThicknessMM}}mm.
{{if eq .Urgency "urgent"}}It's important we look at this soon to ensure your safety and prevent a breakdown.{{else}}This is a non-urgent recommendation to keep your car in top shape.{{end}}
We can offer you a complimentary inspection. Would you like me to find a time that works for you?`

// Composer renders outreach messages from a text template.
type Composer struct {
	tmpl *template.Template
}

// NewComposer parses script, or the built-in script when empty. The template
// receives the domain.OutreachRequest fields plus Nominal, and may use the
// lower, psi and mm functions.
func NewComposer(script string) (*Composer, error) {
	if script == "" {
		script = defaultScript
	}
	tmpl, err := template.New("outreach").Funcs(template.FuncMap{
		"lower": func(c domain.Category) string { return strings.ToLower(string(c)) },
		"psi":   func(v float64) string { return fmt.Sprintf("%.2f", v) },
		"mm":    func(v float64) string { return fmt.Sprintf("%.2f", v) },
	}).Option("missingkey=error").Parse(script)
	if err != nil {
		return nil, fmt.Errorf("parse outreach template: %w", err)
	}
	return &Composer{tmpl: tmpl}, nil
}

// MustComposer is NewComposer for scripts known to be valid.
func MustComposer(script string) *Composer {
	c, err := NewComposer(script)
	if err != nil {
		panic(err)
	}
	return c
}

type scriptData struct {
	domain.OutreachRequest
	Nominal float64
}

// Compose renders the message for req.
func (c *Composer) Compose(ctx context.Context, req domain.OutreachRequest) (string, error) {
	if req.CustomerName == "" {
		return "", fmt.Errorf("outreach needs a customer name")
	}
	var buf bytes.Buffer
	if err := c.tmpl.Execute(&buf, scriptData{OutreachRequest: req, Nominal: NominalPressurePSI}); err != nil {
		return "", fmt.Errorf("render outreach: %w", err)
	}
	return buf.String(), nil
}
