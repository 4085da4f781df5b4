package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/aretw0/pitstop/internal/presentation/tui"
	"github.com/aretw0/pitstop/pkg/domain"
)

// RunReport is the JSON document printed for one run.
type RunReport struct {
	State   *domain.State             `json:"state"`
	Failure *domain.Failure           `json:"failure,omitempty"`
	Error   string                    `json:"error,omitempty"`
	Audit   []domain.InvocationRecord `json:"audit,omitempty"`
}

// NewRunReport bundles the result of a run.
func NewRunReport(st *domain.State, failure *domain.Failure, audit []domain.InvocationRecord) RunReport {
	r := RunReport{State: st, Failure: failure, Audit: audit}
	if failure != nil {
		r.Error = failure.Error()
	}
	return r
}

// PrintJSON writes reports as indented JSON, one document per report.
func PrintJSON(w io.Writer, reports ...RunReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	for _, r := range reports {
		if err := enc.Encode(r); err != nil {
			return err
		}
	}
	return nil
}

// PrintMarkdown renders reports with glamour when out is a terminal.
func PrintMarkdown(out *os.File, reports ...RunReport) error {
	render := tui.NewRenderer(out)
	for _, r := range reports {
		text, err := render(tui.Report(r.State, r.Failure, r.Audit))
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintln(out, text); err != nil {
			return err
		}
	}
	return nil
}
