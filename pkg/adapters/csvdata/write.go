package csvdata

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/aretw0/pitstop/pkg/domain"
)

const timestampLayout = "2006-01-02 15:04:05.000000"

func num(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

var (
	telemetryHeader   = []string{"vehicle_id", "timestamp", "odometer_km", "brake_fluid_pressure_psi", "brake_pad_thickness_mm", "dtc_code"}
	profileHeader     = []string{"vehicle_id", "customer_id", "customer_name", "driving_style", "avg_daily_km", "health_score"}
	maintenanceHeader = []string{"record_id", "vehicle_id", "service_date", "description", "dtc_code_at_service"}
	rcaHeader         = []string{"rca_id", "part_number", "part_name", "failure_mode", "root_cause", "corrective_action_plan", "dtc_code"}
	severityHeader    = []string{"component", "safety_impact_score"}
)

// Write stores data in dir using the CSV layout read by Load. The safety
// impact table is written for reference only; severities are fixed per
// category and Load does not read them back.
func Write(dir string, data domain.FleetData) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	files := []struct {
		name   string
		header []string
		rows   [][]string
	}{
		{TelemetryFile, telemetryHeader, telemetryRows(data.Telemetry)},
		{ProfilesFile, profileHeader, profileRows(data.Profiles)},
		{MaintenanceFile, maintenanceHeader, maintenanceRows(data.Maintenance)},
		{RCAFile, rcaHeader, rcaRows(data.RCA)},
		{SeverityFile, severityHeader, severityRows()},
	}
	for _, f := range files {
		if err := writeFile(filepath.Join(dir, f.name), f.header, f.rows); err != nil {
			return fmt.Errorf("write %s: %w", f.name, err)
		}
	}
	return nil
}

func writeFile(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := writeRows(f, header, rows); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeRows(w io.Writer, header []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	return cw.Error()
}

func telemetryRows(in []domain.TelemetryRecord) [][]string {
	rows := make([][]string, len(in))
	for i, r := range in {
		rows[i] = []string{r.VehicleID, r.Timestamp.Format(timestampLayout), num(r.OdometerKM), num(r.BrakeFluidPressurePSI), num(r.BrakePadThicknessMM), r.DTCCode}
	}
	return rows
}

func profileRows(in []domain.CustomerProfile) [][]string {
	rows := make([][]string, len(in))
	for i, p := range in {
		rows[i] = []string{p.VehicleID, p.CustomerID, p.CustomerName, string(p.DrivingStyle), strconv.Itoa(p.AvgDailyKM), strconv.Itoa(p.HealthScore)}
	}
	return rows
}

func maintenanceRows(in []domain.MaintenanceLog) [][]string {
	rows := make([][]string, len(in))
	for i, m := range in {
		rows[i] = []string{strconv.Itoa(m.RecordID), m.VehicleID, m.ServiceDate, m.Description, m.DTCCodeAtService}
	}
	return rows
}

func rcaRows(in []domain.RCARecord) [][]string {
	rows := make([][]string, len(in))
	for i, r := range in {
		rows[i] = []string{r.RCAID, r.PartNumber, r.PartName, r.FailureMode, r.RootCause, r.CorrectiveActionPlan, r.DTCCode}
	}
	return rows
}

func severityRows() [][]string {
	categories := domain.Categories()
	rows := make([][]string, len(categories))
	for i, c := range categories {
		rows[i] = []string{string(c), strconv.Itoa(c.Severity())}
	}
	return rows
}
