// Package formatter renders matching cycle reports and stored preferences as text, JSON and CSV.
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/pawalert/internal/models"
	"github.com/desertthunder/pawalert/internal/shared"
	"github.com/desertthunder/pawalert/internal/tasks"
)

// Format names accepted by [WriteReport].
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatCSV  = "csv"
)

type jsonReport struct {
	ListingID  string        `json:"listingId"`
	Phase      tasks.Phase   `json:"phase"`
	Reason     string        `json:"reason,omitempty"`
	Candidates int           `json:"candidates"`
	Delivered  int           `json:"delivered"`
	Failed     int           `json:"failed"`
	DurationMS int64         `json:"durationMs"`
	Outcomes   []jsonOutcome `json:"outcomes"`
}

type jsonOutcome struct {
	UserID    string `json:"userId"`
	Delivered bool   `json:"delivered"`
	ErrorKind string `json:"errorKind,omitempty"`
	Error     string `json:"error,omitempty"`
}

// ExportToJSON converts a CycleReport to indented JSON, flattening errors to strings.
func ExportToJSON(report *tasks.CycleReport) ([]byte, error) {
	out := jsonReport{
		ListingID:  report.ListingID,
		Phase:      report.Phase,
		Candidates: report.Candidates,
		Delivered:  report.Delivered,
		Failed:     report.Failed,
		DurationMS: report.Duration.Milliseconds(),
		Outcomes:   make([]jsonOutcome, 0, len(report.Outcomes)),
	}
	if report.Reason != nil {
		out.Reason = report.Reason.Error()
	}
	for _, o := range report.Outcomes {
		out.Outcomes = append(out.Outcomes, jsonOutcome{
			UserID:    o.UserID,
			Delivered: o.Delivered,
			ErrorKind: string(o.ErrorKind),
			Error:     o.Message(),
		})
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal report: %w", err)
	}
	return append(data, '\n'), nil
}

// ExportToCSV converts a CycleReport's outcomes to CSV with columns: user_id, listing_id, delivered, error_kind, error, duration_ms
func ExportToCSV(report *tasks.CycleReport) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"user_id", "listing_id", "delivered", "error_kind", "error", "duration_ms"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, o := range report.Outcomes {
		record := []string{
			o.UserID,
			o.ListingID,
			strconv.FormatBool(o.Delivered),
			string(o.ErrorKind),
			o.Message(),
			strconv.FormatInt(o.Duration.Milliseconds(), 10),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}
	return buf.Bytes(), nil
}

// ExportToText converts a CycleReport to a short human-readable summary with one line per outcome.
func ExportToText(report *tasks.CycleReport) []byte {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "%s %s\n", styles.Title("Listing"), report.ListingID)
	switch report.Phase {
	case tasks.Abandoned:
		fmt.Fprintf(&buf, "%s %v\n", styles.Err("abandoned:"), report.Reason)
		return buf.Bytes()
	case tasks.Duplicate:
		fmt.Fprintf(&buf, "%s\n", styles.Warn("skipped: listing already handled"))
		return buf.Bytes()
	}

	fmt.Fprintf(&buf, "Candidates: %d  Delivered: %d  Failed: %d  (%s)\n\n",
		report.Candidates, report.Delivered, report.Failed, report.Duration.Round(time.Microsecond))
	for _, o := range report.Outcomes {
		if o.Delivered {
			fmt.Fprintf(&buf, "%s %s\n", styles.Ok("✓"), o.UserID)
			continue
		}
		fmt.Fprintf(&buf, "%s %s %s\n", styles.Err("✗"), o.UserID, styles.Help(fmt.Sprintf("[%s] %s", o.ErrorKind, o.Message())))
	}
	return buf.Bytes()
}

// WriteReport writes report to w in the named format.
func WriteReport(w io.Writer, report *tasks.CycleReport, format string) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(format) {
	case FormatText, "":
		data = ExportToText(report)
	case FormatJSON:
		data, err = ExportToJSON(report)
	case FormatCSV:
		data, err = ExportToCSV(report)
	default:
		return fmt.Errorf("%w: unknown format %q (want text, json or csv)", shared.ErrInvalidArgument, format)
	}
	if err != nil {
		return err
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// PreferencesToText renders stored preferences, one user per block.
func PreferencesToText(prefs []models.PreferenceRecord) []byte {
	var buf bytes.Buffer
	if len(prefs) == 0 {
		buf.WriteString("No preferences stored\n")
		return buf.Bytes()
	}

	for i, p := range prefs {
		if i > 0 {
			buf.WriteByte('\n')
		}
		alerts := styles.Err("off")
		if p.WantsAlerts {
			alerts = styles.Ok("on")
		}
		fmt.Fprintf(&buf, "%s %s (alerts %s)\n", styles.Title("User"), p.UserID, alerts)
		fmt.Fprintf(&buf, "  species: %s\n", facet(p.Species))
		fmt.Fprintf(&buf, "  breeds:  %s\n", facet(p.Breeds))
		fmt.Fprintf(&buf, "  sizes:   %s\n", facet(p.Size))
		fmt.Fprintf(&buf, "  age:     %s\n", ageRange(p.AgeRange))
	}
	return buf.Bytes()
}

func facet(values []string) string {
	if len(values) == 0 {
		return styles.Help("any")
	}
	return strings.Join(values, ", ")
}

func ageRange(r *models.AgeRange) string {
	if r == nil {
		return styles.Help("any")
	}
	format := func(v *float64) string { return strconv.FormatFloat(*v, 'f', -1, 64) }
	switch {
	case r.Min == nil && r.Max == nil:
		return styles.Help("any")
	case r.Max == nil:
		return format(r.Min) + "+ years"
	case r.Min == nil:
		return "up to " + format(r.Max) + " years"
	default:
		return format(r.Min) + "-" + format(r.Max) + " years"
	}
}
