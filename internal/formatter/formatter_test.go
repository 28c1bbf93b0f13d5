package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/pawalert/internal/models"
	"github.com/desertthunder/pawalert/internal/shared"
	"github.com/desertthunder/pawalert/internal/tasks"
	tu "github.com/desertthunder/pawalert/internal/testing"
)

func completedReport() *tasks.CycleReport {
	return &tasks.CycleReport{
		ListingID:  "pet-1",
		Phase:      tasks.Completed,
		Candidates: 2,
		Delivered:  1,
		Failed:     1,
		Duration:   42 * time.Millisecond,
		Outcomes: []models.NotificationOutcome{
			{UserID: "alice", ListingID: "pet-1", Delivered: true, Duration: 5 * time.Millisecond},
			{
				UserID:    "bob",
				ListingID: "pet-1",
				ErrorKind: models.ErrorKindTimeout,
				Err:       errors.New("send timed out, retry later"),
				Duration:  10 * time.Millisecond,
			},
		},
	}
}

func TestExporters(t *testing.T) {
	t.Run("ExportToText", func(t *testing.T) {
		output := string(ExportToText(completedReport()))

		for _, want := range []string{"pet-1", "Candidates: 2", "Delivered: 1", "Failed: 1", "alice", "bob", "timeout"} {
			if !strings.Contains(output, want) {
				t.Errorf("text report missing %q, got: %s", want, output)
			}
		}
		if !strings.Contains(output, "✓") || !strings.Contains(output, "✗") {
			t.Errorf("text report missing outcome markers, got: %s", output)
		}
	})

	t.Run("ExportToText abandoned", func(t *testing.T) {
		report := &tasks.CycleReport{ListingID: "pet-2", Phase: tasks.Abandoned, Reason: shared.ErrStoreUnavailable}
		output := string(ExportToText(report))
		if !strings.Contains(output, "abandoned") || !strings.Contains(output, shared.ErrStoreUnavailable.Error()) {
			t.Errorf("expected abandonment reason, got: %s", output)
		}
	})

	t.Run("ExportToText duplicate", func(t *testing.T) {
		output := string(ExportToText(&tasks.CycleReport{ListingID: "pet-3", Phase: tasks.Duplicate}))
		if !strings.Contains(output, "already handled") {
			t.Errorf("expected duplicate notice, got: %s", output)
		}
	})

	t.Run("ExportToJSON", func(t *testing.T) {
		data, err := ExportToJSON(completedReport())
		if err != nil {
			t.Fatalf("ExportToJSON failed: %v", err)
		}

		var got map[string]any
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if got["phase"] != "completed" {
			t.Errorf("expected phase completed, got %v", got["phase"])
		}
		if got["durationMs"] != float64(42) {
			t.Errorf("expected durationMs 42, got %v", got["durationMs"])
		}
		outcomes, ok := got["outcomes"].([]any)
		if !ok || len(outcomes) != 2 {
			t.Fatalf("expected 2 outcomes, got %v", got["outcomes"])
		}
		bob := outcomes[1].(map[string]any)
		if bob["error"] != "send timed out, retry later" || bob["errorKind"] != "timeout" {
			t.Errorf("failed outcome not flattened: %v", bob)
		}
	})

	t.Run("ExportToCSV", func(t *testing.T) {
		data, err := ExportToCSV(completedReport())
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}

		records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
		if err != nil {
			t.Fatalf("CSV does not parse: %v", err)
		}
		if len(records) != 3 {
			t.Fatalf("expected header + 2 rows, got %d", len(records))
		}
		if strings.Join(records[0], ",") != "user_id,listing_id,delivered,error_kind,error,duration_ms" {
			t.Errorf("unexpected headers %v", records[0])
		}
		if records[2][4] != "send timed out, retry later" {
			t.Errorf("error column with comma not preserved: %q", records[2][4])
		}
	})
}

func TestWriteReport(t *testing.T) {
	tests := []struct {
		format string
		want   string
	}{
		{format: "text", want: "Candidates: 2"},
		{format: "", want: "Candidates: 2"},
		{format: "JSON", want: `"listingId": "pet-1"`},
		{format: "csv", want: "user_id,listing_id"},
	}

	for _, tt := range tests {
		t.Run("format "+tt.format, func(t *testing.T) {
			var buf bytes.Buffer
			if err := WriteReport(&buf, completedReport(), tt.format); err != nil {
				t.Fatalf("WriteReport() error = %v", err)
			}
			if !strings.Contains(buf.String(), tt.want) {
				t.Errorf("expected %q in output, got: %s", tt.want, buf.String())
			}
		})
	}

	t.Run("unknown format", func(t *testing.T) {
		err := WriteReport(&bytes.Buffer{}, completedReport(), "yaml")
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("write failure", func(t *testing.T) {
		if err := WriteReport(&tu.FWriter{}, completedReport(), "text"); err == nil {
			t.Error("expected write error")
		}
	})
}

func TestPreferencesToText(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		if got := string(PreferencesToText(nil)); !strings.Contains(got, "No preferences") {
			t.Errorf("unexpected output %q", got)
		}
	})

	t.Run("facets and age", func(t *testing.T) {
		lo, hi := 1.0, 3.0
		prefs := []models.PreferenceRecord{
			{UserID: "alice", WantsAlerts: true, Species: []string{"dog", "cat"}, AgeRange: &models.AgeRange{Min: &lo, Max: &hi}},
			{UserID: "bob", AgeRange: &models.AgeRange{Min: &lo}},
		}
		output := string(PreferencesToText(prefs))

		for _, want := range []string{"alice", "dog, cat", "1-3 years", "bob", "1+ years", "any"} {
			if !strings.Contains(output, want) {
				t.Errorf("missing %q in output: %s", want, output)
			}
		}
	})
}
