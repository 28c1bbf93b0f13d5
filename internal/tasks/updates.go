package tasks

import (
	"fmt"

	"github.com/desertthunder/pawalert/internal/models"
)

// CycleUpdate is a progress event from a running cycle.
type CycleUpdate struct {
	Phase     Phase  // Cycle phase
	ListingID string // Listing the cycle runs for
	Step      int    // Current step number within phase
	Total     int    // Total steps in this phase
	Message   string // Human-readable message for display
	Data      any    // Optional phase-specific data
}

// Phase is a step of the per-event state machine, plus the terminal reasons a cycle returns to idle.
type Phase int

const (
	Idle Phase = iota
	Selecting
	Dispatching
	Completed
	Abandoned
	Duplicate
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Selecting:
		return "selecting"
	case Dispatching:
		return "dispatching"
	case Completed:
		return "completed"
	case Abandoned:
		return "abandoned"
	case Duplicate:
		return "duplicate"
	default:
		return ""
	}
}

// MarshalText renders the phase name in JSON reports.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func selectingUpdate(listingID string) CycleUpdate {
	return CycleUpdate{
		Phase:     Selecting,
		ListingID: listingID,
		Message:   fmt.Sprintf("Selecting candidates for %s...", listingID),
	}
}

func dispatchingUpdate(listingID string, total int) CycleUpdate {
	return CycleUpdate{
		Phase:     Dispatching,
		ListingID: listingID,
		Total:     total,
		Message:   fmt.Sprintf("Dispatching %d notifications for %s...", total, listingID),
	}
}

func outcomeUpdate(step, total int, out models.NotificationOutcome) CycleUpdate {
	msg := fmt.Sprintf("[%d/%d] ✓ %s", step, total, out.UserID)
	if !out.Delivered {
		msg = fmt.Sprintf("[%d/%d] ✗ %s: %s", step, total, out.UserID, out.ErrorKind)
	}
	return CycleUpdate{
		Phase:     Dispatching,
		ListingID: out.ListingID,
		Step:      step,
		Total:     total,
		Message:   msg,
		Data:      out,
	}
}

func finishedUpdate(r *CycleReport) CycleUpdate {
	msg := fmt.Sprintf("Cycle for %s %s: %d delivered, %d failed", r.ListingID, r.Phase, r.Delivered, r.Failed)
	if r.Reason != nil {
		msg = fmt.Sprintf("Cycle for %s %s: %v", r.ListingID, r.Phase, r.Reason)
	}
	return CycleUpdate{
		Phase:     r.Phase,
		ListingID: r.ListingID,
		Step:      r.Candidates,
		Total:     r.Candidates,
		Message:   msg,
		Data:      r,
	}
}
