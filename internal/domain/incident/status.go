package incident

import (
	"fmt"
	"strings"
)

// IncidentStatus is the workflow state of an incident. States are totally
// ordered; transitions only move forward one step at a time.
type IncidentStatus string

const (
	StatusDraft        IncidentStatus = "DRAFT"
	StatusSubmitted    IncidentStatus = "SUBMITTED"
	StatusPJReviewed   IncidentStatus = "PJ_REVIEWED"
	StatusMutuReviewed IncidentStatus = "MUTU_REVIEWED"
	StatusClosed       IncidentStatus = "CLOSED"
)

var statusOrder = map[IncidentStatus]int{
	StatusDraft:        0,
	StatusSubmitted:    1,
	StatusPJReviewed:   2,
	StatusMutuReviewed: 3,
	StatusClosed:       4,
}

// AllStatuses returns the workflow states in lifecycle order.
func AllStatuses() []IncidentStatus {
	return []IncidentStatus{
		StatusDraft,
		StatusSubmitted,
		StatusPJReviewed,
		StatusMutuReviewed,
		StatusClosed,
	}
}

func (s IncidentStatus) String() string {
	return string(s)
}

// Rank returns the position of the status in the lifecycle order,
// or -1 for an unknown status.
func (s IncidentStatus) Rank() int {
	rank, ok := statusOrder[s]
	if !ok {
		return -1
	}
	return rank
}

func ParseStatus(raw string) (IncidentStatus, error) {
	candidate := IncidentStatus(strings.ToUpper(strings.TrimSpace(raw)))
	if _, ok := statusOrder[candidate]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, raw)
	}
	return candidate, nil
}
