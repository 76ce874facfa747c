package incident

import (
	"fmt"
	"strings"
)

// IncidentCategory is one of the five accreditation classes. Severity-ordered
// for reporting purposes, but the workflow treats them as an unordered label
// set.
type IncidentCategory string

const (
	// CategoryKTD (Kejadian Tidak Diharapkan): patient harm occurred.
	CategoryKTD IncidentCategory = "KTD"
	// CategoryKTC (Kejadian Tidak Cedera): no injury occurred.
	CategoryKTC IncidentCategory = "KTC"
	// CategoryKNC (Kejadian Nyaris Cedera): near miss.
	CategoryKNC IncidentCategory = "KNC"
	// CategoryKPCS (Kejadian Potensial Cedera Serius): potential serious injury.
	CategoryKPCS IncidentCategory = "KPCS"
	// CategorySentinel: severe unexpected occurrence.
	CategorySentinel IncidentCategory = "Sentinel"
)

var categoryByCode = map[string]IncidentCategory{
	"KTD":      CategoryKTD,
	"KTC":      CategoryKTC,
	"KNC":      CategoryKNC,
	"KPCS":     CategoryKPCS,
	"SENTINEL": CategorySentinel,
}

// AllCategories returns the accreditation classes in severity order.
func AllCategories() []IncidentCategory {
	return []IncidentCategory{
		CategoryKTD,
		CategoryKTC,
		CategoryKNC,
		CategoryKPCS,
		CategorySentinel,
	}
}

func (c IncidentCategory) String() string {
	return string(c)
}

// Description returns the accreditation-standard description of the class.
func (c IncidentCategory) Description() string {
	switch c {
	case CategoryKTD:
		return "Kejadian Tidak Diharapkan - patient harm occurred."
	case CategoryKTC:
		return "Kejadian Tidak Cedera - no injury occurred."
	case CategoryKNC:
		return "Kejadian Nyaris Cedera - near miss."
	case CategoryKPCS:
		return "Kejadian Potensial Cedera Serius - potential serious injury."
	case CategorySentinel:
		return "Sentinel Event - severe unexpected occurrence."
	default:
		return ""
	}
}

func ParseCategory(raw string) (IncidentCategory, error) {
	category, ok := categoryByCode[strings.ToUpper(strings.TrimSpace(raw))]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownCategory, raw)
	}
	return category, nil
}
