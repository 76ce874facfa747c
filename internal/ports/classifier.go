package ports

import (
	"context"

	"insiden/internal/domain/incident"
)

// Prediction is the classifier output for one incident description.
type Prediction struct {
	Category     incident.IncidentCategory
	Confidence   float64
	ModelVersion string
}

// Classifier assigns an accreditation category to free-text incident
// descriptions. Implementations must be total and deterministic: the same
// (text, metadata) pair always yields the same prediction within one process
// lifetime, and Predict never fails. A missing or broken model artifact
// degrades to a built-in heuristic at construction time, not at call time.
type Classifier interface {
	Predict(ctx context.Context, text string, metadata map[string]string) Prediction
}
