package classifier

import (
	"context"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/helpdesk-ml/helpdesk/internal/workflow"
)

// Result is the outcome of gating one ticket.
type Result struct {
	Category          *string
	Confidence        float64
	NeedsManualReview bool
	Priority          string
	Failure           error
}

// Gate turns raw predictions into routing decisions.
type Gate struct {
	predictor Predictor
	logger    *zap.Logger
}

// NewGate wraps predictor. A nil predictor puts the gate in degraded mode.
func NewGate(predictor Predictor, logger *zap.Logger) *Gate {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gate{predictor: predictor, logger: logger}
}

// Available reports whether a model is loaded.
func (g *Gate) Available() bool {
	return g != nil && g.predictor != nil
}

// Metadata returns artifact metadata when the predictor exposes it.
func (g *Gate) Metadata() (Metadata, bool) {
	if !g.Available() {
		return Metadata{}, false
	}
	d, ok := g.predictor.(Describer)
	if !ok {
		return Metadata{}, false
	}
	return d.Metadata(), true
}

// Text builds the normalised model input for a ticket.
func Text(subject, description string) string {
	return strings.ToLower(strings.TrimSpace(subject + " " + description))
}

// Classify predicts the category for a ticket. Any failure yields a nil
// category with zero confidence and forces manual review.
func (g *Gate) Classify(ctx context.Context, subject, description string) Result {
	if !g.Available() {
		return Result{NeedsManualReview: true, Failure: ErrUnavailable}
	}

	pred, err := g.predictor.Predict(ctx, Text(subject, description))
	if err != nil {
		g.logger.Error("classification failed", zap.Error(err))
		return Result{NeedsManualReview: true, Failure: err}
	}

	label := strings.TrimSpace(pred.Label)
	if label == "" {
		g.logger.Warn("classifier returned empty label")
		return Result{NeedsManualReview: true}
	}

	confidence := math.Round(pred.Confidence*100*100) / 100
	result := Result{
		Category:   &label,
		Confidence: confidence,
		Priority:   strings.TrimSpace(pred.Priority),
	}
	// The gate sees the unrounded value; rounding is for storage and display.
	result.NeedsManualReview = workflow.NeedsManualReview(result.Category, pred.Confidence*100)
	if result.NeedsManualReview {
		g.logger.Warn("low confidence classification",
			zap.String("category", label),
			zap.Float64("confidence", pred.Confidence*100),
			zap.Float64("threshold", workflow.ConfidenceThreshold),
		)
	}
	return result
}
