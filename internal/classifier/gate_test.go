package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func fixed(label string, confidence float64) Predictor {
	return PredictorFunc(func(context.Context, string) (Prediction, error) {
		return Prediction{Label: label, Confidence: confidence}, nil
	})
}

func TestGateAutoRoutesConfidentPrediction(t *testing.T) {
	gate := NewGate(fixed("Hardware", 0.85), zap.NewNop())

	res := gate.Classify(context.Background(), "Printer", "jammed")
	require.NotNil(t, res.Category)
	assert.Equal(t, "Hardware", *res.Category)
	assert.Equal(t, 85.0, res.Confidence)
	assert.False(t, res.NeedsManualReview)
	assert.NoError(t, res.Failure)
}

func TestGateFlagsLowConfidence(t *testing.T) {
	gate := NewGate(fixed("Software", 0.40), zap.NewNop())

	res := gate.Classify(context.Background(), "ambiguous", "issue")
	require.NotNil(t, res.Category)
	assert.Equal(t, 40.0, res.Confidence)
	assert.True(t, res.NeedsManualReview)
}

func TestGateThresholdBoundary(t *testing.T) {
	assert.False(t, NewGate(fixed("Network", 0.60), nil).Classify(context.Background(), "a", "b").NeedsManualReview)
	assert.True(t, NewGate(fixed("Network", 0.5999), nil).Classify(context.Background(), "a", "b").NeedsManualReview)
}

func TestGateComparesUnroundedConfidence(t *testing.T) {
	res := NewGate(fixed("Network", 0.59996), nil).Classify(context.Background(), "a", "b")
	assert.Equal(t, 60.0, res.Confidence)
	assert.True(t, res.NeedsManualReview)

	res = NewGate(fixed("Network", 0.599999999), nil).Classify(context.Background(), "a", "b")
	assert.True(t, res.NeedsManualReview)
}

func TestGateRoundsConfidence(t *testing.T) {
	res := NewGate(fixed("Network", 0.723456), nil).Classify(context.Background(), "a", "b")
	assert.Equal(t, 72.35, res.Confidence)
}

func TestGateDegradesWithoutPredictor(t *testing.T) {
	gate := NewGate(nil, nil)
	assert.False(t, gate.Available())

	res := gate.Classify(context.Background(), "Printer", "jammed")
	assert.Nil(t, res.Category)
	assert.Equal(t, 0.0, res.Confidence)
	assert.True(t, res.NeedsManualReview)
	assert.ErrorIs(t, res.Failure, ErrUnavailable)
}

func TestGateDegradesOnPredictorError(t *testing.T) {
	boom := errors.New("boom")
	gate := NewGate(PredictorFunc(func(context.Context, string) (Prediction, error) {
		return Prediction{}, boom
	}), zap.NewNop())

	res := gate.Classify(context.Background(), "Printer", "jammed")
	assert.Nil(t, res.Category)
	assert.Equal(t, 0.0, res.Confidence)
	assert.True(t, res.NeedsManualReview)
	assert.ErrorIs(t, res.Failure, boom)
}

func TestGateLowercasesInput(t *testing.T) {
	var seen string
	gate := NewGate(PredictorFunc(func(_ context.Context, text string) (Prediction, error) {
		seen = text
		return Prediction{Label: "Hardware", Confidence: 0.9}, nil
	}), nil)

	gate.Classify(context.Background(), "  Printer", "JAMMED  ")
	assert.Equal(t, "printer jammed", seen)
}

func TestHTTPPredictor(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/predict", r.URL.Path)
		var body predictRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "vpn down", body.Text)
		_ = json.NewEncoder(w).Encode(predictResponse{Label: "Network", Confidence: 0.77, Priority: "High"})
	}))
	defer srv.Close()

	p := NewHTTPPredictor(srv.URL+"/", time.Second)
	pred, err := p.Predict(context.Background(), "vpn down")
	require.NoError(t, err)
	assert.Equal(t, Prediction{Label: "Network", Confidence: 0.77, Priority: "High"}, pred)
}

func TestHTTPPredictorServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	res := NewGate(NewHTTPPredictor(srv.URL, time.Second), nil).Classify(context.Background(), "vpn", "down")
	assert.True(t, res.NeedsManualReview)
	assert.Nil(t, res.Category)
	assert.Error(t, res.Failure)
}
