package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// HTTPPredictor calls an external model server exposing POST /predict.
type HTTPPredictor struct {
	BaseURL string
	Client  *http.Client
}

type predictRequest struct {
	Text string `json:"text"`
}

type predictResponse struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	Priority   string  `json:"priority"`
}

// NewHTTPPredictor returns a predictor bound to baseURL.
func NewHTTPPredictor(baseURL string, timeout time.Duration) *HTTPPredictor {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPPredictor{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  &http.Client{Timeout: timeout},
	}
}

func (h *HTTPPredictor) Predict(ctx context.Context, text string) (Prediction, error) {
	b, err := json.Marshal(predictRequest{Text: text})
	if err != nil {
		return Prediction{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.BaseURL+"/predict", bytes.NewReader(b))
	if err != nil {
		return Prediction{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.Client.Do(req)
	if err != nil {
		return Prediction{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Prediction{}, fmt.Errorf("model server returned %d", resp.StatusCode)
	}

	var r predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return Prediction{}, err
	}
	if r.Confidence < 0 || r.Confidence > 1 {
		return Prediction{}, fmt.Errorf("confidence %.4f out of range", r.Confidence)
	}
	return Prediction{Label: r.Label, Confidence: r.Confidence, Priority: r.Priority}, nil
}
