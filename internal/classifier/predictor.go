// Package classifier wraps the offline-trained ticket category model and the
// confidence gate that decides between automatic and manual routing.
package classifier

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable is reported when no model is loaded.
var ErrUnavailable = errors.New("classifier unavailable")

// Prediction is the raw output of a model for one text.
type Prediction struct {
	Label      string
	Confidence float64
	Priority   string
}

// Predictor maps ticket text to a category label with a confidence in [0,1].
type Predictor interface {
	Predict(ctx context.Context, text string) (Prediction, error)
}

// PredictorFunc adapts a function into a Predictor.
type PredictorFunc func(ctx context.Context, text string) (Prediction, error)

func (f PredictorFunc) Predict(ctx context.Context, text string) (Prediction, error) {
	return f(ctx, text)
}

// Metadata describes the deployed artifact.
type Metadata struct {
	ModelVersion    string  `json:"model_version"`
	ModelType       string  `json:"model_type"`
	Accuracy        float64 `json:"accuracy"`
	DatasetSize     int     `json:"dataset_size"`
	TrainingSamples int     `json:"training_samples"`
	TestingSamples  int     `json:"testing_samples"`
	TrainingDate    string  `json:"training_date"`
}

// Describer is implemented by predictors that know their artifact metadata.
type Describer interface {
	Metadata() Metadata
}

// Options selects which predictor to build.
type Options struct {
	ModelPath string
	URL       string
	Timeout   time.Duration
}

// New builds a predictor from options. A local artifact wins over a remote
// URL. It returns nil without error when neither is configured.
func New(opts Options) (Predictor, error) {
	switch {
	case opts.ModelPath != "":
		return LoadLinearModel(opts.ModelPath)
	case opts.URL != "":
		return NewHTTPPredictor(opts.URL, opts.Timeout), nil
	}
	return nil, nil
}
