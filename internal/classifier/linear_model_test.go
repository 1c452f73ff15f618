package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testArtifact = `{
  "metadata": {"model_version": "v2.0-test", "model_type": "logistic_regression", "accuracy": 0.91},
  "vectorizer": {
    "vocabulary": {"printer": 0, "jammed": 1, "password": 2, "printer jammed": 3},
    "idf": [1, 1, 1, 1],
    "ngram_range": [1, 2],
    "stop_words": ["the", "my"],
    "token_pattern": "(?u)\\b\\w\\w+\\b"
  },
  "category": {
    "classes": ["Hardware", "Network", "Software"],
    "coef": [[3, 2, 0, 1], [0, 0, 0, 0], [0, 0, 3, 0]],
    "intercept": [0, 0, 0]
  },
  "priority": {
    "classes": ["Low", "High"],
    "coef": [[0, 0, 0, 2]],
    "intercept": [-1]
  }
}`

func loadTestModel(t *testing.T) *LinearModel {
	t.Helper()
	model, err := ParseLinearModel([]byte(testArtifact))
	require.NoError(t, err)
	return model
}

func TestLinearModelPredictsCategoryAndPriority(t *testing.T) {
	model := loadTestModel(t)

	pred, err := model.Predict(context.Background(), "The printer jammed")
	require.NoError(t, err)
	assert.Equal(t, "Hardware", pred.Label)
	assert.InDelta(t, 0.94, pred.Confidence, 0.01)
	assert.Equal(t, "High", pred.Priority)

	pred, err = model.Predict(context.Background(), "reset my password")
	require.NoError(t, err)
	assert.Equal(t, "Software", pred.Label)
	assert.InDelta(t, 0.909, pred.Confidence, 0.01)
	assert.Equal(t, "Low", pred.Priority)
}

func TestLinearModelUnknownTextIsUniform(t *testing.T) {
	model := loadTestModel(t)

	pred, err := model.Predict(context.Background(), "completely unrelated words")
	require.NoError(t, err)
	assert.Equal(t, "Hardware", pred.Label)
	assert.InDelta(t, 1.0/3.0, pred.Confidence, 1e-9)
}

func TestLinearModelIsDeterministic(t *testing.T) {
	model := loadTestModel(t)
	first, err := model.Predict(context.Background(), "printer jammed again")
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := model.Predict(context.Background(), "printer jammed again")
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

// wideArtifact builds a model with enough features that summation order
// shows up in the low bits of the result.
func wideArtifact(t *testing.T, features int) ([]byte, string) {
	t.Helper()
	rng := rand.New(rand.NewSource(42))
	a := artifact{
		Vectorizer: vectorizerSpec{Vocabulary: map[string]int{}, NgramRange: [2]int{1, 1}},
		Category: linearHeadSpec{
			Classes:   []string{"Access", "Hardware", "Network", "Software"},
			Intercept: make([]float64, 4),
		},
	}
	words := make([]string, 0, features)
	for i := 0; i < features; i++ {
		word := fmt.Sprintf("term%03d", i)
		words = append(words, word, word)
		a.Vectorizer.Vocabulary[word] = i
		a.Vectorizer.IDF = append(a.Vectorizer.IDF, 1+rng.Float64()*3)
	}
	for row := range a.Category.Classes {
		coef := make([]float64, features)
		for i := range coef {
			coef[i] = rng.NormFloat64() * 1.7
		}
		a.Category.Coef = append(a.Category.Coef, coef)
		a.Category.Intercept[row] = rng.NormFloat64()
	}
	raw, err := json.Marshal(a)
	require.NoError(t, err)
	return raw, strings.Join(words[:len(words)-features/3], " ")
}

func TestLinearModelIsBitIdenticalAcrossCalls(t *testing.T) {
	raw, text := wideArtifact(t, 200)
	model, err := ParseLinearModel(raw)
	require.NoError(t, err)

	x := model.vec.transform(text)
	require.NotEmpty(t, x)
	for i := 1; i < len(x); i++ {
		require.Less(t, x[i-1].idx, x[i].idx)
	}

	first, err := model.Predict(context.Background(), text)
	require.NoError(t, err)
	want := math.Float64bits(first.Confidence)
	for i := 0; i < 500; i++ {
		again, err := model.Predict(context.Background(), text)
		require.NoError(t, err)
		require.Equal(t, first.Label, again.Label)
		require.Equal(t, want, math.Float64bits(again.Confidence), "call %d", i)
	}
}

func TestLinearModelMetadata(t *testing.T) {
	model := loadTestModel(t)
	assert.Equal(t, "v2.0-test", model.Metadata().ModelVersion)
	assert.Equal(t, []string{"Hardware", "Network", "Software"}, model.Classes())
}

func TestParseLinearModelRejectsBadShapes(t *testing.T) {
	_, err := ParseLinearModel([]byte(`{"vectorizer": {"vocabulary": {"a": 0}, "idf": [1]},
		"category": {"classes": ["A", "B", "C"], "coef": [[1], [1]], "intercept": [0, 0]}}`))
	assert.Error(t, err)

	_, err = ParseLinearModel([]byte(`{"vectorizer": {"vocabulary": {"a": 3}, "idf": [1]},
		"category": {"classes": ["A", "B"], "coef": [[1]], "intercept": [0]}}`))
	assert.Error(t, err)

	_, err = ParseLinearModel([]byte(`not json`))
	assert.Error(t, err)
}

func TestNewLoadsArtifactFromDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.json")
	require.NoError(t, os.WriteFile(path, []byte(testArtifact), 0o600))

	predictor, err := New(Options{ModelPath: path})
	require.NoError(t, err)
	require.NotNil(t, predictor)

	none, err := New(Options{})
	require.NoError(t, err)
	assert.Nil(t, none)

	_, err = New(Options{ModelPath: filepath.Join(t.TempDir(), "missing.json")})
	assert.Error(t, err)
}
