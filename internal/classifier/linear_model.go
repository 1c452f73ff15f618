package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"regexp"
	"sort"
	"strings"
)

const defaultTokenPattern = `[\p{L}\p{N}_][\p{L}\p{N}_]+`

// artifact is the JSON export of the trained vectorizer and classifiers.
type artifact struct {
	Metadata   Metadata        `json:"metadata"`
	Vectorizer vectorizerSpec  `json:"vectorizer"`
	Category   linearHeadSpec  `json:"category"`
	Priority   *linearHeadSpec `json:"priority,omitempty"`
}

type vectorizerSpec struct {
	Vocabulary   map[string]int `json:"vocabulary"`
	IDF          []float64      `json:"idf"`
	NgramRange   [2]int         `json:"ngram_range"`
	StopWords    []string       `json:"stop_words"`
	SublinearTF  bool           `json:"sublinear_tf"`
	TokenPattern string         `json:"token_pattern"`
	Norm         string         `json:"norm"`
}

type linearHeadSpec struct {
	Classes   []string    `json:"classes"`
	Coef      [][]float64 `json:"coef"`
	Intercept []float64   `json:"intercept"`
	// MultiClass is "multinomial" (softmax) or "ovr" (normalised sigmoids).
	MultiClass string `json:"multi_class"`
}

type tfidf struct {
	vocabulary  map[string]int
	idf         []float64
	minN, maxN  int
	stopWords   map[string]struct{}
	sublinearTF bool
	l2          bool
	token       *regexp.Regexp
}

type linearHead struct {
	classes   []string
	coef      [][]float64
	intercept []float64
	ovr       bool
}

// LinearModel is a TF-IDF vectorizer followed by one or two logistic heads.
type LinearModel struct {
	meta     Metadata
	vec      *tfidf
	category *linearHead
	priority *linearHead
}

// LoadLinearModel reads a model artifact from path.
func LoadLinearModel(path string) (*LinearModel, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model artifact: %w", err)
	}
	return ParseLinearModel(raw)
}

// ParseLinearModel builds a model from artifact bytes.
func ParseLinearModel(raw []byte) (*LinearModel, error) {
	var a artifact
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, fmt.Errorf("decode model artifact: %w", err)
	}
	vec, err := newTFIDF(a.Vectorizer)
	if err != nil {
		return nil, err
	}
	category, err := newLinearHead(a.Category, len(vec.idf))
	if err != nil {
		return nil, fmt.Errorf("category head: %w", err)
	}
	model := &LinearModel{meta: a.Metadata, vec: vec, category: category}
	if a.Priority != nil {
		priority, err := newLinearHead(*a.Priority, len(vec.idf))
		if err != nil {
			return nil, fmt.Errorf("priority head: %w", err)
		}
		model.priority = priority
	}
	return model, nil
}

func newTFIDF(spec vectorizerSpec) (*tfidf, error) {
	if len(spec.Vocabulary) == 0 {
		return nil, errors.New("vectorizer vocabulary is empty")
	}
	if len(spec.IDF) == 0 {
		return nil, errors.New("vectorizer idf is empty")
	}
	for term, idx := range spec.Vocabulary {
		if idx < 0 || idx >= len(spec.IDF) {
			return nil, fmt.Errorf("vocabulary index %d for %q out of range", idx, term)
		}
	}
	minN, maxN := spec.NgramRange[0], spec.NgramRange[1]
	if minN <= 0 {
		minN = 1
	}
	if maxN < minN {
		maxN = minN
	}
	pattern := strings.TrimPrefix(spec.TokenPattern, "(?u)")
	if pattern == "" || pattern == `\b\w\w+\b` {
		pattern = defaultTokenPattern
	}
	token, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("token pattern: %w", err)
	}
	stop := make(map[string]struct{}, len(spec.StopWords))
	for _, w := range spec.StopWords {
		stop[w] = struct{}{}
	}
	return &tfidf{
		vocabulary:  spec.Vocabulary,
		idf:         spec.IDF,
		minN:        minN,
		maxN:        maxN,
		stopWords:   stop,
		sublinearTF: spec.SublinearTF,
		l2:          spec.Norm == "" || spec.Norm == "l2",
		token:       token,
	}, nil
}

func newLinearHead(spec linearHeadSpec, features int) (*linearHead, error) {
	if len(spec.Classes) < 2 {
		return nil, errors.New("at least two classes required")
	}
	rows := len(spec.Classes)
	if rows == 2 {
		rows = 1
	}
	if len(spec.Coef) != rows || len(spec.Intercept) != rows {
		return nil, fmt.Errorf("expected %d coefficient rows, got %d (intercepts %d)", rows, len(spec.Coef), len(spec.Intercept))
	}
	for i, row := range spec.Coef {
		if len(row) != features {
			return nil, fmt.Errorf("coefficient row %d has %d features, want %d", i, len(row), features)
		}
	}
	return &linearHead{
		classes:   spec.Classes,
		coef:      spec.Coef,
		intercept: spec.Intercept,
		ovr:       spec.MultiClass == "ovr",
	}, nil
}

// Predict returns the most probable category and its probability.
func (m *LinearModel) Predict(ctx context.Context, text string) (Prediction, error) {
	if err := ctx.Err(); err != nil {
		return Prediction{}, err
	}
	x := m.vec.transform(text)
	label, confidence := m.category.best(x)
	pred := Prediction{Label: label, Confidence: confidence}
	if m.priority != nil {
		pred.Priority, _ = m.priority.best(x)
	}
	return pred, nil
}

// Metadata returns the artifact metadata.
func (m *LinearModel) Metadata() Metadata { return m.meta }

// Classes lists the category labels the model can emit.
func (m *LinearModel) Classes() []string {
	return append([]string(nil), m.category.classes...)
}

// feature is one non-zero entry of a sparse tf-idf vector.
type feature struct {
	idx int
	val float64
}

// transform produces a sparse tf-idf vector sorted by feature index. Sums
// over it run in index order so a given text always yields the same bits.
func (v *tfidf) transform(text string) []feature {
	var words []string
	for _, tok := range v.token.FindAllString(strings.ToLower(text), -1) {
		if _, stop := v.stopWords[tok]; stop {
			continue
		}
		words = append(words, tok)
	}

	counts := make(map[int]float64)
	for n := v.minN; n <= v.maxN; n++ {
		for i := 0; i+n <= len(words); i++ {
			term := strings.Join(words[i:i+n], " ")
			if idx, ok := v.vocabulary[term]; ok {
				counts[idx]++
			}
		}
	}

	x := make([]feature, 0, len(counts))
	for idx, tf := range counts {
		x = append(x, feature{idx: idx, val: tf})
	}
	sort.Slice(x, func(i, j int) bool { return x[i].idx < x[j].idx })

	var norm float64
	for i := range x {
		tf := x[i].val
		if v.sublinearTF {
			tf = 1 + math.Log(tf)
		}
		x[i].val = tf * v.idf[x[i].idx]
		norm += x[i].val * x[i].val
	}
	if v.l2 && norm > 0 {
		norm = math.Sqrt(norm)
		for i := range x {
			x[i].val /= norm
		}
	}
	return x
}

func (h *linearHead) scores(x []feature) []float64 {
	out := make([]float64, len(h.coef))
	for row, weights := range h.coef {
		s := h.intercept[row]
		for _, f := range x {
			s += weights[f.idx] * f.val
		}
		out[row] = s
	}
	return out
}

func (h *linearHead) probabilities(x []feature) []float64 {
	scores := h.scores(x)
	if len(h.classes) == 2 {
		p := sigmoid(scores[0])
		return []float64{1 - p, p}
	}
	if h.ovr {
		probs := make([]float64, len(scores))
		var sum float64
		for i, s := range scores {
			probs[i] = sigmoid(s)
			sum += probs[i]
		}
		for i := range probs {
			probs[i] /= sum
		}
		return probs
	}
	return softmax(scores)
}

// best returns the arg-max class. Ties resolve to the lowest index so the
// output is stable for a given artifact.
func (h *linearHead) best(x []feature) (string, float64) {
	probs := h.probabilities(x)
	bestIdx := 0
	for i := 1; i < len(probs); i++ {
		if probs[i] > probs[bestIdx] {
			bestIdx = i
		}
	}
	return h.classes[bestIdx], probs[bestIdx]
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

func softmax(scores []float64) []float64 {
	maxScore := math.Inf(-1)
	for _, s := range scores {
		if s > maxScore {
			maxScore = s
		}
	}
	out := make([]float64, len(scores))
	var sum float64
	for i, s := range scores {
		out[i] = math.Exp(s - maxScore)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}
