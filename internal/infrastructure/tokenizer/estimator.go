// Package tokenizer counts tokens for prompts and completions whose usage the
// provider did not report.
package tokenizer

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"

	"github.com/jbctechsolutions/docsmith/internal/domain/pricing"
)

// DefaultEncoding is used when tiktoken knows no encoding for a model.
const DefaultEncoding = "cl100k_base"

// charsPerToken is the ratio SimpleEstimator assumes for English text and code.
const charsPerToken = 4

var (
	encodingsMu sync.Mutex
	encodings   = map[string]*tiktoken.Tiktoken{}
)

// loadEncoding returns the named BPE encoding, loading it once per process.
func loadEncoding(name string) (*tiktoken.Tiktoken, error) {
	encodingsMu.Lock()
	defer encodingsMu.Unlock()

	if enc, ok := encodings[name]; ok {
		return enc, nil
	}
	enc, err := tiktoken.GetEncoding(name)
	if err != nil {
		return nil, err
	}
	encodings[name] = enc
	return enc, nil
}

// Estimator counts tokens with a tiktoken BPE encoding.
type Estimator struct {
	name     string
	encoding *tiktoken.Tiktoken
	mu       sync.Mutex
}

var _ pricing.TokenEstimator = (*Estimator)(nil)

// NewEstimator returns an estimator using DefaultEncoding.
func NewEstimator() (*Estimator, error) {
	enc, err := loadEncoding(DefaultEncoding)
	if err != nil {
		return nil, err
	}
	return &Estimator{name: DefaultEncoding, encoding: enc}, nil
}

// NewEstimatorForModel returns an estimator using the encoding tiktoken
// associates with model, or DefaultEncoding for models it does not know.
func NewEstimatorForModel(model string) (*Estimator, error) {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		return NewEstimator()
	}
	return &Estimator{name: model, encoding: enc}, nil
}

// NewBestEffort returns a tiktoken estimator for model, or a SimpleEstimator
// when no BPE file can be loaded (offline, no cached ranks).
func NewBestEffort(model string) pricing.TokenEstimator {
	if e, err := NewEstimatorForModel(model); err == nil {
		return e
	}
	return NewSimpleEstimator()
}

// Name returns the model or encoding the estimator was built for.
func (e *Estimator) Name() string {
	return e.name
}

// CountTokens returns the number of tokens text encodes to. Special tokens
// such as <|endoftext|> are counted as plain text.
func (e *Estimator) CountTokens(text string) int {
	if text == "" {
		return 0
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.encoding.EncodeOrdinary(text))
}

// SimpleEstimator approximates token counts from the text length.
type SimpleEstimator struct{}

var _ pricing.TokenEstimator = SimpleEstimator{}

// NewSimpleEstimator returns a SimpleEstimator.
func NewSimpleEstimator() SimpleEstimator {
	return SimpleEstimator{}
}

// CountTokens returns ceil(len(text)/4).
func (SimpleEstimator) CountTokens(text string) int {
	return (len(text) + charsPerToken - 1) / charsPerToken
}
