// Package completion contains the domain types for LLM completions.
package completion

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/jbctechsolutions/docsmith/internal/domain/fingerprint"
)

// Completion is the text a model returned for a prompt plus the metadata the
// cache keeps alongside it.
type Completion struct {
	Content      string    `json:"content" msgpack:"content"`
	Model        string    `json:"model,omitempty" msgpack:"model"`
	InputTokens  int       `json:"input_tokens,omitempty" msgpack:"input_tokens"`
	OutputTokens int       `json:"output_tokens,omitempty" msgpack:"output_tokens"`
	FinishReason string    `json:"finish_reason,omitempty" msgpack:"finish_reason"`
	CreatedAt    time.Time `json:"created_at" msgpack:"created_at"`

	// FromCache is set on copies served from the store. It is never persisted.
	FromCache bool `json:"-" msgpack:"-"`
}

// New creates a Completion stamped with the current time.
func New(content, model string) *Completion {
	return &Completion{
		Content:   content,
		Model:     model,
		CreatedAt: time.Now().UTC(),
	}
}

// TotalTokens returns input plus output tokens.
func (c *Completion) TotalTokens() int {
	return c.InputTokens + c.OutputTokens
}

// Clone returns a copy that callers may mutate freely.
func (c *Completion) Clone() *Completion {
	if c == nil {
		return nil
	}
	cp := *c
	return &cp
}

// Payload is the structured reply agents ask the model for:
// {"payload": ..., "reasoning": ...}.
type Payload struct {
	Payload   string `json:"payload"`
	Reasoning string `json:"reasoning,omitempty"`
}

// ParsePayload extracts a Payload from model output. Code-fence wrappers are
// stripped first. Output that is not a JSON object becomes the Payload text
// verbatim (trimmed), so a chatty model never aborts a run.
func ParsePayload(content string) Payload {
	text := strings.TrimSpace(fingerprint.NormalizeWrappers(content))

	var raw struct {
		Payload   json.RawMessage `json:"payload"`
		Reasoning string          `json:"reasoning"`
	}
	if strings.HasPrefix(text, "{") && json.Unmarshal([]byte(text), &raw) == nil && len(raw.Payload) > 0 {
		return Payload{
			Payload:   rawToText(raw.Payload),
			Reasoning: raw.Reasoning,
		}
	}
	return Payload{Payload: text}
}

// rawToText unquotes JSON strings and keeps any other JSON value as-is.
func rawToText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

// SplitList splits a ';'-separated model reply into trimmed, non-empty items.
func SplitList(content string) []string {
	parts := strings.Split(content, ";")
	items := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			items = append(items, p)
		}
	}
	return items
}
