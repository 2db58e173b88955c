package models

import (
	"encoding/json"
	"fmt"
	"math"
)

// IndexResponse is the body returned by POST /index-pdf.
type IndexResponse struct {
	ChunksIndexed int `json:"chunks_indexed"`
}

// UnmarshalJSON accepts chunks_indexed as an integer, a whole float such as
// 7.0, or a numeric string such as "7". Missing or null reads as 0.
func (r *IndexResponse) UnmarshalJSON(data []byte) error {
	var raw struct {
		ChunksIndexed json.RawMessage `json:"chunks_indexed"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	r.ChunksIndexed = 0
	if len(raw.ChunksIndexed) == 0 || string(raw.ChunksIndexed) == "null" {
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(raw.ChunksIndexed, &n); err != nil {
		return fmt.Errorf("chunks_indexed: %w", err)
	}
	if i, err := n.Int64(); err == nil {
		r.ChunksIndexed = int(i)
		return nil
	}
	f, err := n.Float64()
	if err != nil || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return fmt.Errorf("chunks_indexed: %q is not a whole number", n.String())
	}
	r.ChunksIndexed = int(f)
	return nil
}

// QARequest is the payload sent to POST /qa.
type QARequest struct {
	Question       string `json:"question"`
	EnablePlanning bool   `json:"enable_planning"`
}

// QAResponse is the body returned by POST /qa. Every field is optional.
// SubQuestions stays raw because backends send either a list or a
// free-text string there; only a list is rendered.
type QAResponse struct {
	Plan         string          `json:"plan,omitempty"`
	Answer       string          `json:"answer,omitempty"`
	Context      string          `json:"context,omitempty"`
	SubQuestions json.RawMessage `json:"sub_questions,omitempty"`
}

// HealthResponse is served by GET /health on the local page.
type HealthResponse struct {
	Status  string `json:"status"`
	Backend string `json:"backend"`
}
