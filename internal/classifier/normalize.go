package classifier

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/Veraticus/frame-labeler/internal/common"
	"github.com/Veraticus/frame-labeler/internal/model"
)

// rawPrediction accepts both {label, confidence} and the
// {className, probability} naming used by exported image models.
type rawPrediction struct {
	Confidence  *float64 `json:"confidence"`
	Probability *float64 `json:"probability"`
	Label       string   `json:"label"`
	ClassName   string   `json:"className"`
}

// Normalize turns a classifier response body into a sorted result list.
//
// Accepted shapes are a bare array of predictions, {"predictions": [...]},
// {"results": [...]} and {"error": ...}. An error field holding a string is
// a classification failure. An error field holding a prediction array is a
// result delivered in the wrong slot and is treated as a result. Anything
// else is reported as common.ErrMalformedResult.
func Normalize(body []byte) (model.Predictions, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, fmt.Errorf("%w: empty response", common.ErrMalformedResult)
	}

	switch body[0] {
	case '[':
		return decodePredictions(body)
	case '{':
		return normalizeObject(body)
	default:
		return nil, fmt.Errorf("%w: unexpected response: %s", common.ErrMalformedResult, truncate(body))
	}
}

func normalizeObject(body []byte) (model.Predictions, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrMalformedResult, err)
	}

	if raw, ok := fields["error"]; ok && !isNull(raw) {
		return normalizeErrorField(raw)
	}

	for _, key := range []string{"predictions", "results"} {
		if raw, ok := fields[key]; ok {
			return decodePredictions(raw)
		}
	}

	return nil, fmt.Errorf("%w: no predictions in response: %s", common.ErrMalformedResult, truncate(body))
}

func normalizeErrorField(raw json.RawMessage) (model.Predictions, error) {
	raw = bytes.TrimSpace(raw)
	switch raw[0] {
	case '[':
		preds, err := decodePredictions(raw)
		if err != nil {
			return nil, err
		}
		// An empty list here is not a result.
		if len(preds) == 0 {
			return nil, fmt.Errorf("%w: empty error field", common.ErrMalformedResult)
		}
		return preds, nil
	case '"':
		var msg string
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, fmt.Errorf("%w: %w", common.ErrMalformedResult, err)
		}
		return nil, fmt.Errorf("%w: %s", common.ErrClassificationFailed, msg)
	case '{':
		var detail struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(raw, &detail); err == nil && detail.Message != "" {
			return nil, fmt.Errorf("%w: %s", common.ErrClassificationFailed, detail.Message)
		}
	}
	return nil, fmt.Errorf("%w: unrecognised error field: %s", common.ErrMalformedResult, truncate(raw))
}

func decodePredictions(raw []byte) (model.Predictions, error) {
	var entries []rawPrediction
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrMalformedResult, err)
	}

	preds := make(model.Predictions, 0, len(entries))
	for i, e := range entries {
		p := model.Prediction{Label: e.Label}
		if p.Label == "" {
			p.Label = e.ClassName
		}

		switch {
		case e.Confidence != nil:
			p.Confidence = *e.Confidence
		case e.Probability != nil:
			p.Confidence = *e.Probability
		default:
			return nil, fmt.Errorf("%w: prediction %d has no confidence", common.ErrMalformedResult, i)
		}
		preds = append(preds, p)
	}

	if err := preds.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrMalformedResult, err)
	}

	preds.Sort()
	return preds, nil
}

func isNull(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}

func truncate(b []byte) string {
	const limit = 120
	if len(b) <= limit {
		return string(b)
	}
	return string(b[:limit]) + "..."
}
