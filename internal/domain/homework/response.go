// internal/domain/homework/response.go
package homework

import (
	"encoding/json"
	"fmt"
)

// Batch is the validated content of one poll response.
// NoNewItems marks a well-formed response with an empty homeworks list;
// it is the "nothing changed" outcome and carries no error.
type Batch struct {
	Items          []any
	CurrentDate    int64
	HasCurrentDate bool
	NoNewItems     bool
}

// ValidateResponse checks the top-level shape of a decoded poll response and
// extracts the tracked items. Items themselves are checked by ParseStatus.
func ValidateResponse(raw any) (Batch, error) {
	payload, ok := raw.(map[string]any)
	if !ok {
		return Batch{}, fmt.Errorf("%w: expected an object, got %T", ErrMalformedResponse, raw)
	}

	homeworksRaw, ok := payload["homeworks"]
	if !ok {
		return Batch{}, fmt.Errorf("%w: missing key \"homeworks\"", ErrMalformedResponse)
	}
	items, ok := homeworksRaw.([]any)
	if !ok {
		return Batch{}, fmt.Errorf("%w: \"homeworks\" is %T, expected a list", ErrMalformedResponse, homeworksRaw)
	}

	currentDate, hasDate, dateErr := currentDateOf(payload)

	if len(items) == 0 {
		// current_date is informational here, a bad one is not worth failing over.
		batch := Batch{NoNewItems: true}
		if dateErr == nil {
			batch.CurrentDate, batch.HasCurrentDate = currentDate, hasDate
		}
		return batch, nil
	}

	if dateErr != nil {
		return Batch{}, dateErr
	}
	if !hasDate {
		return Batch{}, fmt.Errorf("%w: missing key \"current_date\"", ErrMalformedResponse)
	}

	return Batch{Items: items, CurrentDate: currentDate, HasCurrentDate: true}, nil
}

func currentDateOf(payload map[string]any) (int64, bool, error) {
	raw, ok := payload["current_date"]
	if !ok || raw == nil {
		return 0, false, nil
	}
	switch v := raw.(type) {
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, false, fmt.Errorf("%w: \"current_date\" is not an integer: %s", ErrMalformedResponse, v)
		}
		return n, true, nil
	case float64:
		if v != float64(int64(v)) {
			return 0, false, fmt.Errorf("%w: \"current_date\" is not an integer: %v", ErrMalformedResponse, v)
		}
		return int64(v), true, nil
	case int:
		return int64(v), true, nil
	case int64:
		return v, true, nil
	default:
		return 0, false, fmt.Errorf("%w: \"current_date\" is %T, expected an integer", ErrMalformedResponse, raw)
	}
}
