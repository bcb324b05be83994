package internal

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// ErrNotArray is returned for JSON imports whose top-level value is not an array
var ErrNotArray = errors.New("data is not an array")

// ImportJSON reads a JSON array of subscription records, the same shape
// ExportJSON writes:
//
//	[
//	  {"name": "Netflix", "provider": "Netflix", "category": "Streaming",
//	   "icon": "streaming", "startDate": "2024-03-01T00:00:00.000Z",
//	   "billingCycle": "monthly", "amount": 15.99, "currency": "USD",
//	   "notes": "", "activeStatus": true, "autoRenew": true}
//	]
func ImportJSON(path string) ([]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	return DecodeImportJSON(data)
}

// DecodeImportJSON decodes an import payload. null, objects and scalars are
// rejected with ErrNotArray; an empty array is a valid (empty) import.
func DecodeImportJSON(data []byte) ([]any, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}
	items, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("%w, received %s", ErrNotArray, typeName(v))
	}
	return items, nil
}
