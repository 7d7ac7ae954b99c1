package document

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"time"
)

const (
	// Collection holds one document per transaction id.
	Collection = "QRCode"
	// StatusField is the record field carrying the payment status code.
	StatusField = "status"
)

var (
	ErrNotFound = errors.New("document not found")
	// ErrStore marks a failed store call. Callers may retry it.
	ErrStore = errors.New("document store error")
	// ErrTimeout marks a store call that ran past its deadline.
	ErrTimeout = errors.New("document store timeout")
)

// Path is the single addressing function for status records: "QRCode/<transactionId>".
func Path(transactionID string) string {
	return Collection + "/" + transactionID
}

// Snapshot is one observed state of a document.
type Snapshot struct {
	Path      string                 `json:"path"`
	Fields    map[string]interface{} `json:"fields"`
	Version   int64                  `json:"version"`
	UpdatedAt time.Time              `json:"updated_at"`
}

// Int reads an integer field. Numbers decoded from JSON are accepted only when integral.
func (s Snapshot) Int(field string) (int, bool) {
	v, ok := s.Fields[field]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return int(i), true
	}
	return 0, false
}

func cloneFields(in map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func decodeFields(b []byte) (map[string]interface{}, error) {
	fields := map[string]interface{}{}
	if len(b) == 0 {
		return fields, nil
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	if err := dec.Decode(&fields); err != nil {
		return nil, err
	}
	return fields, nil
}
