package normalize

import (
	"bytes"
	"encoding/json"

	"github.com/opentam/tamclient/tamerrors"
)

// The intranet list pages (absences, classmates, teachers) are HTML documents
// with the actual rows embedded as a JavaScript object literal. The object
// sits between the gridDataAndConfiguration marker and the front-end options
// that follow it, with the JSON double-escaped.
var (
	gridMarker = []byte("gridDataAndConfiguration:")
	gridEnd    = []byte("},front")
)

type gridEnvelope struct {
	Data struct {
		Data []json.RawMessage `json:"data"`
	} `json:"data"`
}

// ExtractGrid pulls the embedded row objects out of an intranet list page.
// The rows are returned raw, in page order, for entity-specific decoding.
func ExtractGrid(entityName string, body []byte) ([]json.RawMessage, error) {
	start := bytes.Index(body, gridMarker)
	if start < 0 {
		return nil, &tamerrors.IncompleteResponseError{Entity: entityName, Field: "gridDataAndConfiguration"}
	}
	rest := body[start+len(gridMarker):]
	end := bytes.LastIndex(rest, gridEnd)
	if end < 0 {
		return nil, &tamerrors.IncompleteResponseError{Entity: entityName, Field: "gridDataAndConfiguration"}
	}
	blob := CollapseBackslashes(rest[:end+1])

	var envelope gridEnvelope
	if err := json.Unmarshal(blob, &envelope); err != nil {
		return nil, &tamerrors.IncompleteResponseError{Entity: entityName, Field: "data"}
	}
	if envelope.Data.Data == nil {
		return nil, &tamerrors.IncompleteResponseError{Entity: entityName, Field: "data.data"}
	}
	return envelope.Data.Data, nil
}
