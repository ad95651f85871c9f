package resource

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/keboola/go-utils/pkg/orderedmap"
)

// ErrMalformedTopLevel is returned when the source document is not a JSON array.
var ErrMalformedTopLevel = errors.New("resource file must contain a JSON array")

// Decoded is the outcome of decoding a source document.
type Decoded struct {
	Records []Record
	// Skipped counts array items that failed validation and were dropped.
	Skipped int
}

// Decode parses a source document. Items that are not valid records are
// skipped without error; only a document whose top-level value is not an
// array fails.
func Decode(data []byte) (*Decoded, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, ErrMalformedTopLevel
	}

	var items []json.RawMessage
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedTopLevel, err)
	}

	out := &Decoded{Records: make([]Record, 0, len(items))}
	for _, item := range items {
		rec, ok := decodeItem(item)
		if !ok {
			out.Skipped++
			continue
		}
		out.Records = append(out.Records, rec)
	}
	return out, nil
}

func decodeItem(item json.RawMessage) (Record, bool) {
	item = bytes.TrimSpace(item)
	if len(item) == 0 || item[0] != '{' {
		return Record{}, false
	}
	v, err := decodeValue(json.NewDecoder(bytes.NewReader(item)))
	if err != nil {
		return Record{}, false
	}
	candidate, _ := v.(*orderedmap.OrderedMap)
	return toRecord(candidate)
}

// decodeValue reads the next JSON value from dec. Objects become ordered maps
// in source key order; a repeated key keeps its first position and takes the
// last value.
func decodeValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	delim, ok := tok.(json.Delim)
	if !ok {
		return tok, nil
	}

	switch delim {
	case '{':
		obj := orderedmap.New()
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return nil, err
			}
			key, ok := keyTok.(string)
			if !ok {
				return nil, fmt.Errorf("unexpected object key %v", keyTok)
			}
			val, err := decodeValue(dec)
			if err != nil {
				return nil, err
			}
			obj.Set(key, val)
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return obj, nil
	case '[':
		arr := []any{}
		for dec.More() {
			val, err := decodeValue(dec)
			if err != nil {
				return nil, err
			}
			arr = append(arr, val)
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return arr, nil
	default:
		return nil, fmt.Errorf("unexpected delimiter %v", delim)
	}
}
