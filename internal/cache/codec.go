package cache

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/rxtech-lab/argo-replay/internal/table"
	"github.com/rxtech-lab/argo-replay/pkg/errors"
)

// BinaryCodec reads and writes binary-table entries.
//
//go:generate mockgen -destination=../../mocks/mock_binary_codec.go -package=mocks github.com/rxtech-lab/argo-replay/internal/cache BinaryCodec
type BinaryCodec interface {
	Encode(path string, tbl *table.Table) error
	Decode(path string) (*table.Table, error)
}

// Entry is a decoded, validated cache entry. Its contents are shared through the
// in-process content cache and must be treated as read-only.
type Entry struct {
	Path     string
	Encoding Encoding
	// Struct holds the JSON document of a struct entry.
	Struct json.RawMessage
	// Records holds the CSV rows of a table entry, header first.
	Records [][]string
	// Table holds the decoded binary entry.
	Table *table.Table
}

// Decode unmarshals a struct entry into v.
func (e *Entry) Decode(v any) error {
	if e.Encoding != EncodingStruct {
		return errors.Newf(errors.ErrCodeUnsupportedEncoding, "entry %s is %s encoded, not struct", e.Path, e.Encoding)
	}

	if err := json.Unmarshal(e.Struct, v); err != nil {
		return errors.Wrapf(errors.ErrCodeMalformedPayload, err, "failed to decode %s", e.Path)
	}

	return nil
}

// encode writes payload into path using the encoding.
func encode(path string, encoding Encoding, payload any, binary BinaryCodec) error {
	switch encoding {
	case EncodingStruct:
		data, err := structBytes(payload)
		if err != nil {
			return err
		}

		return writeFile(path, data)
	case EncodingTable:
		data, err := tableBytes(payload)
		if err != nil {
			return err
		}

		return writeFile(path, data)
	case EncodingBinary:
		if binary == nil {
			return errors.New(errors.ErrCodeUnsupportedEncoding, "no binary codec configured")
		}

		switch v := payload.(type) {
		case *table.Table:
			if err := binary.Encode(path, v); err != nil {
				return errors.Wrapf(errors.ErrCodeCacheIO, err, "failed to encode %s", path)
			}

			return nil
		case []byte:
			return writeFile(path, v)
		default:
			return errors.Newf(errors.ErrCodeUnsupportedEncoding, "cannot store %T as binary", payload)
		}
	default:
		return encoding.Validate()
	}
}

func structBytes(payload any) ([]byte, error) {
	switch v := payload.(type) {
	case []byte:
		return v, nil
	case json.RawMessage:
		return v, nil
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeMalformedPayload, "failed to marshal payload", err)
		}

		return data, nil
	}
}

func tableBytes(payload any) ([]byte, error) {
	switch v := payload.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	case [][]string:
		var buf bytes.Buffer

		w := csv.NewWriter(&buf)
		if err := w.WriteAll(v); err != nil {
			return nil, errors.Wrap(errors.ErrCodeMalformedPayload, "failed to write csv", err)
		}

		return buf.Bytes(), nil
	default:
		return nil, errors.Newf(errors.ErrCodeUnsupportedEncoding, "cannot store %T as table", payload)
	}
}

func writeFile(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(errors.ErrCodeCacheIO, err, "failed to write %s", path)
	}

	return nil
}

// decoder turns the file at path into a validated Entry.
type decoder struct {
	errorKeys []string
	binary    BinaryCodec
}

func (d decoder) decode(path string, encoding Encoding) (*Entry, error) {
	entry := &Entry{Path: path, Encoding: encoding}

	if encoding == EncodingBinary {
		if d.binary == nil {
			return nil, errors.New(errors.ErrCodeUnsupportedEncoding, "no binary codec configured")
		}

		tbl, err := d.binary.Decode(path)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeMalformedPayload, err, "failed to decode %s", path)
		}

		if tbl.Empty() {
			return nil, errors.Newf(errors.ErrCodeEmptyResponse, "entry %s has no rows", path)
		}

		entry.Table = tbl

		return entry, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeCacheIO, err, "failed to read %s", path)
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, errors.Newf(errors.ErrCodeEmptyResponse, "entry %s is empty", path)
	}

	switch encoding {
	case EncodingStruct:
		if err := d.validateJSON(path, trimmed); err != nil {
			return nil, err
		}

		entry.Struct = json.RawMessage(trimmed)
	case EncodingTable:
		// Providers asked for CSV sometimes answer with a JSON error document.
		if trimmed[0] == '{' && json.Valid(trimmed) {
			if err := d.validateJSON(path, trimmed); err != nil {
				return nil, err
			}

			return nil, errors.Newf(errors.ErrCodeMalformedPayload, "entry %s holds JSON, expected CSV", path)
		}

		records, err := csv.NewReader(bytes.NewReader(trimmed)).ReadAll()
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeMalformedPayload, err, "failed to parse csv %s", path)
		}

		if len(records) < 2 {
			return nil, errors.Newf(errors.ErrCodeEmptyResponse, "entry %s has a header but no rows", path)
		}

		entry.Records = records
	default:
		return nil, encoding.Validate()
	}

	return entry, nil
}

func (d decoder) validateJSON(path string, data []byte) error {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return errors.Wrapf(errors.ErrCodeMalformedPayload, err, "failed to parse json %s", path)
	}

	switch v := doc.(type) {
	case nil:
		return errors.Newf(errors.ErrCodeEmptyResponse, "entry %s is null", path)
	case []any:
		if len(v) == 0 {
			return errors.Newf(errors.ErrCodeEmptyResponse, "entry %s is an empty list", path)
		}
	case map[string]any:
		if len(v) == 0 {
			return errors.Newf(errors.ErrCodeEmptyResponse, "entry %s is an empty object", path)
		}

		for _, key := range d.errorKeys {
			if message, ok := v[key]; ok && !isBlank(message) {
				return errors.Newf(errors.ErrCodeProviderError, "provider reported %s: %s", key, describe(message))
			}
		}
	}

	return nil
}

func isBlank(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case []any:
		return len(t) == 0
	case map[string]any:
		return len(t) == 0
	case bool:
		return !t
	default:
		return false
	}
}

func describe(v any) string {
	if s, ok := v.(string); ok {
		return s
	}

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}

	return string(data)
}
