package jsonedit

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	gyaml "github.com/goccy/go-yaml"
)

// Documents are held as plain Go values: nil, bool, json.Number, string,
// []any and gyaml.MapSlice for objects, so that key order survives an edit.
// map[string]any objects are accepted on input and written with sorted keys.

// ParseDocument decodes a complete JSON text into the ordered value model.
func ParseDocument(text string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	v, err := decodeValue(dec)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if tok, err := dec.Token(); err != io.EOF {
		if err == nil {
			err = fmt.Errorf("unexpected %v after top-level value", tok)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return v, nil
}

// ParseValue parses edited text. Text that is not valid JSON is returned as
// a plain string.
func ParseValue(text string) any {
	v, err := ParseDocument(text)
	if err != nil {
		return text
	}
	return v
}

func decodeValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	d, ok := tok.(json.Delim)
	if !ok {
		return tok, nil
	}
	switch d {
	case '{':
		obj := gyaml.MapSlice{}
		for dec.More() {
			kt, err := dec.Token()
			if err != nil {
				return nil, err
			}
			key, ok := kt.(string)
			if !ok {
				return nil, fmt.Errorf("object key %v is not a string", kt)
			}
			val, err := decodeValue(dec)
			if err != nil {
				return nil, err
			}
			obj = setOrdered(obj, key, val)
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
	}
	return nil, fmt.Errorf("unexpected delimiter %v", d)
}

// setOrdered sets key in ms, keeping the position of an existing key.
func setOrdered(ms gyaml.MapSlice, key string, val any) gyaml.MapSlice {
	for i := range ms {
		if keyEquals(ms[i].Key, key) {
			ms[i].Value = val
			return ms
		}
	}
	return append(ms, gyaml.MapItem{Key: key, Value: val})
}

func keyEquals(k any, want string) bool {
	switch vv := k.(type) {
	case string:
		return vv == want
	case fmt.Stringer:
		return vv.String() == want
	default:
		return false
	}
}

func keyString(k any) string {
	if s, ok := k.(string); ok {
		return s
	}
	return fmt.Sprint(k)
}

// MarshalIndent renders v as JSON with 2-space indentation. Values JSON
// cannot represent are written as null.
func MarshalIndent(v any) string {
	var buf bytes.Buffer
	writeValue(&buf, v, 0)
	return buf.String()
}

func writeValue(buf *bytes.Buffer, v any, depth int) {
	switch x := v.(type) {
	case gyaml.MapSlice:
		if len(x) == 0 {
			buf.WriteString("{}")
			return
		}
		buf.WriteByte('{')
		for i, it := range x {
			if i > 0 {
				buf.WriteByte(',')
			}
			writeMember(buf, keyString(it.Key), it.Value, depth+1)
		}
		newline(buf, depth)
		buf.WriteByte('}')
	case map[string]any:
		if len(x) == 0 {
			buf.WriteString("{}")
			return
		}
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			writeMember(buf, k, x[k], depth+1)
		}
		newline(buf, depth)
		buf.WriteByte('}')
	case []any:
		if len(x) == 0 {
			buf.WriteString("[]")
			return
		}
		buf.WriteByte('[')
		for i, e := range x {
			if i > 0 {
				buf.WriteByte(',')
			}
			newline(buf, depth+1)
			writeValue(buf, e, depth+1)
		}
		newline(buf, depth)
		buf.WriteByte(']')
	default:
		buf.Write(scalarJSON(v))
	}
}

func writeMember(buf *bytes.Buffer, key string, v any, depth int) {
	newline(buf, depth)
	buf.Write(scalarJSON(key))
	buf.WriteString(": ")
	writeValue(buf, v, depth)
}

func newline(buf *bytes.Buffer, depth int) {
	buf.WriteByte('\n')
	for i := 0; i < depth; i++ {
		buf.WriteString("  ")
	}
}

func scalarJSON(v any) []byte {
	var b bytes.Buffer
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return []byte("null")
	}
	return bytes.TrimRight(b.Bytes(), "\n")
}

// Clone returns a deep copy of v. Containers are copied at every level;
// scalars are immutable and returned as is.
func Clone(v any) any {
	switch x := v.(type) {
	case gyaml.MapSlice:
		out := make(gyaml.MapSlice, len(x))
		for i, it := range x {
			out[i] = gyaml.MapItem{Key: it.Key, Value: Clone(it.Value)}
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = Clone(e)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = Clone(e)
		}
		return out
	default:
		return v
	}
}
