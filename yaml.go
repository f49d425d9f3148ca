package jsonedit

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"

	gyaml "github.com/goccy/go-yaml"
	"gopkg.in/yaml.v3"
)

// FromYAML decodes YAML into the ordered document model, so YAML files can
// be edited with the same paths as JSON ones.
func FromYAML(data []byte) (any, error) {
	var v any
	if err := gyaml.UnmarshalWithOptions(data, &v, gyaml.UseOrderedMap()); err != nil {
		return nil, fmt.Errorf("%w: failed to parse YAML: %v", ErrInvalidDocument, err)
	}
	return normalizeYAML(v), nil
}

func normalizeYAML(v any) any {
	switch x := v.(type) {
	case gyaml.MapSlice:
		out := make(gyaml.MapSlice, 0, len(x))
		for _, it := range x {
			out = setOrdered(out, keyString(it.Key), normalizeYAML(it.Value))
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = normalizeYAML(e)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = normalizeYAML(e)
		}
		return out
	case nil, bool, string, json.Number:
		return x
	case int:
		return json.Number(strconv.FormatInt(int64(x), 10))
	case int64:
		return json.Number(strconv.FormatInt(x, 10))
	case uint64:
		return json.Number(strconv.FormatUint(x, 10))
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return nil
		}
		return json.Number(strconv.FormatFloat(x, 'g', -1, 64))
	}
	return fmt.Sprint(v)
}

// ToYAML encodes a document as block YAML, keeping object key order. indent
// is clamped to 2..8 spaces.
func ToYAML(v any, indent int) ([]byte, error) {
	if indent < 2 {
		indent = 2
	}
	if indent > 8 {
		indent = 8
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(indent)
	if err := enc.Encode(yamlNode(v)); err != nil {
		_ = enc.Close()
		return nil, fmt.Errorf("jsonedit: failed to encode YAML: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("jsonedit: failed to encode YAML: %w", err)
	}
	return buf.Bytes(), nil
}

func yamlNode(v any) *yaml.Node {
	switch x := v.(type) {
	case gyaml.MapSlice:
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, it := range x {
			n.Content = append(n.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: keyString(it.Key)},
				yamlNode(it.Value))
		}
		return n
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, k := range keys {
			n.Content = append(n.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k},
				yamlNode(x[k]))
		}
		return n
	case []any:
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, e := range x {
			n.Content = append(n.Content, yamlNode(e))
		}
		return n
	case nil:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
	case bool:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(x)}
	case string:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: x}
	case json.Number:
		tag := "!!float"
		if _, err := x.Int64(); err == nil {
			tag = "!!int"
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: x.String()}
	}
	// Other Go scalars go through their JSON form.
	return yamlNode(ParseValue(string(scalarJSON(v))))
}

// DetectIndent returns the indentation step of a YAML source: the GCD of all
// non-zero indents on content lines, 2 when there is nothing to go by.
func DetectIndent(data []byte) int {
	var indents []int
	for _, ln := range bytes.Split(data, []byte("\n")) {
		t := bytes.TrimLeft(ln, " ")
		if len(bytes.TrimSpace(t)) == 0 || t[0] == '#' {
			continue
		}
		if n := len(ln) - len(t); n > 0 {
			indents = append(indents, n)
		}
	}
	if len(indents) == 0 {
		return 2
	}
	result := indents[0]
	for _, n := range indents[1:] {
		result = gcd(result, n)
		if result == 1 {
			break
		}
	}
	if result > 0 && result <= 8 {
		return result
	}
	return 2
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}
