package jsonedit

import (
	"encoding/json"
	"reflect"
	"sort"

	gyaml "github.com/goccy/go-yaml"
)

// Node groups one container level's directly owned scalar fields. Nested
// containers appear as array/object rows and as nodes of their own.
type Node struct {
	ID   string
	Path Path
	Rows []Row
}

// Text is the node's display text.
func (n Node) Text() string { return Summarize(n.Rows) }

// BuildNodes decomposes doc into graph nodes in document order. Objects
// become one node each; arrays have no node of their own and contribute one
// node per scalar element; a scalar root is a single node at $.
func BuildNodes(doc any) []Node {
	var nodes []Node
	walkNodes(doc, Path{}, &nodes)
	return nodes
}

func walkNodes(v any, path Path, nodes *[]Node) {
	switch x := v.(type) {
	case gyaml.MapSlice:
		idx := len(*nodes)
		*nodes = append(*nodes, Node{ID: path.String(), Path: path, Rows: []Row{}})
		for _, it := range x {
			key := keyString(it.Key)
			row := KeyedRow(key, it.Value, TypeOf(it.Value))
			if row.Type.IsContainer() {
				row.Value = childCount(it.Value)
			}
			(*nodes)[idx].Rows = append((*nodes)[idx].Rows, row)
			walkNodes(it.Value, path.Append(Key(key)), nodes)
		}
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		ms := make(gyaml.MapSlice, 0, len(keys))
		for _, k := range keys {
			ms = append(ms, gyaml.MapItem{Key: k, Value: x[k]})
		}
		walkNodes(ms, path, nodes)
	case []any:
		for i, e := range x {
			p := path.Append(Index(i))
			if TypeOf(e).IsContainer() {
				walkNodes(e, p, nodes)
				continue
			}
			*nodes = append(*nodes, Node{ID: p.String(), Path: p, Rows: []Row{ScalarRow(e, TypeOf(e))}})
		}
	default:
		if len(path) == 0 {
			*nodes = append(*nodes, Node{ID: path.String(), Path: path, Rows: []Row{ScalarRow(v, TypeOf(v))}})
		}
	}
}

func childCount(v any) int {
	switch x := v.(type) {
	case gyaml.MapSlice:
		return len(x)
	case map[string]any:
		return len(x)
	case []any:
		return len(x)
	}
	return 0
}

// TypeOf reports the RowType of a document value.
func TypeOf(v any) RowType {
	switch v.(type) {
	case nil:
		return TypeNull
	case bool:
		return TypeBoolean
	case string:
		return TypeString
	case json.Number, float64, float32, int, int64, int32, uint64, uint32, uint:
		return TypeNumber
	case gyaml.MapSlice, map[string]any:
		return TypeObject
	case []any:
		return TypeArray
	}
	return kindOf(reflect.ValueOf(v))
}

// kindOf classifies other Go values by the JSON they encode to.
func kindOf(rv reflect.Value) RowType {
	switch rv.Kind() {
	case reflect.Bool:
		return TypeBoolean
	case reflect.String:
		return TypeString
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return TypeNumber
	case reflect.Slice:
		if rv.IsNil() {
			return TypeNull
		}
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			// encoding/json writes []byte as a base64 string.
			return TypeString
		}
		return TypeArray
	case reflect.Array:
		return TypeArray
	case reflect.Map:
		if rv.IsNil() {
			return TypeNull
		}
		return TypeObject
	case reflect.Struct:
		return TypeObject
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return TypeNull
		}
		return kindOf(rv.Elem())
	}
	return TypeNull
}

// FindNode returns the node whose path is structurally equal to path.
func FindNode(nodes []Node, path Path) (Node, bool) {
	for _, n := range nodes {
		if n.Path.Equal(path) {
			return n, true
		}
	}
	return Node{}, false
}
