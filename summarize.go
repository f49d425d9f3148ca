package jsonedit

import gyaml "github.com/goccy/go-yaml"

// RowType is the JSON kind of a Row's value.
type RowType string

// The six JSON kinds. Array and object rows stand for child nodes.
const (
	TypeString  RowType = "string"
	TypeNumber  RowType = "number"
	TypeBoolean RowType = "boolean"
	TypeNull    RowType = "null"
	TypeArray   RowType = "array"
	TypeObject  RowType = "object"
)

// IsContainer reports whether rows of this type stand for a child node.
func (t RowType) IsContainer() bool {
	return t == TypeArray || t == TypeObject
}

// Row is one key/value/type entry of a Node's content. Unkeyed rows carry a
// single scalar (root scalars and array elements).
type Row struct {
	Key   string
	Keyed bool
	Value any
	Type  RowType
}

// KeyedRow returns a row for an object field.
func KeyedRow(key string, value any, t RowType) Row {
	return Row{Key: key, Keyed: true, Value: value, Type: t}
}

// ScalarRow returns an unkeyed row, used for root scalars and array
// elements.
func ScalarRow(value any, t RowType) Row {
	return Row{Value: value, Type: t}
}

// Summarize renders a node's rows as pretty JSON text. A lone unkeyed row
// renders as its bare value; otherwise the keyed scalar rows form an object
// in row order. Array and object rows are left out since they are shown by
// their own nodes.
func Summarize(rows []Row) string {
	if len(rows) == 0 {
		return "{}"
	}
	if len(rows) == 1 && !rows[0].Keyed {
		return MarshalIndent(rows[0].Value)
	}
	obj := gyaml.MapSlice{}
	for _, r := range rows {
		if r.Type.IsContainer() || !r.Keyed {
			continue
		}
		obj = setOrdered(obj, r.Key, r.Value)
	}
	return MarshalIndent(obj)
}
