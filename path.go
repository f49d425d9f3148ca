package jsonedit

import (
	"fmt"
	"strconv"
	"strings"
)

// Segment is one step of a Path: an array index or an object key.
type Segment struct {
	key     string
	index   int
	isIndex bool
}

// Key returns an object-key segment.
func Key(k string) Segment { return Segment{key: k} }

// Index returns an array-index segment. i must be non-negative.
func Index(i int) Segment { return Segment{index: i, isIndex: true} }

// IsIndex reports whether s is an array index.
func (s Segment) IsIndex() bool { return s.isIndex }

// Key returns the object key; it is empty for an index segment.
func (s Segment) Key() string { return s.key }

// Index returns the array index; it is 0 for a key segment.
func (s Segment) Index() int { return s.index }

func (s Segment) String() string {
	if s.isIndex {
		return "[" + strconv.Itoa(s.index) + "]"
	}
	// Embedded quotes are not escaped.
	return `["` + s.key + `"]`
}

// Path locates a value inside a JSON document. The empty Path is the root.
type Path []Segment

// NewPath builds a Path from ints (indices) and strings (keys). Any other
// element type panics.
func NewPath(elems ...any) Path {
	p := make(Path, 0, len(elems))
	for _, e := range elems {
		switch v := e.(type) {
		case int:
			p = append(p, Index(v))
		case string:
			p = append(p, Key(v))
		default:
			panic(fmt.Sprintf("jsonedit: unsupported path element %T", e))
		}
	}
	return p
}

// FormatPath renders p in bracket notation, e.g. $["customer"][0]["name"].
func FormatPath(p Path) string {
	var b strings.Builder
	b.WriteByte('$')
	for _, s := range p {
		b.WriteString(s.String())
	}
	return b.String()
}

func (p Path) String() string { return FormatPath(p) }

// Equal reports exact structural equality.
func (p Path) Equal(q Path) bool {
	if len(p) != len(q) {
		return false
	}
	for i := range p {
		if p[i] != q[i] {
			return false
		}
	}
	return true
}

// Append returns a new Path with s added; p is not modified.
func (p Path) Append(s Segment) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, s)
}

var pointerEscaper = strings.NewReplacer("~", "~0", "/", "~1")

// Pointer returns the RFC 6901 JSON Pointer for p.
func (p Path) Pointer() string {
	var b strings.Builder
	for _, s := range p {
		b.WriteByte('/')
		if s.isIndex {
			b.WriteString(strconv.Itoa(s.index))
			continue
		}
		b.WriteString(pointerEscaper.Replace(s.key))
	}
	return b.String()
}

// ParsePath parses the bracket notation produced by FormatPath. A `.name`
// shorthand is accepted for keys made of letters, digits, '_' and '-'.
func ParsePath(s string) (Path, error) {
	if len(s) == 0 || s[0] != '$' {
		return nil, fmt.Errorf("%w: %q should start with '$'", ErrInvalidPath, s)
	}
	p := Path{}
	rest := s[1:]
	for len(rest) > 0 {
		switch rest[0] {
		case '.':
			i := 1
			for i < len(rest) && isIdentByte(rest[i]) {
				i++
			}
			if i == 1 {
				return nil, fmt.Errorf("%w: empty field in %q", ErrInvalidPath, s)
			}
			p = append(p, Key(rest[1:i]))
			rest = rest[i:]
		case '[':
			if len(rest) > 1 && rest[1] == '"' {
				end := strings.Index(rest[2:], `"]`)
				if end == -1 {
					return nil, fmt.Errorf("%w: unterminated key in %q", ErrInvalidPath, s)
				}
				p = append(p, Key(rest[2:2+end]))
				rest = rest[2+end+2:]
				continue
			}
			end := strings.IndexByte(rest, ']')
			if end == -1 {
				return nil, fmt.Errorf("%w: expected ']' in %q", ErrInvalidPath, s)
			}
			n, err := strconv.ParseUint(rest[1:end], 10, 31)
			if err != nil {
				return nil, fmt.Errorf("%w: bad index %q: %v", ErrInvalidPath, rest[1:end], err)
			}
			p = append(p, Index(int(n)))
			rest = rest[end+1:]
		default:
			return nil, fmt.Errorf("%w: expected '.' or '[' in %q", ErrInvalidPath, s)
		}
	}
	return p, nil
}

func isIdentByte(c byte) bool {
	return c == '_' || c == '-' ||
		('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9')
}
