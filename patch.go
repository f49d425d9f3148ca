package jsonedit

import (
	"fmt"

	gyaml "github.com/goccy/go-yaml"
)

// Apply returns a copy of doc with the value at path replaced by value.
// Neither doc nor value is modified, and the result shares no containers
// with either. An empty path replaces the whole document.
//
// path must have been derived from a document of the same shape: a missing
// intermediate, a scalar where a container is expected or a segment of the
// wrong kind yields an error wrapping ErrPathNotFound.
func Apply(doc any, path Path, value any) (any, error) {
	if len(path) == 0 {
		return Clone(value), nil
	}
	return setAt(Clone(doc), path, 0, Clone(value))
}

// setAt walks path from depth inside cur, a copy owned by the caller, and
// returns cur with the final segment assigned.
func setAt(cur any, path Path, depth int, value any) (any, error) {
	seg := path[depth]
	if depth < len(path)-1 {
		next, ok := child(cur, seg)
		if !ok {
			return nil, notFound(path[:depth+1], path)
		}
		updated, err := setAt(next, path, depth+1, value)
		if err != nil {
			return nil, err
		}
		value = updated
	}
	out, ok := put(cur, seg, value)
	if !ok {
		return nil, notFound(path[:depth+1], path)
	}
	return out, nil
}

// Get returns the value at path. The returned value shares structure with
// doc; Clone it before modifying.
func Get(doc any, path Path) (any, error) {
	cur := doc
	for i, seg := range path {
		next, ok := child(cur, seg)
		if !ok {
			return nil, notFound(path[:i+1], path)
		}
		cur = next
	}
	return cur, nil
}

func notFound(at, full Path) error {
	if len(at) == len(full) {
		return fmt.Errorf("%w: %s", ErrPathNotFound, full)
	}
	return fmt.Errorf("%w: %s (stopped at %s)", ErrPathNotFound, full, at)
}

func child(container any, seg Segment) (any, bool) {
	switch c := container.(type) {
	case gyaml.MapSlice:
		if seg.isIndex {
			return nil, false
		}
		for _, it := range c {
			if keyEquals(it.Key, seg.key) {
				return it.Value, true
			}
		}
	case map[string]any:
		if seg.isIndex {
			return nil, false
		}
		v, ok := c[seg.key]
		return v, ok
	case []any:
		if !seg.isIndex || seg.index < 0 || seg.index >= len(c) {
			return nil, false
		}
		return c[seg.index], true
	}
	return nil, false
}

// put sets seg inside container and returns the container, which may have
// grown. An absent object key is appended; an index equal to the array
// length appends.
func put(container any, seg Segment, value any) (any, bool) {
	switch c := container.(type) {
	case gyaml.MapSlice:
		if seg.isIndex {
			return nil, false
		}
		return setOrdered(c, seg.key, value), true
	case map[string]any:
		if seg.isIndex {
			return nil, false
		}
		c[seg.key] = value
		return c, true
	case []any:
		if !seg.isIndex || seg.index < 0 || seg.index > len(c) {
			return nil, false
		}
		if seg.index == len(c) {
			return append(c, value), true
		}
		c[seg.index] = value
		return c, true
	}
	return nil, false
}
