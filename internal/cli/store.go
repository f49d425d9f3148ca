package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	jsonpatch "github.com/evanphx/json-patch/v5"

	"github.com/kevinwang15/jsonedit"
)

const (
	formatJSON = "json"
	formatYAML = "yaml"
)

// detectFormat returns the explicit format, or guesses it from the file
// extension.
func detectFormat(path, explicit string) (string, error) {
	switch strings.ToLower(explicit) {
	case formatJSON:
		return formatJSON, nil
	case formatYAML, "yml":
		return formatYAML, nil
	case "":
	default:
		return "", fmt.Errorf("unknown format %q (want json or yaml)", explicit)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return formatYAML, nil
	}
	return formatJSON, nil
}

// fileStore is a jsonedit.DocumentStore backed by a file. The text is kept
// as JSON in memory; flush writes it back in the file's own format.
type fileStore struct {
	path    string
	format  string
	indent  int
	orig    string
	text    string
	changed bool
}

func openFileStore(path, format string) (*fileStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	st := &fileStore{path: path, format: format}
	if format == formatYAML {
		doc, err := jsonedit.FromYAML(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		st.text = jsonedit.MarshalIndent(doc)
		st.indent = jsonedit.DetectIndent(data)
	} else {
		st.text = string(data)
	}
	st.orig = st.text
	return st, nil
}

func (s *fileStore) Text() string { return s.text }

func (s *fileStore) SetText(text string, hasChanges bool) {
	s.text = text
	s.changed = s.changed || hasChanges
}

// modified reports whether the document has unsaved edits that differ
// semantically from the file as opened. Reformatting alone does not count.
func (s *fileStore) modified() bool {
	return s.changed && !jsonpatch.Equal([]byte(s.orig), []byte(s.text))
}

// document returns the parsed current text.
func (s *fileStore) document() (any, error) {
	doc, err := jsonedit.ParseDocument(s.text)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.path, err)
	}
	return doc, nil
}

// render returns the current document in the store's format.
func (s *fileStore) render() ([]byte, error) {
	if s.format != formatYAML {
		return []byte(strings.TrimRight(s.text, "\n") + "\n"), nil
	}
	doc, err := s.document()
	if err != nil {
		return nil, err
	}
	return jsonedit.ToYAML(doc, s.indent)
}

func (s *fileStore) flush() error {
	if !s.modified() {
		return nil
	}
	out, err := s.render()
	if err != nil {
		return err
	}
	info, err := os.Stat(s.path)
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, out, info.Mode().Perm())
}

// graphStore is a jsonedit.NodeStore over the nodes of one document.
type graphStore struct {
	nodes    []jsonedit.Node
	selected *jsonedit.Node
}

func newGraphStore(doc any) *graphStore {
	return &graphStore{nodes: jsonedit.BuildNodes(doc)}
}

func (g *graphStore) Selected() (jsonedit.Node, bool) {
	if g.selected == nil {
		return jsonedit.Node{}, false
	}
	return *g.selected, true
}

func (g *graphStore) Nodes() []jsonedit.Node { return g.nodes }

func (g *graphStore) Select(n jsonedit.Node) { g.selected = &n }

// rebuild re-derives the graph after the document changed.
func (g *graphStore) rebuild(doc any) { g.nodes = jsonedit.BuildNodes(doc) }

// nodeAt returns the graph node at path, or a single-row node holding the
// value at path when the location is a field inside another node. A path
// whose parent exists but whose last segment does not yet yields a null
// node, so that saving it adds the key or appends the element.
func (g *graphStore) nodeAt(doc any, path jsonedit.Path) (jsonedit.Node, error) {
	if n, ok := jsonedit.FindNode(g.nodes, path); ok {
		return n, nil
	}
	v, err := jsonedit.Get(doc, path)
	if err != nil {
		if len(path) == 0 {
			return jsonedit.Node{}, err
		}
		if _, perr := jsonedit.Get(doc, path[:len(path)-1]); perr != nil {
			return jsonedit.Node{}, err
		}
		v = nil
	}
	return jsonedit.Node{
		ID:   path.String(),
		Path: path,
		Rows: []jsonedit.Row{jsonedit.ScalarRow(v, jsonedit.TypeOf(v))},
	}, nil
}
