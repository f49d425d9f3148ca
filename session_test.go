package jsonedit

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

type memDocs struct {
	text        string
	sets        int
	lastChanged bool
}

func (m *memDocs) Text() string { return m.text }

func (m *memDocs) SetText(text string, hasChanges bool) {
	m.text = text
	m.sets++
	m.lastChanged = hasChanges
}

type memGraph struct {
	nodes    []Node
	selected *Node
}

func (g *memGraph) Selected() (Node, bool) {
	if g.selected == nil {
		return Node{}, false
	}
	return *g.selected, true
}

func (g *memGraph) Nodes() []Node { return g.nodes }
func (g *memGraph) Select(n Node) { g.selected = &n }

func TestSessionEditSaveEndToEnd(t *testing.T) {
	docs := &memDocs{text: `{"customer":{"name":"Ann","age":30}}`}
	age := Node{Path: NewPath("customer", "age"), Rows: []Row{ScalarRow(30, TypeNumber)}}
	graph := &memGraph{selected: &age}

	s := NewSession(docs, graph)
	if s.Text() != "30" {
		t.Fatalf("display text = %q, want 30", s.Text())
	}
	if s.Path() != `$["customer"]["age"]` {
		t.Fatalf("path = %s", s.Path())
	}
	if err := s.Edit(); err != nil {
		t.Fatalf("Edit: %v", err)
	}
	if s.State() != Editing || s.Buffer() != "30" {
		t.Fatalf("state %s buffer %q", s.State(), s.Buffer())
	}
	s.SetBuffer("31")
	if err := s.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	want := "{\n  \"customer\": {\n    \"name\": \"Ann\",\n    \"age\": 31\n  }\n}"
	if docs.text != want {
		t.Fatalf("document =\n%s\nwant\n%s", docs.text, want)
	}
	if docs.sets != 1 || !docs.lastChanged {
		t.Fatalf("SetText called %d times, hasChanges=%v", docs.sets, docs.lastChanged)
	}
	if s.State() != Viewing || s.Text() != "31" {
		t.Fatalf("after save: state %s text %q", s.State(), s.Text())
	}
}

func TestSessionSaveStoresInvalidJSONAsString(t *testing.T) {
	docs := &memDocs{text: `{"customer":{"name":"Ann"}}`}
	graph := &memGraph{}
	s := NewSession(docs, graph)
	s.Select(Node{Path: NewPath("customer", "name"), Rows: []Row{ScalarRow("Ann", TypeString)}})
	if s.Text() != `"Ann"` {
		t.Fatalf("text = %s", s.Text())
	}
	if graph.selected == nil || !graph.selected.Path.Equal(NewPath("customer", "name")) {
		t.Fatalf("Select did not update the node store")
	}
	mustEdit(t, s)
	s.SetBuffer("Bob the builder")
	if err := s.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !strings.Contains(docs.text, `"name": "Bob the builder"`) {
		t.Fatalf("document = %s", docs.text)
	}
}

func TestSessionSaveUnchangedValueStillMarksChanges(t *testing.T) {
	docs := &memDocs{text: `{"customer":{"name":"Ann","age":30}}`}
	s := NewSession(docs, &memGraph{})
	s.Select(Node{Path: NewPath("customer", "age"), Rows: []Row{ScalarRow(30, TypeNumber)}})
	mustEdit(t, s)
	if err := s.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if docs.sets != 1 || !docs.lastChanged {
		t.Fatalf("SetText called %d times, hasChanges=%v", docs.sets, docs.lastChanged)
	}
	if !strings.Contains(docs.text, "\n    \"age\": 30\n") {
		t.Fatalf("document = %s", docs.text)
	}
}

func TestSessionCancelRestoresText(t *testing.T) {
	docs := &memDocs{text: `{"a":1}`}
	s := NewSession(docs, &memGraph{})
	s.Select(Node{Path: NewPath("a"), Rows: []Row{ScalarRow(1, TypeNumber)}})
	mustEdit(t, s)
	s.SetBuffer("2")
	s.Cancel()
	if s.State() != Viewing || s.Text() != "1" || s.Buffer() != "" {
		t.Fatalf("after cancel: state %s text %q buffer %q", s.State(), s.Text(), s.Buffer())
	}
	if docs.sets != 0 {
		t.Fatalf("cancel must not touch the document")
	}
	s.SetBuffer("ignored")
	if s.Buffer() != "" {
		t.Fatalf("SetBuffer while viewing changed the buffer")
	}
}

func TestSessionStateErrors(t *testing.T) {
	s := NewSession(&memDocs{text: "{}"}, &memGraph{})
	if err := s.Save(); !errors.Is(err, ErrNotEditing) {
		t.Fatalf("Save while viewing: %v", err)
	}
	mustEdit(t, s)
	if err := s.Edit(); !errors.Is(err, ErrNotViewing) {
		t.Fatalf("Edit while editing: %v", err)
	}
}

func TestSessionSaveFailuresKeepEditing(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		path Path
		want error
		op   string
	}{
		{"document parse failure", `{"a":`, NewPath("a"), ErrInvalidDocument, "parse"},
		{"precondition violation", `{"a":1}`, NewPath("missing", "x"), ErrPathNotFound, "apply"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			docs := &memDocs{text: tt.doc}
			var notified []error
			var logs bytes.Buffer
			s := NewSession(docs, &memGraph{},
				WithNotifier(func(err error) { notified = append(notified, err) }),
				WithLogger(log.New(&logs)))
			s.Select(Node{Path: tt.path, Rows: []Row{ScalarRow(1, TypeNumber)}})
			mustEdit(t, s)
			s.SetBuffer("2")

			err := s.Save()
			if !errors.Is(err, tt.want) {
				t.Fatalf("Save error = %v, want %v", err, tt.want)
			}
			var se *SaveError
			if !errors.As(err, &se) || se.Op != tt.op || !se.Path.Equal(tt.path) {
				t.Fatalf("Save error = %#v", err)
			}
			if !IsSaveError(err) {
				t.Fatalf("IsSaveError = false")
			}
			if s.State() != Editing || s.Buffer() != "2" {
				t.Fatalf("state %s buffer %q, want editing with buffer kept", s.State(), s.Buffer())
			}
			if docs.sets != 0 || docs.text != tt.doc {
				t.Fatalf("document store touched on failed save")
			}
			if len(notified) != 1 || notified[0] != err {
				t.Fatalf("notifier got %v", notified)
			}
			if !strings.Contains(logs.String(), "save failed") {
				t.Fatalf("expected warning in log, got %q", logs.String())
			}
		})
	}
}

func TestSessionRefreshRelocatesNodeByPath(t *testing.T) {
	docs := &memDocs{text: customerDoc}
	graph := &memGraph{nodes: BuildNodes(mustParse(t, customerDoc))}
	order, ok := FindNode(graph.nodes, NewPath("orders", 0))
	if !ok {
		t.Fatalf("orders[0] node missing")
	}
	s := NewSession(docs, graph)
	s.Select(order)
	mustEdit(t, s)
	s.SetBuffer(`{"id": 1, "total": 10, "note": "<rush>"}`)
	if err := s.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	// The graph is re-derived from the new document text.
	graph.nodes = BuildNodes(mustParse(t, docs.text))
	graph.selected = nil
	if !s.Refresh() {
		t.Fatalf("Refresh did not find the node")
	}
	want := "{\n  \"id\": 1,\n  \"total\": 10,\n  \"note\": \"<rush>\"\n}"
	if s.Text() != want {
		t.Fatalf("text =\n%s\nwant\n%s", s.Text(), want)
	}
	if graph.selected == nil || !graph.selected.Path.Equal(order.Path) {
		t.Fatalf("selection pointer not updated")
	}
	if len(s.Node().Rows) != 3 {
		t.Fatalf("rows = %#v", s.Node().Rows)
	}

	graph.nodes = BuildNodes(mustParse(t, `{"orders":[]}`))
	if s.Refresh() {
		t.Fatalf("Refresh found a node that no longer exists")
	}
	if s.Text() != want {
		t.Fatalf("failed refresh changed the text")
	}
}

func TestSessionRefreshWhileEditingKeepsBuffer(t *testing.T) {
	graph := &memGraph{nodes: BuildNodes(mustParse(t, `{"a":1}`))}
	s := NewSession(&memDocs{text: `{"a":1}`}, graph)
	s.Select(graph.nodes[0])
	mustEdit(t, s)
	s.SetBuffer(`{"a": 5}`)

	graph.nodes = BuildNodes(mustParse(t, `{"a":2}`))
	if !s.Refresh() {
		t.Fatalf("Refresh did not find root")
	}
	if s.State() != Editing || s.Buffer() != `{"a": 5}` {
		t.Fatalf("refresh disturbed the edit: %s %q", s.State(), s.Buffer())
	}
	if s.Text() != "{\n  \"a\": 2\n}" {
		t.Fatalf("text = %q", s.Text())
	}
}

func TestSessionSyncResetsOnSelectionChange(t *testing.T) {
	nodes := BuildNodes(mustParse(t, customerDoc))
	graph := &memGraph{nodes: nodes, selected: &nodes[1]}
	s := NewSession(&memDocs{text: customerDoc}, graph)
	mustEdit(t, s)
	s.SetBuffer("{}")

	// Same path: nothing happens.
	s.Sync()
	if s.State() != Editing {
		t.Fatalf("Sync with unchanged selection left editing")
	}

	graph.selected = &nodes[4]
	s.Sync()
	if s.State() != Viewing || s.Buffer() != "" {
		t.Fatalf("state %s buffer %q after selection change", s.State(), s.Buffer())
	}
	if !s.Node().Path.Equal(NewPath("orders", 0)) || s.Text() != nodes[4].Text() {
		t.Fatalf("session shows %s", s.Path())
	}
}

func TestSessionSelectDuringEditDiscards(t *testing.T) {
	docs := &memDocs{text: `{"a":1,"b":2}`}
	s := NewSession(docs, &memGraph{})
	s.Select(Node{Path: NewPath("a"), Rows: []Row{ScalarRow(1, TypeNumber)}})
	mustEdit(t, s)
	s.SetBuffer("9")
	s.Select(Node{Path: NewPath("b"), Rows: []Row{ScalarRow(2, TypeNumber)}})
	if s.State() != Viewing || s.Text() != "2" {
		t.Fatalf("state %s text %q", s.State(), s.Text())
	}
	if docs.sets != 0 {
		t.Fatalf("selection change saved the edit")
	}
}

func mustEdit(t *testing.T, s *Session) {
	t.Helper()
	if err := s.Edit(); err != nil {
		t.Fatalf("Edit: %v", err)
	}
}
