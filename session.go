package jsonedit

import (
	"errors"
	"io"

	"github.com/charmbracelet/log"
)

// DocumentStore holds the full document text being edited.
type DocumentStore interface {
	Text() string
	// SetText replaces the document text. hasChanges marks the document as
	// having unsaved changes; Session.Save always sets it.
	SetText(text string, hasChanges bool)
}

// NodeStore exposes the graph derived from the document and the current
// selection.
type NodeStore interface {
	Selected() (Node, bool)
	Nodes() []Node
	Select(Node)
}

// State is the editing state of a Session.
type State int

const (
	// Viewing shows the node summary read-only.
	Viewing State = iota
	// Editing holds a buffer that Save applies to the document.
	Editing
)

func (s State) String() string {
	if s == Editing {
		return "editing"
	}
	return "viewing"
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger used for state transitions and failed saves.
func WithLogger(l *log.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// WithNotifier registers a callback receiving every failed save.
func WithNotifier(fn func(error)) Option {
	return func(s *Session) { s.notify = fn }
}

// Session drives the view/edit/save lifecycle for one selected node. It is
// not safe for concurrent use.
type Session struct {
	docs   DocumentStore
	nodes  NodeStore
	logger *log.Logger
	notify func(error)

	node   Node
	state  State
	text   string
	buffer string
}

// NewSession returns a Session showing the node store's current selection,
// if any.
func NewSession(docs DocumentStore, nodes NodeStore, opts ...Option) *Session {
	s := &Session{
		docs:   docs,
		nodes:  nodes,
		logger: log.New(io.Discard),
		text:   Summarize(nil),
	}
	for _, o := range opts {
		o(s)
	}
	if n, ok := nodes.Selected(); ok {
		s.show(n)
	}
	return s
}

// State returns the current editing state.
func (s *Session) State() State { return s.state }

// Node returns the node being shown.
func (s *Session) Node() Node { return s.node }

// Text returns the display text: the node summary, or the last saved buffer.
func (s *Session) Text() string { return s.text }

// Path returns the shown node's path in bracket notation.
func (s *Session) Path() string { return s.node.Path.String() }

// Buffer returns the edit buffer, empty while Viewing.
func (s *Session) Buffer() string { return s.buffer }

// Select shows n, dropping any edit in progress.
func (s *Session) Select(n Node) {
	if s.state == Editing {
		s.logger.Debug("discarding edit on selection change", "from", s.node.Path, "to", n.Path)
	}
	s.show(n)
	s.nodes.Select(n)
}

// Sync picks up a selection made directly on the node store. A change of
// path resets the session to Viewing.
func (s *Session) Sync() {
	n, ok := s.nodes.Selected()
	if !ok || n.Path.Equal(s.node.Path) {
		return
	}
	if s.state == Editing {
		s.logger.Debug("discarding edit on selection change", "from", s.node.Path, "to", n.Path)
	}
	s.show(n)
}

func (s *Session) show(n Node) {
	s.node = n
	s.text = Summarize(n.Rows)
	s.buffer = ""
	s.state = Viewing
}

// Edit starts editing with the display text as the buffer.
func (s *Session) Edit() error {
	if s.state == Editing {
		return ErrNotViewing
	}
	s.buffer = s.text
	s.state = Editing
	s.logger.Debug("edit", "path", s.node.Path)
	return nil
}

// SetBuffer replaces the edit buffer. It has no effect while Viewing.
func (s *Session) SetBuffer(text string) {
	if s.state == Editing {
		s.buffer = text
	}
}

// Cancel discards the buffer and returns to Viewing.
func (s *Session) Cancel() {
	if s.state != Editing {
		return
	}
	s.buffer = ""
	s.state = Viewing
	s.logger.Debug("cancel", "path", s.node.Path)
}

// Save applies the buffer at the node's path to the full document and hands
// the result to the document store. On failure the session stays Editing
// with its buffer intact, the store is left alone and the error, a
// *SaveError, is also passed to the notifier.
func (s *Session) Save() error {
	if s.state != Editing {
		return ErrNotEditing
	}
	out, err := s.patch()
	if err != nil {
		s.logger.Warn("save failed", "path", s.node.Path, "err", err)
		if s.notify != nil {
			s.notify(err)
		}
		return err
	}
	s.docs.SetText(out, true)
	s.text = s.buffer
	s.buffer = ""
	s.state = Viewing
	s.logger.Debug("saved", "path", s.node.Path, "bytes", len(out))
	return nil
}

func (s *Session) patch() (string, error) {
	value := ParseValue(s.buffer)
	doc, err := ParseDocument(s.docs.Text())
	if err != nil {
		return "", &SaveError{Op: "parse", Path: s.node.Path, Err: err}
	}
	doc, err = Apply(doc, s.node.Path, value)
	if err != nil {
		return "", &SaveError{Op: "apply", Path: s.node.Path, Err: err}
	}
	return MarshalIndent(doc), nil
}

// Refresh re-locates the session's node in the node store after the graph
// was rebuilt, matching by path. The display text follows the refreshed
// rows; an edit buffer is left alone. It reports whether the node was found.
func (s *Session) Refresh() bool {
	n, ok := FindNode(s.nodes.Nodes(), s.node.Path)
	if !ok {
		s.logger.Debug("node not found after refresh", "path", s.node.Path)
		return false
	}
	s.node = n
	s.text = Summarize(n.Rows)
	s.nodes.Select(n)
	return true
}

// IsSaveError reports whether err came from a failed Save.
func IsSaveError(err error) bool {
	var se *SaveError
	return errors.As(err, &se)
}
