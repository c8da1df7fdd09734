// Package analysis parses source files with tree-sitter and answers the
// symbol questions the margin asks: what is under the caret, and where is it
// referenced in the same document.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"sync"

	"github.com/phobologic/structmargin/internal/lang"
	"github.com/phobologic/structmargin/internal/model"
	"github.com/phobologic/structmargin/internal/syntax"
)

var (
	// ErrStale reports that a symbol was resolved against a different
	// snapshot than the one it is being used with.
	ErrStale = errors.New("analysis: stale snapshot")

	// ErrUnsupported reports a file whose language is not registered.
	ErrUnsupported = errors.New("analysis: unsupported language")

	// ErrClosed is returned by a Service after Close.
	ErrClosed = errors.New("analysis: service closed")
)

// Snapshot is one immutable parse of a document.
type Snapshot struct {
	Version int64
	Path    string
	Source  []byte
	Lang    *lang.Language
	Root    *syntax.Node

	lineStarts []int

	indexMu sync.Mutex
	index   *symbolIndex
}

// Parse parses source with the language's grammar into a new snapshot.
func Parse(ctx context.Context, l *lang.Language, path string, version int64, source []byte) (*Snapshot, error) {
	parser := l.NewParser()
	defer parser.Close()
	return parseWith(ctx, parser, l, path, version, source)
}

func parseWith(ctx context.Context, parser parser, l *lang.Language, path string, version int64, source []byte) (*Snapshot, error) {
	tree, err := parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	defer tree.Close()

	root, err := syntax.FromTree(ctx, tree.RootNode())
	if err != nil {
		return nil, err
	}

	return &Snapshot{
		Version:    version,
		Path:       path,
		Source:     source,
		Lang:       l,
		Root:       root,
		lineStarts: lineStarts(source),
	}, nil
}

// ForPath returns the registered language for a file path.
func ForPath(path string) (*lang.Language, error) {
	name := lang.ForExtension(filepath.Ext(path))
	if name == "" {
		return nil, fmt.Errorf("%s: %w", path, ErrUnsupported)
	}
	return lang.Languages[name], nil
}

func lineStarts(source []byte) []int {
	starts := []int{0}
	for i, b := range source {
		if b == '\n' {
			starts = append(starts, i+1)
		}
	}
	return starts
}

// Len returns the length of the snapshot's text.
func (s *Snapshot) Len() int {
	return len(s.Source)
}

// Lines returns the number of lines in the snapshot.
func (s *Snapshot) Lines() int {
	return len(s.lineStarts)
}

// LineOf returns the zero-based line number containing pos.
func (s *Snapshot) LineOf(pos int) int {
	if pos <= 0 {
		return 0
	}
	return sort.Search(len(s.lineStarts), func(i int) bool { return s.lineStarts[i] > pos }) - 1
}

// LineCount returns the number of line breaks between start and end.
func (s *Snapshot) LineCount(start, end int) int {
	return s.LineOf(end) - s.LineOf(start)
}

// Text returns the source text of a node.
func (s *Snapshot) Text(n *syntax.Node) string {
	return n.Text(s.Source)
}

// SpanOf converts a node's byte range into a model span.
func SpanOf(n *syntax.Node) model.Span {
	return model.Span{Start: n.Start, Length: n.End - n.Start}
}
