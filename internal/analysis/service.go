package analysis

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/structmargin/internal/lang"
)

// parser is the part of *sitter.Parser the service uses.
type parser interface {
	ParseCtx(ctx context.Context, oldTree *sitter.Tree, content []byte) (*sitter.Tree, error)
}

// Service keeps the current snapshot of one document and notifies
// subscribers whenever a new one has been parsed.
type Service struct {
	lang   *lang.Language
	path   string
	logger *slog.Logger

	mu      sync.Mutex // serializes parses; the parser is not thread-safe
	parser  *sitter.Parser
	version int64

	current atomic.Pointer[Snapshot]

	subMu  sync.Mutex
	subs   map[int]func(*Snapshot)
	nextID int
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService creates a service for the document at path.
func NewService(l *lang.Language, path string, opts ...Option) *Service {
	s := &Service{
		lang:   l,
		path:   path,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		parser: l.NewParser(),
		subs:   make(map[int]func(*Snapshot)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Language returns the document language.
func (s *Service) Language() *lang.Language {
	return s.lang
}

// Update parses source, makes it the current snapshot and notifies
// subscribers. Subscribers are called synchronously and must not block.
func (s *Service) Update(ctx context.Context, source []byte) (*Snapshot, error) {
	s.mu.Lock()
	if s.parser == nil {
		s.mu.Unlock()
		return nil, ErrClosed
	}
	s.version++
	snap, err := parseWith(ctx, s.parser, s.lang, s.path, s.version, source)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.current.Store(snap)
	s.mu.Unlock()

	s.logger.Debug("analysis: snapshot updated",
		slog.String("path", s.path),
		slog.Int64("version", snap.Version),
		slog.Int("bytes", snap.Len()))

	s.subMu.Lock()
	subs := make([]func(*Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.subMu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
	return snap, nil
}

// Current returns the latest snapshot, or nil before the first update.
func (s *Service) Current() *Snapshot {
	return s.current.Load()
}

// Subscribe registers fn for snapshot updates and returns a function that
// removes it.
func (s *Service) Subscribe(fn func(*Snapshot)) func() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

// Close releases the parser.
func (s *Service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.parser != nil {
		s.parser.Close()
		s.parser = nil
	}
}
