// Package rag wires the retrieval components into one conversational
// system: document ingestion on one side, query answering with source
// attribution on the other.
package rag

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/koopa0/coursechat/internal/course"
	"github.com/koopa0/coursechat/internal/generator"
	"github.com/koopa0/coursechat/internal/log"
	"github.com/koopa0/coursechat/internal/session"
	"github.com/koopa0/coursechat/internal/tools"
	"github.com/koopa0/coursechat/internal/vectorstore"
)

// Answer is the result of one query: the assistant's text, the sources the
// search tool consulted for it, and the session the exchange was recorded
// under.
type Answer struct {
	Text      string
	Sources   []tools.Source
	SessionID string
}

// Config holds System construction parameters.
type Config struct {
	Store     *vectorstore.Store
	Generator *generator.Generator
	Sessions  *session.Store
	Splitter  *course.Splitter
	Logger    log.Logger
}

// System is the top-level facade. It owns the tool registry and coordinates
// ingestion, generation and session bookkeeping.
type System struct {
	store     *vectorstore.Store
	generator *generator.Generator
	sessions  *session.Store
	splitter  *course.Splitter
	registry  *tools.Registry
	logger    log.Logger
}

// New creates a System and registers the course tools.
func New(cfg Config) (*System, error) {
	if cfg.Store == nil {
		return nil, errors.New("store is required")
	}
	if cfg.Generator == nil {
		return nil, errors.New("generator is required")
	}
	if cfg.Sessions == nil {
		return nil, errors.New("session store is required")
	}
	if cfg.Splitter == nil {
		return nil, errors.New("splitter is required")
	}
	if cfg.Logger == nil {
		return nil, errors.New("logger is required")
	}

	registry := tools.NewRegistry()
	if err := registry.Register(tools.NewCourseSearch(cfg.Store, cfg.Logger)); err != nil {
		return nil, fmt.Errorf("registering search tool: %w", err)
	}
	if err := registry.Register(tools.NewCourseOutline(cfg.Store, cfg.Logger)); err != nil {
		return nil, fmt.Errorf("registering outline tool: %w", err)
	}

	return &System{
		store:     cfg.Store,
		generator: cfg.Generator,
		sessions:  cfg.Sessions,
		splitter:  cfg.Splitter,
		registry:  registry,
		logger:    cfg.Logger,
	}, nil
}

// Query answers one user question. An empty sessionID starts a fresh
// session; the returned Answer carries the id to use for follow-ups. The
// exchange is recorded only after generation succeeds, so a failed query
// leaves the session window untouched.
func (s *System) Query(ctx context.Context, query, sessionID string) (*Answer, error) {
	sessionID = s.sessions.GetOrCreate(sessionID)
	history := s.sessions.History(sessionID)

	s.registry.ResetSources()
	text, err := s.generator.Generate(ctx, query, history, s.registry)
	if err != nil {
		return nil, err
	}
	sources := s.registry.LastSources()

	s.sessions.Append(sessionID, query, text)
	s.logger.Info("query answered", "session_id", sessionID, "sources", len(sources))

	return &Answer{Text: text, Sources: sources, SessionID: sessionID}, nil
}

// AddCourseDocument parses, chunks and indexes a single course script.
func (s *System) AddCourseDocument(ctx context.Context, path string, overwrite bool) (*course.Course, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("opening course script: %w", err)
	}
	defer f.Close()

	c, segments, err := course.ParseScript(f, filepath.Base(path))
	if err != nil {
		return nil, 0, err
	}

	chunks := s.splitter.ChunkCourse(c, segments)
	if err := s.store.IndexCourse(ctx, c, chunks, overwrite); err != nil {
		return nil, 0, err
	}

	s.logger.Info("course indexed", "course", c.Title, "chunks", len(chunks))
	return c, len(chunks), nil
}

// AddCourseFolder ingests every .txt script in dir, in sorted name order.
// Courses already present are skipped, so re-running ingestion over the same
// folder is a no-op; malformed scripts are logged and skipped rather than
// aborting the batch. With clearExisting set, both collections are dropped
// first and everything is re-indexed.
func (s *System) AddCourseFolder(ctx context.Context, dir string, clearExisting bool) (courses, chunks int, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, 0, fmt.Errorf("reading course folder: %w", err)
	}

	if clearExisting {
		if err := s.store.Reset(); err != nil {
			return 0, 0, fmt.Errorf("clearing existing data: %w", err)
		}
		s.logger.Info("existing course data cleared")
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(strings.ToLower(e.Name()), ".txt") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		c, n, err := s.AddCourseDocument(ctx, filepath.Join(dir, name), false)
		switch {
		case errors.Is(err, vectorstore.ErrDuplicateCourse):
			s.logger.Debug("course already indexed, skipping", "file", name)
		case errors.Is(err, course.ErrNoTitle):
			s.logger.Warn("skipping malformed course script", "file", name, "error", err)
		case err != nil:
			return courses, chunks, fmt.Errorf("ingesting %s: %w", name, err)
		default:
			courses++
			chunks += n
			s.logger.Debug("course ingested", "file", name, "course", c.Title, "chunks", n)
		}
	}

	return courses, chunks, nil
}

// Analytics reports the current catalog size and titles.
func (s *System) Analytics() (count int, titles []string) {
	return s.store.CourseCount(), s.store.ListCourseTitles()
}
