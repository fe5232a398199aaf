// Package vectorstore persists and queries the two embedded collections
// behind course retrieval: a catalog collection with one record per course
// (for fuzzy course-name resolution) and a content collection with every
// chunk (for lesson-scoped semantic search). Both collections share a single
// embedding function; mixing embedding spaces is an integrity violation.
package vectorstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"sync"

	chromem "github.com/philippgille/chromem-go"

	"github.com/koopa0/coursechat/internal/course"
	"github.com/koopa0/coursechat/internal/log"
)

// Collection names within the chromem database.
const (
	catalogCollection = "course_catalog"
	contentCollection = "course_content"
)

// Metadata keys on content collection documents.
const (
	metaCourse     = "course"
	metaLesson     = "lesson"
	metaChunkIndex = "chunk_index"
)

// Config holds Store construction parameters.
type Config struct {
	// Path is the chromem persistence directory. Empty means in-memory.
	Path string

	// Embedding is the shared embedding function for both collections.
	Embedding chromem.EmbeddingFunc

	// ResolutionThreshold is the maximum cosine distance at which a fuzzy
	// course-name query is accepted as matching a catalog entry.
	ResolutionThreshold float32

	// MaxResults is the default search result limit.
	MaxResults int

	// Logger is required.
	Logger log.Logger
}

// Store is the dual vector index. It is safe for concurrent readers;
// ingestion writes should complete before queries start (ingestion is a
// startup-time phase, guarded here by the catalog mutex for correctness).
type Store struct {
	db      *chromem.DB
	catalog *chromem.Collection
	content *chromem.Collection
	embed   chromem.EmbeddingFunc

	threshold  float32
	maxResults int
	logger     log.Logger

	mu      sync.RWMutex
	courses map[string]course.Course // catalog metadata by title
}

// New creates a Store, opening (or creating) both collections.
func New(cfg Config) (*Store, error) {
	if cfg.Embedding == nil {
		return nil, fmt.Errorf("embedding function is required")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = 5
	}

	var db *chromem.DB
	var err error
	if cfg.Path == "" {
		db = chromem.NewDB()
	} else {
		db, err = chromem.NewPersistentDB(cfg.Path, false)
		if err != nil {
			return nil, fmt.Errorf("opening vector database: %w", err)
		}
	}

	s := &Store{
		db:         db,
		embed:      cfg.Embedding,
		threshold:  cfg.ResolutionThreshold,
		maxResults: cfg.MaxResults,
		logger:     cfg.Logger,
		courses:    make(map[string]course.Course),
	}
	if err := s.openCollections(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) openCollections() error {
	var err error
	s.catalog, err = s.db.GetOrCreateCollection(catalogCollection, nil, s.embed)
	if err != nil {
		return fmt.Errorf("opening catalog collection: %w", err)
	}
	s.content, err = s.db.GetOrCreateCollection(contentCollection, nil, s.embed)
	if err != nil {
		return fmt.Errorf("opening content collection: %w", err)
	}
	return nil
}

// AddCourse upserts the catalog entry for a course. Without overwrite, a
// title already present returns ErrDuplicateCourse so callers can treat
// re-ingestion as a no-op. The catalog document embeds the title, instructor
// and lesson titles so fuzzy name queries land near partial matches.
func (s *Store) AddCourse(ctx context.Context, c *course.Course, overwrite bool) error {
	if c == nil || c.Title == "" {
		return fmt.Errorf("course title is required")
	}

	s.mu.Lock()
	if _, exists := s.courses[c.Title]; exists && !overwrite {
		s.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrDuplicateCourse, c.Title)
	}
	s.mu.Unlock()

	lessonsJSON, err := json.Marshal(c.Lessons)
	if err != nil {
		return fmt.Errorf("serializing lessons for %q: %w", c.Title, err)
	}

	doc := chromem.Document{
		ID:      c.Title,
		Content: catalogText(c),
		Metadata: map[string]string{
			"title":        c.Title,
			"link":         c.Link,
			"instructor":   c.Instructor,
			"lesson_count": strconv.Itoa(len(c.Lessons)),
			"lessons":      string(lessonsJSON),
		},
	}
	if err := s.catalog.AddDocument(ctx, doc); err != nil {
		return fmt.Errorf("%w: indexing catalog entry %q: %v", ErrEmbedding, c.Title, err)
	}

	s.mu.Lock()
	s.courses[c.Title] = *c
	s.mu.Unlock()

	s.logger.Debug("catalog entry added", "course", c.Title, "lessons", len(c.Lessons))
	return nil
}

// catalogText builds the embedded summary for a catalog entry.
func catalogText(c *course.Course) string {
	text := c.Title
	if c.Instructor != "" {
		text += " taught by " + c.Instructor
	}
	for _, l := range c.Lessons {
		text += fmt.Sprintf("\nLesson %d: %s", l.Number, l.Title)
	}
	return text
}

// AddChunks appends chunk embeddings to the content collection. Chunk IDs
// derive from course title and chunk index, so re-adding the same chunks
// overwrites in place rather than duplicating.
func (s *Store) AddChunks(ctx context.Context, chunks []course.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	docs := make([]chromem.Document, 0, len(chunks))
	for _, ch := range chunks {
		metadata := map[string]string{
			metaCourse:     ch.CourseTitle,
			metaChunkIndex: strconv.Itoa(ch.Index),
		}
		if ch.LessonNumber != nil {
			metadata[metaLesson] = strconv.Itoa(*ch.LessonNumber)
		}
		docs = append(docs, chromem.Document{
			ID:       fmt.Sprintf("%s:%d", ch.CourseTitle, ch.Index),
			Content:  ch.Content,
			Metadata: metadata,
		})
	}

	if err := s.content.AddDocuments(ctx, docs, 1); err != nil {
		return fmt.Errorf("%w: indexing %d chunks: %v", ErrEmbedding, len(docs), err)
	}

	s.logger.Debug("chunks indexed", "count", len(docs), "course", chunks[0].CourseTitle)
	return nil
}

// IndexCourse adds a course and its chunks as one logical write, enforcing
// the invariant that the catalog and content collections mutate together:
// a course with zero chunks is rejected before either collection changes.
func (s *Store) IndexCourse(ctx context.Context, c *course.Course, chunks []course.Chunk, overwrite bool) error {
	if len(chunks) == 0 {
		return fmt.Errorf("%w: %q", ErrNoChunks, c.Title)
	}
	if err := s.AddCourse(ctx, c, overwrite); err != nil {
		return err
	}
	return s.AddChunks(ctx, chunks)
}

// ResolveCourseName resolves a fuzzy course-name query to an exact catalog
// title. ok is false when no entry falls within the resolution threshold;
// that is a normal miss, not an error. Candidates are ordered by ascending
// distance with ties broken by lexicographic title, so resolution is
// deterministic even for equal-distance entries.
func (s *Store) ResolveCourseName(ctx context.Context, name string) (title string, ok bool, err error) {
	n := s.catalog.Count()
	if n == 0 {
		return "", false, nil
	}
	if n > 10 {
		n = 10
	}

	results, err := s.catalog.Query(ctx, name, n, nil, nil)
	if err != nil {
		return "", false, fmt.Errorf("%w: resolving %q: %v", ErrEmbedding, name, err)
	}
	if len(results) == 0 {
		return "", false, nil
	}

	type candidate struct {
		title    string
		distance float32
	}
	candidates := make([]candidate, 0, len(results))
	for _, r := range results {
		d := 1 - r.Similarity
		if d <= s.threshold {
			candidates = append(candidates, candidate{title: r.Metadata["title"], distance: d})
		}
	}
	if len(candidates) == 0 {
		s.logger.Debug("course name resolution miss", "query", name)
		return "", false, nil
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].distance != candidates[j].distance {
			return candidates[i].distance < candidates[j].distance
		}
		return candidates[i].title < candidates[j].title
	})

	s.logger.Debug("course name resolved",
		"query", name, "title", candidates[0].title, "distance", candidates[0].distance)
	return candidates[0].title, true, nil
}

// Search performs semantic search over the content collection. Results come
// back ordered by ascending distance, at most limit entries. An empty
// collection or filters matching no chunks yield an empty slice, not an
// error.
//
// chromem ranks the full collection either way, and its where-filtering
// errors when the requested result count exceeds the filtered count, which
// is unknowable up front. Filters are therefore applied to the ranked
// results here; a closer chunk from another course or lesson can never
// displace a filtered match.
func (s *Store) Search(ctx context.Context, query string, opts ...SearchOption) ([]SearchResult, error) {
	cfg := &searchConfig{limit: s.maxResults}
	for _, opt := range opts {
		opt(cfg)
	}

	total := s.content.Count()
	if total == 0 {
		return nil, nil
	}

	ranked, err := s.content.Query(ctx, query, total, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: searching %q: %v", ErrEmbedding, query, err)
	}

	results := make([]SearchResult, 0, cfg.limit)
	for _, r := range ranked {
		if cfg.course != "" && r.Metadata[metaCourse] != cfg.course {
			continue
		}
		if cfg.lesson != nil {
			n, convErr := strconv.Atoi(r.Metadata[metaLesson])
			if convErr != nil || n != *cfg.lesson {
				continue
			}
		}

		res := SearchResult{
			Content:     r.Content,
			CourseTitle: r.Metadata[metaCourse],
			Distance:    1 - r.Similarity,
		}
		if raw, found := r.Metadata[metaLesson]; found {
			if n, convErr := strconv.Atoi(raw); convErr == nil {
				res.LessonNumber = &n
			}
		}
		results = append(results, res)
		if len(results) >= cfg.limit {
			break
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Distance < results[j].Distance
	})
	return results, nil
}

// Outline returns the catalog metadata for an exact course title.
func (s *Store) Outline(title string) (*course.Course, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, found := s.courses[title]
	if !found {
		return nil, false
	}
	out := c
	out.Lessons = append([]course.Lesson(nil), c.Lessons...)
	return &out, true
}

// LessonLink returns the link of a specific lesson, if recorded.
func (s *Store) LessonLink(title string, lesson int) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, found := s.courses[title]
	if !found {
		return ""
	}
	for _, l := range c.Lessons {
		if l.Number == lesson {
			return l.Link
		}
	}
	return ""
}

// ListCourseTitles returns all catalog titles in sorted order.
func (s *Store) ListCourseTitles() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	titles := make([]string, 0, len(s.courses))
	for title := range s.courses {
		titles = append(titles, title)
	}
	sort.Strings(titles)
	return titles
}

// CourseCount returns the number of catalog entries.
func (s *Store) CourseCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.courses)
}

// ChunkCount returns the number of documents in the content collection.
func (s *Store) ChunkCount() int {
	return s.content.Count()
}

// Reset drops both collections and recreates them empty, supporting full
// re-ingestion.
func (s *Store) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.db.DeleteCollection(catalogCollection); err != nil {
		return fmt.Errorf("dropping catalog: %w", err)
	}
	if err := s.db.DeleteCollection(contentCollection); err != nil {
		return fmt.Errorf("dropping content: %w", err)
	}
	s.courses = make(map[string]course.Course)
	return s.openCollections()
}
