package vectorstore

import "errors"

var (
	// ErrDuplicateCourse indicates an AddCourse call for a title that is
	// already in the catalog, without overwrite requested. Folder ingestion
	// treats this as "already present, skip" rather than a failure.
	ErrDuplicateCourse = errors.New("course already exists")

	// ErrEmbedding indicates the embedding backend failed. It is fatal for
	// the operation in progress and is never retried here; retry policy
	// belongs to the caller.
	ErrEmbedding = errors.New("embedding failed")

	// ErrNoChunks indicates an attempt to index a course with zero chunks.
	// The catalog and content collections always mutate together, so an
	// empty course never gets a catalog entry.
	ErrNoChunks = errors.New("course has no chunks")
)

// SearchResult is a single content match. Distance is cosine distance
// (1 - similarity): smaller is more relevant. LessonNumber is nil for
// chunks that precede any lesson marker.
type SearchResult struct {
	Content      string
	CourseTitle  string
	LessonNumber *int
	Distance     float32
}

// SearchOption configures Search using the functional options pattern.
type SearchOption func(*searchConfig)

type searchConfig struct {
	course string
	lesson *int
	limit  int
}

// WithCourse restricts results to chunks of the given course title.
// The title must be exact; use ResolveCourseName for fuzzy input.
func WithCourse(title string) SearchOption {
	return func(c *searchConfig) {
		c.course = title
	}
}

// WithLesson restricts results to chunks of the given lesson number.
// Lesson numbers are only unique within a course, so a lesson filter
// without a course filter is accepted but matches across courses.
func WithLesson(n int) SearchOption {
	return func(c *searchConfig) {
		lesson := n
		c.lesson = &lesson
	}
}

// WithLimit overrides the store's default result limit.
func WithLimit(k int) SearchOption {
	return func(c *searchConfig) {
		if k > 0 {
			c.limit = k
		}
	}
}
