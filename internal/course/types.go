// Package course defines the course data model and turns raw course scripts
// into structured, chunked content ready for vector indexing.
package course

// Lesson is a single lesson within a course. Numbers are unique within
// their course only, and commonly start at 0.
type Lesson struct {
	Number int    // sequential lesson number
	Title  string // lesson title
	Link   string // optional URL to the lesson
}

// Course is a complete course. The title is the unique, case-sensitive
// identity; everything else is metadata.
type Course struct {
	Title      string
	Link       string // optional URL to the course page
	Instructor string // optional instructor name
	Lessons    []Lesson
}

// Chunk is a bounded span of course text, the unit of vector retrieval.
// LessonNumber is nil for content that precedes any lesson marker.
type Chunk struct {
	Content      string
	CourseTitle  string
	LessonNumber *int
	Index        int // sequential position within the course
}

// Segment is a contiguous run of document text owned by at most one lesson.
// The parser emits segments in document order; Lesson is nil for preamble
// text before the first lesson marker.
type Segment struct {
	Lesson *int
	Text   string
}
