package tools

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/koopa0/coursechat/internal/course"
	"github.com/koopa0/coursechat/internal/log"
	"github.com/koopa0/coursechat/internal/vectorstore"
)

// SearchCourseContentName is the registered name of the content search tool.
const SearchCourseContentName = "search_course_content"

// Searcher is the retrieval surface the course tools need. It is satisfied
// by *vectorstore.Store; tests supply fakes.
type Searcher interface {
	ResolveCourseName(ctx context.Context, name string) (title string, ok bool, err error)
	Search(ctx context.Context, query string, opts ...vectorstore.SearchOption) ([]vectorstore.SearchResult, error)
	Outline(title string) (*course.Course, bool)
	LessonLink(title string, lesson int) string
}

// CourseSearch searches course content with smart course-name matching and
// optional lesson filtering. It retains the sources of its most recent
// result set until ResetSources is called.
type CourseSearch struct {
	store  Searcher
	logger log.Logger

	mu      sync.Mutex
	sources []Source
}

// NewCourseSearch creates the content search tool.
func NewCourseSearch(store Searcher, logger log.Logger) *CourseSearch {
	return &CourseSearch{store: store, logger: logger}
}

// Definition implements Tool.
func (t *CourseSearch) Definition() Definition {
	return Definition{
		Name: SearchCourseContentName,
		Description: "Search course materials with smart course name matching and lesson filtering. " +
			"Finds course content that is semantically related to the query. " +
			"Returns: matched content excerpts labeled with their course and lesson. " +
			"Use this for questions about specific course content or detailed educational materials.",
		Schema: Schema{
			Type: "object",
			Properties: map[string]Property{
				"query": {
					Type:        "string",
					Description: "What to search for in course content",
				},
				"course_name": {
					Type:        "string",
					Description: "Course title (partial matches work, e.g. 'MCP', 'Introduction')",
				},
				"lesson_number": {
					Type:        "integer",
					Description: "Specific lesson number to search within (e.g. 1, 2, 3)",
				},
			},
			Required: []string{"query"},
		},
	}
}

// Execute implements Tool. A course name that resolves to nothing produces
// an explicit "no matching course" message rather than a silently
// unfiltered search; empty results produce a "no relevant content" message
// describing the filters that were applied. Store failures (embedding
// backend unavailable) are returned as errors and abort the query.
func (t *CourseSearch) Execute(ctx context.Context, args map[string]any) (string, error) {
	query := stringArg(args, "query")
	if query == "" {
		return "Missing required parameter: query", nil
	}
	courseName := stringArg(args, "course_name")
	lesson, hasLesson := intArg(args, "lesson_number")

	t.logger.Debug("course search", "query", query, "course_name", courseName, "has_lesson", hasLesson)

	opts := []vectorstore.SearchOption{}
	courseTitle := ""
	if courseName != "" {
		title, ok, err := t.store.ResolveCourseName(ctx, courseName)
		if err != nil {
			return "", fmt.Errorf("resolving course name: %w", err)
		}
		if !ok {
			return fmt.Sprintf("No course found matching '%s'", courseName), nil
		}
		courseTitle = title
		opts = append(opts, vectorstore.WithCourse(title))
	}
	if hasLesson {
		opts = append(opts, vectorstore.WithLesson(lesson))
	}

	results, err := t.store.Search(ctx, query, opts...)
	if err != nil {
		return "", fmt.Errorf("searching content: %w", err)
	}
	if len(results) == 0 {
		return emptyMessage(courseTitle, lesson, hasLesson), nil
	}

	return t.format(results), nil
}

// emptyMessage describes an empty result set together with the filters that
// were in effect, so the model can explain the miss to the user.
func emptyMessage(courseTitle string, lesson int, hasLesson bool) string {
	msg := "No relevant content found"
	if courseTitle != "" {
		msg += fmt.Sprintf(" in course '%s'", courseTitle)
	}
	if hasLesson {
		msg += fmt.Sprintf(" in lesson %d", lesson)
	}
	return msg + "."
}

// format renders results as labeled citations and retains their sources.
func (t *CourseSearch) format(results []vectorstore.SearchResult) string {
	blocks := make([]string, 0, len(results))
	sources := make([]Source, 0, len(results))

	for _, r := range results {
		label := r.CourseTitle
		link := ""
		if r.LessonNumber != nil {
			label = fmt.Sprintf("%s - Lesson %d", r.CourseTitle, *r.LessonNumber)
			link = t.store.LessonLink(r.CourseTitle, *r.LessonNumber)
		}
		blocks = append(blocks, fmt.Sprintf("[%s]\n%s", label, r.Content))
		sources = append(sources, Source{
			Label:  label,
			Course: r.CourseTitle,
			Lesson: r.LessonNumber,
			Link:   link,
		})
	}

	t.mu.Lock()
	t.sources = sources
	t.mu.Unlock()

	return strings.Join(blocks, "\n\n")
}

// LastSources implements SourceTracker.
func (t *CourseSearch) LastSources() []Source {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Source(nil), t.sources...)
}

// ResetSources implements SourceTracker.
func (t *CourseSearch) ResetSources() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sources = nil
}
