package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/koopa0/coursechat/internal/log"
)

// GetCourseOutlineName is the registered name of the outline tool.
const GetCourseOutlineName = "get_course_outline"

// CourseOutline returns a course's structure (title, link and full lesson
// list) from the catalog only, without touching course content.
type CourseOutline struct {
	store  Searcher
	logger log.Logger
}

// NewCourseOutline creates the outline tool.
func NewCourseOutline(store Searcher, logger log.Logger) *CourseOutline {
	return &CourseOutline{store: store, logger: logger}
}

// Definition implements Tool.
func (t *CourseOutline) Definition() Definition {
	return Definition{
		Name: GetCourseOutlineName,
		Description: "Get the outline of a course: its title, link and complete lesson list. " +
			"Use this for questions about a course's structure, lesson count or lesson titles. " +
			"Do not use it for questions about lesson content.",
		Schema: Schema{
			Type: "object",
			Properties: map[string]Property{
				"course_name": {
					Type:        "string",
					Description: "Course title (partial matches work)",
				},
			},
			Required: []string{"course_name"},
		},
	}
}

// Execute implements Tool.
func (t *CourseOutline) Execute(ctx context.Context, args map[string]any) (string, error) {
	courseName := stringArg(args, "course_name")
	if courseName == "" {
		return "Missing required parameter: course_name", nil
	}

	title, ok, err := t.store.ResolveCourseName(ctx, courseName)
	if err != nil {
		return "", fmt.Errorf("resolving course name: %w", err)
	}
	if !ok {
		return fmt.Sprintf("No course found matching '%s'", courseName), nil
	}

	c, found := t.store.Outline(title)
	if !found {
		// Catalog metadata and the catalog collection mutate together, so
		// a resolved title without metadata means the store is corrupted.
		return "", fmt.Errorf("catalog entry %q has no outline metadata", title)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Course: %s\n", c.Title)
	if c.Link != "" {
		fmt.Fprintf(&b, "Course Link: %s\n", c.Link)
	}
	if c.Instructor != "" {
		fmt.Fprintf(&b, "Instructor: %s\n", c.Instructor)
	}
	fmt.Fprintf(&b, "Lessons (%d):", len(c.Lessons))
	for _, l := range c.Lessons {
		fmt.Fprintf(&b, "\n  Lesson %d: %s", l.Number, l.Title)
	}

	t.logger.Debug("course outline served", "course", c.Title, "lessons", len(c.Lessons))
	return b.String(), nil
}
