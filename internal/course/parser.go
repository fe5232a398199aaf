package course

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

// ErrNoTitle indicates a course script without a "Course Title:" header.
var ErrNoTitle = errors.New("course script has no title")

// lessonMarker matches lesson headers such as "Lesson 0: Introduction".
var lessonMarker = regexp.MustCompile(`^Lesson\s+(\d+):\s*(.*)$`)

// Script header prefixes. Header lines may appear in any order before the
// first lesson marker; unrecognized lines are treated as content.
const (
	titlePrefix      = "Course Title:"
	linkPrefix       = "Course Link:"
	instructorPrefix = "Course Instructor:"
	lessonLinkPrefix = "Lesson Link:"
)

// ParseScript reads a course script and returns the course structure plus
// the ordered text segments to be chunked. name identifies the source in
// error messages (typically the file name).
//
// Expected format:
//
//	Course Title: Intro to Widgets
//	Course Link: https://example.com/widgets
//	Course Instructor: Ada
//
//	Lesson 0: Welcome
//	Lesson Link: https://example.com/widgets/0
//	...lesson text...
//	Lesson 1: Widget Basics
//	...
//
// Text before the first lesson marker becomes a segment with a nil lesson.
func ParseScript(r io.Reader, name string) (*Course, []Segment, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	c := &Course{}
	var segments []Segment
	var current *int       // lesson owning the text being accumulated
	var text []string      // accumulated lines for the current segment
	sawLessonLink := false // "Lesson Link:" directly after a marker belongs to the lesson

	flush := func() {
		body := strings.TrimSpace(strings.Join(text, "\n"))
		text = text[:0]
		if body == "" {
			return
		}
		segments = append(segments, Segment{Lesson: current, Text: body})
	}

	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)

		// Course headers are only honored before any lesson content.
		if current == nil && len(segments) == 0 {
			switch {
			case strings.HasPrefix(trimmed, titlePrefix):
				c.Title = strings.TrimSpace(strings.TrimPrefix(trimmed, titlePrefix))
				continue
			case strings.HasPrefix(trimmed, linkPrefix):
				c.Link = strings.TrimSpace(strings.TrimPrefix(trimmed, linkPrefix))
				continue
			case strings.HasPrefix(trimmed, instructorPrefix):
				c.Instructor = strings.TrimSpace(strings.TrimPrefix(trimmed, instructorPrefix))
				continue
			}
		}

		if m := lessonMarker.FindStringSubmatch(trimmed); m != nil {
			flush()
			n, err := strconv.Atoi(m[1])
			if err != nil {
				return nil, nil, fmt.Errorf("parsing %s: lesson number %q: %w", name, m[1], err)
			}
			num := n
			current = &num
			c.Lessons = append(c.Lessons, Lesson{Number: n, Title: strings.TrimSpace(m[2])})
			sawLessonLink = false
			continue
		}

		// A lesson link line immediately following the marker (before any
		// lesson text) is lesson metadata, not content.
		if current != nil && !sawLessonLink && len(text) == 0 && strings.HasPrefix(trimmed, lessonLinkPrefix) {
			c.Lessons[len(c.Lessons)-1].Link = strings.TrimSpace(strings.TrimPrefix(trimmed, lessonLinkPrefix))
			sawLessonLink = true
			continue
		}

		if trimmed == "" && len(text) == 0 {
			continue // skip leading blank lines in a segment
		}
		text = append(text, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("reading %s: %w", name, err)
	}
	flush()

	if c.Title == "" {
		return nil, nil, fmt.Errorf("parsing %s: %w", name, ErrNoTitle)
	}

	return c, segments, nil
}
