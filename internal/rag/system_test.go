package rag

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	chromem "github.com/philippgille/chromem-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koopa0/coursechat/internal/course"
	"github.com/koopa0/coursechat/internal/generator"
	"github.com/koopa0/coursechat/internal/log"
	"github.com/koopa0/coursechat/internal/session"
	"github.com/koopa0/coursechat/internal/tools"
	"github.com/koopa0/coursechat/internal/vectorstore"
)

const widgetsScript = `Course Title: Intro to Widgets
Course Link: https://example.com/widgets
Course Instructor: Ada

Lesson 1: Widget Basics
Lesson Link: https://example.com/widgets/1
Widgets are small mechanical devices. Every widget has a core.

Lesson 2: Spindle Work
Lesson Link: https://example.com/widgets/2
The spindle spins when widgets are wound. Spindle care matters.
`

// stubEmbedding is a deterministic bag-of-words embedder, enough for fuzzy
// name resolution and ranking to behave sensibly in tests.
func stubEmbedding() chromem.EmbeddingFunc {
	vocab := []string{"widgets", "spindle", "core", "basics", "quantum"}
	return func(_ context.Context, text string) ([]float32, error) {
		lower := strings.ToLower(text)
		vec := make([]float32, len(vocab)+1)
		for i, word := range vocab {
			vec[i] = float32(strings.Count(lower, word))
		}
		vec[len(vocab)] = 0.1
		return vec, nil
	}
}

// scriptedClient replays canned responses and records every request.
type scriptedClient struct {
	responses []*generator.Response
	err       error

	requests []*generator.Request
}

func (c *scriptedClient) Generate(_ context.Context, req *generator.Request) (*generator.Response, error) {
	c.requests = append(c.requests, req)
	if c.err != nil {
		return nil, c.err
	}
	if len(c.responses) == 0 {
		return nil, errors.New("scripted client exhausted")
	}
	resp := c.responses[0]
	c.responses = c.responses[1:]
	return resp, nil
}

func newTestSystem(t *testing.T, client generator.Client) *System {
	t.Helper()
	logger := log.NopLogger()

	store, err := vectorstore.New(vectorstore.Config{
		Embedding:           stubEmbedding(),
		ResolutionThreshold: 0.6,
		MaxResults:          5,
		Logger:              logger,
	})
	require.NoError(t, err)

	gen, err := generator.New(generator.Config{Client: client, Logger: logger, MaxRounds: 2})
	require.NoError(t, err)

	splitter, err := course.NewSplitter(200, 20, 10)
	require.NoError(t, err)

	system, err := New(Config{
		Store:     store,
		Generator: gen,
		Sessions:  session.NewStore(2, logger),
		Splitter:  splitter,
		Logger:    logger,
	})
	require.NoError(t, err)
	return system
}

func writeScript(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestQuery(t *testing.T) {
	ctx := context.Background()

	t.Run("tool-assisted answer with sources", func(t *testing.T) {
		client := &scriptedClient{responses: []*generator.Response{
			{ToolCalls: []generator.ToolCall{{
				Name: tools.SearchCourseContentName,
				Args: map[string]any{"query": "spindle care", "course_name": "widgets", "lesson_number": float64(2)},
			}}},
			{Text: "Lesson 2 covers winding widgets and caring for the spindle."},
		}}
		system := newTestSystem(t, client)

		path := writeScript(t, t.TempDir(), "widgets.txt", widgetsScript)
		_, _, err := system.AddCourseDocument(ctx, path, false)
		require.NoError(t, err)

		answer, err := system.Query(ctx, "What does lesson 2 of the widgets course cover?", "")
		require.NoError(t, err)

		assert.Equal(t, "Lesson 2 covers winding widgets and caring for the spindle.", answer.Text)
		assert.NotEmpty(t, answer.SessionID)

		require.NotEmpty(t, answer.Sources)
		assert.Equal(t, "Intro to Widgets - Lesson 2", answer.Sources[0].Label)
		assert.Equal(t, "https://example.com/widgets/2", answer.Sources[0].Link)

		// The tool result reached the model as a conversation turn.
		require.Len(t, client.requests, 2)
		results := client.requests[1].Messages[2].ToolResults
		require.Len(t, results, 1)
		assert.Contains(t, results[0].Content, "[Intro to Widgets - Lesson 2]")
	})

	t.Run("unmatched course name yields sourceless answer", func(t *testing.T) {
		client := &scriptedClient{responses: []*generator.Response{
			{ToolCalls: []generator.ToolCall{{
				Name: tools.SearchCourseContentName,
				Args: map[string]any{"query": "knitting", "course_name": "Quantum Knitting"},
			}}},
			{Text: "I don't have a course matching Quantum Knitting."},
		}}
		system := newTestSystem(t, client)

		path := writeScript(t, t.TempDir(), "widgets.txt", widgetsScript)
		_, _, err := system.AddCourseDocument(ctx, path, false)
		require.NoError(t, err)

		answer, err := system.Query(ctx, "What does Quantum Knitting teach?", "")
		require.NoError(t, err)

		assert.Empty(t, answer.Sources)
		require.Len(t, client.requests, 2)
		results := client.requests[1].Messages[2].ToolResults
		require.Len(t, results, 1)
		assert.Equal(t, "No course found matching 'Quantum Knitting'", results[0].Content)
	})

	t.Run("follow-up carries prior exchange as history", func(t *testing.T) {
		client := &scriptedClient{responses: []*generator.Response{
			{Text: "Widgets are small mechanical devices."},
			{Text: "They are wound by hand."},
		}}
		system := newTestSystem(t, client)

		first, err := system.Query(ctx, "What is a widget?", "")
		require.NoError(t, err)

		second, err := system.Query(ctx, "How are they wound?", first.SessionID)
		require.NoError(t, err)
		assert.Equal(t, first.SessionID, second.SessionID)

		followUp := client.requests[1].System
		assert.Contains(t, followUp, "Previous conversation:")
		assert.Contains(t, followUp, "User: What is a widget?\nAssistant: Widgets are small mechanical devices.")
	})

	t.Run("failed generation leaves the session untouched", func(t *testing.T) {
		client := &scriptedClient{err: errors.New("api unavailable")}
		system := newTestSystem(t, client)

		_, err := system.Query(ctx, "anything", "s1")
		require.ErrorIs(t, err, generator.ErrGeneration)

		// A retry after the failure sees no history from the failed attempt.
		client.err = nil
		client.responses = []*generator.Response{{Text: "ok"}}
		_, err = system.Query(ctx, "retry", "s1")
		require.NoError(t, err)
		assert.NotContains(t, client.requests[len(client.requests)-1].System, "Previous conversation:")
	})
}

func TestAddCourseDocument(t *testing.T) {
	ctx := context.Background()

	t.Run("parses chunks and indexes", func(t *testing.T) {
		system := newTestSystem(t, &scriptedClient{})
		path := writeScript(t, t.TempDir(), "widgets.txt", widgetsScript)

		c, chunks, err := system.AddCourseDocument(ctx, path, false)
		require.NoError(t, err)
		assert.Equal(t, "Intro to Widgets", c.Title)
		assert.Positive(t, chunks)

		count, titles := system.Analytics()
		assert.Equal(t, 1, count)
		assert.Equal(t, []string{"Intro to Widgets"}, titles)
	})

	t.Run("duplicate course rejected", func(t *testing.T) {
		system := newTestSystem(t, &scriptedClient{})
		path := writeScript(t, t.TempDir(), "widgets.txt", widgetsScript)

		_, _, err := system.AddCourseDocument(ctx, path, false)
		require.NoError(t, err)
		_, _, err = system.AddCourseDocument(ctx, path, false)
		assert.ErrorIs(t, err, vectorstore.ErrDuplicateCourse)
	})

	t.Run("missing file", func(t *testing.T) {
		system := newTestSystem(t, &scriptedClient{})
		_, _, err := system.AddCourseDocument(ctx, filepath.Join(t.TempDir(), "nope.txt"), false)
		assert.Error(t, err)
	})
}

func TestAddCourseFolder(t *testing.T) {
	ctx := context.Background()

	seedFolder := func(t *testing.T) string {
		dir := t.TempDir()
		writeScript(t, dir, "widgets.txt", widgetsScript)
		writeScript(t, dir, "spindles.txt", strings.Replace(widgetsScript, "Intro to Widgets", "Spindle Mastery", 1))
		writeScript(t, dir, "untitled.txt", "Lesson 1: Orphan\nText without a course header.\n")
		writeScript(t, dir, "notes.md", "not a course script")
		return dir
	}

	t.Run("ingests txt scripts and skips malformed ones", func(t *testing.T) {
		system := newTestSystem(t, &scriptedClient{})
		dir := seedFolder(t)

		courses, chunks, err := system.AddCourseFolder(ctx, dir, false)
		require.NoError(t, err)
		assert.Equal(t, 2, courses)
		assert.Positive(t, chunks)

		count, titles := system.Analytics()
		assert.Equal(t, 2, count)
		assert.Equal(t, []string{"Intro to Widgets", "Spindle Mastery"}, titles)
	})

	t.Run("re-running is a no-op", func(t *testing.T) {
		system := newTestSystem(t, &scriptedClient{})
		dir := seedFolder(t)

		_, _, err := system.AddCourseFolder(ctx, dir, false)
		require.NoError(t, err)

		courses, chunks, err := system.AddCourseFolder(ctx, dir, false)
		require.NoError(t, err)
		assert.Zero(t, courses)
		assert.Zero(t, chunks)
	})

	t.Run("clear drops existing data first", func(t *testing.T) {
		system := newTestSystem(t, &scriptedClient{})
		dir := seedFolder(t)

		_, _, err := system.AddCourseFolder(ctx, dir, false)
		require.NoError(t, err)

		courses, _, err := system.AddCourseFolder(ctx, dir, true)
		require.NoError(t, err)
		assert.Equal(t, 2, courses)

		count, _ := system.Analytics()
		assert.Equal(t, 2, count)
	})

	t.Run("missing folder", func(t *testing.T) {
		system := newTestSystem(t, &scriptedClient{})
		_, _, err := system.AddCourseFolder(ctx, filepath.Join(t.TempDir(), "nope"), false)
		assert.Error(t, err)
	})
}
