package vectorstore

import (
	"context"
	"strings"
	"testing"

	chromem "github.com/philippgille/chromem-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koopa0/coursechat/internal/course"
	"github.com/koopa0/coursechat/internal/log"
)

// stubVocab fixes the embedding dimensions of the test embedder. Texts that
// share vocabulary words land close together, texts that share none land far
// apart, which is all resolution and search semantics need.
var stubVocab = []string{"widgets", "gadgets", "spindle", "nest", "basics", "quantum"}

// stubEmbedding is a deterministic bag-of-words embedder. The trailing
// constant dimension keeps every vector non-zero.
func stubEmbedding() chromem.EmbeddingFunc {
	return func(_ context.Context, text string) ([]float32, error) {
		lower := strings.ToLower(text)
		vec := make([]float32, len(stubVocab)+1)
		for i, word := range stubVocab {
			vec[i] = float32(strings.Count(lower, word))
		}
		vec[len(stubVocab)] = 0.1
		return vec, nil
	}
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(Config{
		Embedding:           stubEmbedding(),
		ResolutionThreshold: 0.6,
		MaxResults:          5,
		Logger:              log.NopLogger(),
	})
	require.NoError(t, err)
	return s
}

func lessonPtr(n int) *int { return &n }

func widgetsCourse() *course.Course {
	return &course.Course{
		Title:      "Intro to Widgets",
		Link:       "https://example.com/widgets",
		Instructor: "Ada",
		Lessons: []course.Lesson{
			{Number: 1, Title: "Widget Basics", Link: "https://example.com/widgets/1"},
			{Number: 2, Title: "Spindle Work", Link: "https://example.com/widgets/2"},
		},
	}
}

func widgetsChunks() []course.Chunk {
	return []course.Chunk{
		{Content: "Widgets have a spindle at their core.", CourseTitle: "Intro to Widgets", LessonNumber: lessonPtr(1), Index: 0},
		{Content: "The spindle spins when widgets are wound.", CourseTitle: "Intro to Widgets", LessonNumber: lessonPtr(2), Index: 1},
	}
}

func TestNew(t *testing.T) {
	t.Run("requires embedding function", func(t *testing.T) {
		_, err := New(Config{Logger: log.NopLogger()})
		assert.Error(t, err)
	})

	t.Run("requires logger", func(t *testing.T) {
		_, err := New(Config{Embedding: stubEmbedding()})
		assert.Error(t, err)
	})
}

func TestAddCourse(t *testing.T) {
	ctx := context.Background()

	t.Run("duplicate title without overwrite", func(t *testing.T) {
		s := newTestStore(t)
		require.NoError(t, s.AddCourse(ctx, widgetsCourse(), false))

		err := s.AddCourse(ctx, widgetsCourse(), false)
		assert.ErrorIs(t, err, ErrDuplicateCourse)
		assert.Equal(t, 1, s.CourseCount())
	})

	t.Run("overwrite replaces in place", func(t *testing.T) {
		s := newTestStore(t)
		require.NoError(t, s.AddCourse(ctx, widgetsCourse(), false))

		updated := widgetsCourse()
		updated.Instructor = "Grace"
		require.NoError(t, s.AddCourse(ctx, updated, true))

		c, found := s.Outline("Intro to Widgets")
		require.True(t, found)
		assert.Equal(t, "Grace", c.Instructor)
		assert.Equal(t, 1, s.CourseCount())
	})

	t.Run("empty title rejected", func(t *testing.T) {
		s := newTestStore(t)
		assert.Error(t, s.AddCourse(ctx, &course.Course{}, false))
	})
}

func TestIndexCourse(t *testing.T) {
	ctx := context.Background()

	t.Run("rejects course without chunks", func(t *testing.T) {
		s := newTestStore(t)
		err := s.IndexCourse(ctx, widgetsCourse(), nil, false)
		assert.ErrorIs(t, err, ErrNoChunks)
		assert.Equal(t, 0, s.CourseCount())
		assert.Equal(t, 0, s.ChunkCount())
	})

	t.Run("indexes catalog and content together", func(t *testing.T) {
		s := newTestStore(t)
		require.NoError(t, s.IndexCourse(ctx, widgetsCourse(), widgetsChunks(), false))
		assert.Equal(t, 1, s.CourseCount())
		assert.Equal(t, 2, s.ChunkCount())
	})

	t.Run("re-indexing same chunk ids does not duplicate", func(t *testing.T) {
		s := newTestStore(t)
		require.NoError(t, s.IndexCourse(ctx, widgetsCourse(), widgetsChunks(), false))
		require.NoError(t, s.IndexCourse(ctx, widgetsCourse(), widgetsChunks(), true))
		assert.Equal(t, 2, s.ChunkCount())
	})
}

func TestResolveCourseName(t *testing.T) {
	ctx := context.Background()

	t.Run("partial name resolves to exact title", func(t *testing.T) {
		s := newTestStore(t)
		require.NoError(t, s.AddCourse(ctx, widgetsCourse(), false))
		require.NoError(t, s.AddCourse(ctx, &course.Course{Title: "Advanced Gadgets"}, false))

		title, ok, err := s.ResolveCourseName(ctx, "widgets")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "Intro to Widgets", title)
	})

	t.Run("unrelated name misses without error", func(t *testing.T) {
		s := newTestStore(t)
		require.NoError(t, s.AddCourse(ctx, widgetsCourse(), false))

		_, ok, err := s.ResolveCourseName(ctx, "quantum")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("empty catalog misses without error", func(t *testing.T) {
		s := newTestStore(t)
		_, ok, err := s.ResolveCourseName(ctx, "anything")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("equal distances break ties by title", func(t *testing.T) {
		s := newTestStore(t)
		// Identical vocabulary content means identical embeddings.
		require.NoError(t, s.AddCourse(ctx, &course.Course{Title: "Zeta Widgets"}, false))
		require.NoError(t, s.AddCourse(ctx, &course.Course{Title: "Alpha Widgets"}, false))

		title, ok, err := s.ResolveCourseName(ctx, "widgets")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "Alpha Widgets", title)
	})
}

func TestSearch(t *testing.T) {
	ctx := context.Background()

	seed := func(t *testing.T) *Store {
		s := newTestStore(t)
		require.NoError(t, s.IndexCourse(ctx, widgetsCourse(), widgetsChunks(), false))
		require.NoError(t, s.IndexCourse(ctx,
			&course.Course{Title: "Advanced Gadgets", Lessons: []course.Lesson{{Number: 1, Title: "Gadget Nesting"}}},
			[]course.Chunk{
				{Content: "Gadgets nest inside bigger gadgets.", CourseTitle: "Advanced Gadgets", LessonNumber: lessonPtr(1), Index: 0},
			}, false))
		return s
	}

	t.Run("ranks semantically related content first", func(t *testing.T) {
		s := seed(t)
		results, err := s.Search(ctx, "gadgets that nest")
		require.NoError(t, err)
		require.NotEmpty(t, results)
		assert.Equal(t, "Advanced Gadgets", results[0].CourseTitle)
	})

	t.Run("course filter excludes other courses", func(t *testing.T) {
		s := seed(t)
		results, err := s.Search(ctx, "spindle", WithCourse("Intro to Widgets"))
		require.NoError(t, err)
		require.NotEmpty(t, results)
		for _, r := range results {
			assert.Equal(t, "Intro to Widgets", r.CourseTitle)
		}
	})

	t.Run("lesson filter narrows within a course", func(t *testing.T) {
		s := seed(t)
		results, err := s.Search(ctx, "spindle", WithCourse("Intro to Widgets"), WithLesson(2))
		require.NoError(t, err)
		require.Len(t, results, 1)
		require.NotNil(t, results[0].LessonNumber)
		assert.Equal(t, 2, *results[0].LessonNumber)
	})

	t.Run("filters matching nothing yield empty result", func(t *testing.T) {
		s := seed(t)
		results, err := s.Search(ctx, "spindle", WithCourse("Intro to Widgets"), WithLesson(99))
		require.NoError(t, err)
		assert.Empty(t, results)
	})

	t.Run("empty collection yields empty result", func(t *testing.T) {
		s := newTestStore(t)
		results, err := s.Search(ctx, "anything")
		require.NoError(t, err)
		assert.Empty(t, results)
	})

	t.Run("limit caps result count", func(t *testing.T) {
		s := seed(t)
		results, err := s.Search(ctx, "widgets spindle gadgets", WithLimit(1))
		require.NoError(t, err)
		assert.Len(t, results, 1)
	})
}

func TestOutlineAndLinks(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.AddCourse(ctx, widgetsCourse(), false))

	t.Run("outline returns catalog metadata", func(t *testing.T) {
		c, found := s.Outline("Intro to Widgets")
		require.True(t, found)
		assert.Equal(t, "Ada", c.Instructor)
		assert.Len(t, c.Lessons, 2)
	})

	t.Run("outline copy does not alias store state", func(t *testing.T) {
		c, found := s.Outline("Intro to Widgets")
		require.True(t, found)
		c.Lessons[0].Title = "mutated"

		again, _ := s.Outline("Intro to Widgets")
		assert.Equal(t, "Widget Basics", again.Lessons[0].Title)
	})

	t.Run("unknown title not found", func(t *testing.T) {
		_, found := s.Outline("Nope")
		assert.False(t, found)
	})

	t.Run("lesson link lookup", func(t *testing.T) {
		assert.Equal(t, "https://example.com/widgets/2", s.LessonLink("Intro to Widgets", 2))
		assert.Empty(t, s.LessonLink("Intro to Widgets", 99))
		assert.Empty(t, s.LessonLink("Nope", 1))
	})

	t.Run("titles come back sorted", func(t *testing.T) {
		require.NoError(t, s.AddCourse(ctx, &course.Course{Title: "A Course"}, false))
		assert.Equal(t, []string{"A Course", "Intro to Widgets"}, s.ListCourseTitles())
	})
}

func TestReset(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.IndexCourse(ctx, widgetsCourse(), widgetsChunks(), false))

	require.NoError(t, s.Reset())
	assert.Equal(t, 0, s.CourseCount())
	assert.Equal(t, 0, s.ChunkCount())

	// The store is usable again after a reset.
	require.NoError(t, s.IndexCourse(ctx, widgetsCourse(), widgetsChunks(), false))
	assert.Equal(t, 1, s.CourseCount())
}
