package course

import (
	"fmt"
	"regexp"
	"strings"
)

// Splitter breaks text into overlapping chunks, preferring sentence
// boundaries over hard cuts. Splitting is purely a function of the input
// text and the configuration: identical input yields byte-identical chunks.
type Splitter struct {
	maxChars int // maximum chunk length in characters
	overlap  int // characters of overlap between consecutive chunks
	minChunk int // a trailing chunk shorter than this merges into its predecessor
}

// NewSplitter creates a Splitter. maxChars must be positive; overlap must be
// smaller than maxChars; minChunk may be zero to disable trailing merges.
func NewSplitter(maxChars, overlap, minChunk int) (*Splitter, error) {
	if maxChars <= 0 {
		return nil, fmt.Errorf("max chars must be positive, got %d", maxChars)
	}
	if overlap < 0 || overlap >= maxChars {
		return nil, fmt.Errorf("overlap %d must be in [0, %d)", overlap, maxChars)
	}
	if minChunk < 0 || minChunk > maxChars {
		return nil, fmt.Errorf("min chunk %d must be in [0, %d]", minChunk, maxChars)
	}
	return &Splitter{maxChars: maxChars, overlap: overlap, minChunk: minChunk}, nil
}

// sentenceEnd matches a sentence terminator followed by whitespace or the
// end of input. Closing quotes and brackets stay attached to the sentence.
var sentenceEnd = regexp.MustCompile(`[.!?]+["')\]]*(\s+|$)`)

// whitespaceRun collapses internal whitespace so that chunk boundaries do
// not depend on the source formatting (newlines vs spaces).
var whitespaceRun = regexp.MustCompile(`\s+`)

// splitSentences splits normalized text into sentences. Text without any
// terminator comes back as a single sentence.
func splitSentences(text string) []string {
	var out []string
	start := 0
	for _, loc := range sentenceEnd.FindAllStringIndex(text, -1) {
		s := strings.TrimSpace(text[start:loc[1]])
		if s != "" {
			out = append(out, s)
		}
		start = loc[1]
	}
	if rest := strings.TrimSpace(text[start:]); rest != "" {
		out = append(out, rest)
	}
	return out
}

// Split breaks text into chunks of at most maxChars characters. Chunks break
// at sentence boundaries whenever possible; only a single sentence longer
// than maxChars occupies a chunk alone (it is never dropped or cut).
// Consecutive chunks share trailing sentences totalling at most overlap
// characters. A final chunk shorter than minChunk merges into its
// predecessor so trailing content is never lost as a fragment.
func (s *Splitter) Split(text string) []string {
	normalized := whitespaceRun.ReplaceAllString(strings.TrimSpace(text), " ")
	if normalized == "" {
		return nil
	}

	sentences := splitSentences(normalized)
	var chunks []string

	i := 0
	for i < len(sentences) {
		size := 0
		j := i
		for j < len(sentences) {
			add := len(sentences[j])
			if j > i {
				add++ // joining space
			}
			if size+add > s.maxChars && j > i {
				break
			}
			size += add
			j++
		}

		chunks = append(chunks, strings.Join(sentences[i:j], " "))
		if j >= len(sentences) {
			break
		}

		// Step back over trailing sentences that fit in the overlap budget,
		// but always advance by at least one sentence.
		next := j
		if s.overlap > 0 {
			budget := s.overlap
			for next > i+1 && budget >= len(sentences[next-1]) {
				budget -= len(sentences[next-1]) + 1
				next--
			}
		}
		i = next
	}

	// Merge an undersized trailing fragment into the previous chunk.
	if len(chunks) > 1 {
		last := chunks[len(chunks)-1]
		if len(last) < s.minChunk {
			chunks[len(chunks)-2] = chunks[len(chunks)-2] + " " + last
			chunks = chunks[:len(chunks)-1]
		}
	}

	return chunks
}

// ChunkCourse splits every segment of a parsed course and tags each chunk
// with its owning lesson. Chunk indexes are sequential across the whole
// course. Each chunk's content is prefixed with its course and lesson
// context so the embedded text carries its own provenance.
func (s *Splitter) ChunkCourse(c *Course, segments []Segment) []Chunk {
	var chunks []Chunk
	index := 0
	for _, seg := range segments {
		for _, text := range s.Split(seg.Text) {
			chunks = append(chunks, Chunk{
				Content:      contextPrefix(c.Title, seg.Lesson) + text,
				CourseTitle:  c.Title,
				LessonNumber: seg.Lesson,
				Index:        index,
			})
			index++
		}
	}
	return chunks
}

// contextPrefix builds the provenance prefix embedded into chunk content.
func contextPrefix(title string, lesson *int) string {
	if lesson != nil {
		return fmt.Sprintf("Course %s Lesson %d content: ", title, *lesson)
	}
	return fmt.Sprintf("Course %s content: ", title)
}
