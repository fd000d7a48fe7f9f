// Package chunker splits a document's content into bounded semantic
// units. Chunking is deterministic and pure: identical content always
// yields identical chunk boundaries, ids and metadata.
package chunker

import (
	"path"
	"regexp"
	"strconv"
	"strings"

	"github.com/arkivo-labs/arkivo-cli/internal/core/domain"
)

// DefaultChunkSize is the default chunk budget in characters.
const DefaultChunkSize = 1000

// tagPattern matches a leading # followed by word characters or hyphens.
var tagPattern = regexp.MustCompile(`(?:^|\s)#([\w-]+)`)

// Chunker splits document content on paragraph boundaries, greedily
// packing paragraphs into chunks of at most chunkSize characters. A
// single paragraph longer than chunkSize is kept whole; chunking never
// splits inside a paragraph.
type Chunker struct {
	chunkSize int
}

// Option configures the chunker.
type Option func(*Chunker)

// WithChunkSize sets the chunk budget in characters.
func WithChunkSize(size int) Option {
	return func(c *Chunker) {
		if size > 0 {
			c.chunkSize = size
		}
	}
}

// New creates a chunker with the given options.
func New(opts ...Option) *Chunker {
	c := &Chunker{chunkSize: DefaultChunkSize}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// paragraph is a body paragraph with its character offsets.
type paragraph struct {
	text  string
	start int
	end   int
}

// Chunk splits content into chunk drafts for the given document path.
// Drafts carry deterministic ids and metadata but no file version or
// timestamps; the index store stamps those when the chunks are stored.
func (c *Chunker) Chunk(content, docPath string) []domain.DocumentChunk {
	content = strings.ReplaceAll(content, "\r\n", "\n")

	frontMatter, body := parseFrontMatter(content)
	tags := extractTags(body)
	paragraphs := splitParagraphs(body)

	var chunks []domain.DocumentChunk
	var buf []paragraph

	flush := func() {
		if len(buf) == 0 {
			return
		}
		texts := make([]string, len(buf))
		for i, p := range buf {
			texts[i] = p.text
		}
		ordinal := len(chunks)
		chunks = append(chunks, domain.DocumentChunk{
			ID:      domain.ChunkID(docPath, ordinal),
			Content: strings.Join(texts, "\n\n"),
			Metadata: domain.ChunkMetadata{
				FileName:    path.Base(docPath),
				FilePath:    docPath,
				Tags:        tags,
				FrontMatter: frontMatter,
				ChunkIndex:  ordinal,
				StartOffset: buf[0].start,
				EndOffset:   buf[len(buf)-1].end,
			},
		})
		buf = nil
	}

	bufLen := 0
	for _, p := range paragraphs {
		// Close the current chunk when appending would exceed the
		// budget and the buffer already holds something.
		if len(buf) > 0 && bufLen+2+len(p.text) > c.chunkSize {
			flush()
			bufLen = 0
		}
		if len(buf) > 0 {
			bufLen += 2
		}
		buf = append(buf, p)
		bufLen += len(p.text)
	}
	flush()

	for i := range chunks {
		chunks[i].Metadata.TotalChunks = len(chunks)
	}
	return chunks
}

// parseFrontMatter strips a leading --- delimited block and parses it as
// flat key:value pairs. The first colon splits key from value; malformed
// lines are skipped, never fatal. Returns nil and the full content when
// no complete front-matter block is present.
func parseFrontMatter(content string) (map[string]domain.FrontMatterValue, string) {
	lines := strings.Split(content, "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) != "---" {
		return nil, content
	}

	end := -1
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			end = i
			break
		}
	}
	if end == -1 {
		// Unterminated block: treat the whole content as body.
		return nil, content
	}

	values := make(map[string]domain.FrontMatterValue)
	for _, line := range lines[1:end] {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		key, rawValue, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		values[key] = parseValue(strings.TrimSpace(rawValue))
	}

	body := strings.Join(lines[end+1:], "\n")
	return values, body
}

// parseValue classifies a front-matter value into its tagged shape.
func parseValue(raw string) domain.FrontMatterValue {
	if raw == "" {
		return domain.UnknownValue(raw)
	}
	if strings.HasPrefix(raw, "[") && strings.HasSuffix(raw, "]") {
		inner := strings.TrimSuffix(strings.TrimPrefix(raw, "["), "]")
		var items []string
		for _, item := range strings.Split(inner, ",") {
			item = strings.TrimSpace(item)
			if item != "" {
				items = append(items, item)
			}
		}
		return domain.ListValue(items)
	}
	if n, err := strconv.ParseFloat(raw, 64); err == nil {
		return domain.NumberValue(n)
	}
	return domain.StringValue(raw)
}

// extractTags collects #tag tokens from the body, deduplicated in order
// of first appearance.
func extractTags(body string) []string {
	matches := tagPattern.FindAllStringSubmatch(body, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(matches))
	var tags []string
	for _, m := range matches {
		tag := m[1]
		if !seen[tag] {
			seen[tag] = true
			tags = append(tags, tag)
		}
	}
	return tags
}

// splitParagraphs splits the body on blank-line boundaries, tracking
// character offsets within the body.
func splitParagraphs(body string) []paragraph {
	var paragraphs []paragraph
	var current []string
	currentStart := -1
	offset := 0

	flush := func() {
		if currentStart < 0 {
			return
		}
		text := strings.Join(current, "\n")
		paragraphs = append(paragraphs, paragraph{
			text:  text,
			start: currentStart,
			end:   currentStart + len(text),
		})
		current = nil
		currentStart = -1
	}

	for _, line := range strings.Split(body, "\n") {
		if strings.TrimSpace(line) == "" {
			flush()
		} else {
			if currentStart < 0 {
				currentStart = offset
			}
			current = append(current, line)
		}
		offset += len(line) + 1
	}
	flush()

	return paragraphs
}
