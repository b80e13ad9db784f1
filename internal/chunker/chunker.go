// Package chunker splits normalized contract text into overlapping chunks
// suitable for embedding and retrieval. Chunking is deterministic: the same
// text always yields the same boundaries, sequence numbers, and fingerprints.
package chunker

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"kontra/internal/domain"
	"kontra/internal/fingerprint"
)

const (
	DefaultTargetSize = 1200
	DefaultOverlap    = 150
)

var (
	headingRe = regexp.MustCompile(`^#{1,6}\s+(.+)$`)
	articleRe = regexp.MustCompile(`(?i)^(?:article|artikel|section|clause|§)\s*([0-9IVXLC]+(?:\.[0-9]+)*)`)
	blankRe   = regexp.MustCompile(`\n\s*\n`)
)

// Chunker splits text on paragraph/section boundaries where possible,
// falling back to hard character splitting when a single section exceeds the
// target size. Adjacent chunks share overlap characters.
type Chunker struct {
	targetSize int
	overlap    int
}

// New creates a Chunker. Non-positive arguments fall back to defaults; the
// overlap is clamped below the target size.
func New(targetSize, overlap int) *Chunker {
	if targetSize <= 0 {
		targetSize = DefaultTargetSize
	}
	if overlap < 0 {
		overlap = DefaultOverlap
	}
	if overlap >= targetSize {
		overlap = targetSize / 4
	}
	return &Chunker{targetSize: targetSize, overlap: overlap}
}

type sectionState struct {
	title         string
	articleNumber string
}

// Chunk splits documentText into the full ordered chunk set for a document.
func (c *Chunker) Chunk(documentID uuid.UUID, documentText string) ([]domain.Chunk, error) {
	blocks := splitBlocks(documentText)
	if len(blocks) == 0 {
		return nil, nil
	}

	var (
		chunks  []domain.Chunk
		builder strings.Builder
		state   sectionState
		// Section state captured when the current chunk started; a chunk is
		// annotated with the section it began in.
		chunkState sectionState
		seq        int
	)

	flush := func(chunkType domain.ChunkType) error {
		text := strings.TrimSpace(builder.String())
		if text == "" {
			builder.Reset()
			return nil
		}
		ch, err := c.newChunk(documentID, seq, text, chunkState, chunkType)
		if err != nil {
			return err
		}
		chunks = append(chunks, ch)
		seq++

		builder.Reset()
		builder.WriteString(tail(text, c.overlap))
		chunkState = state
		return nil
	}

	for _, block := range blocks {
		if m := headingRe.FindStringSubmatch(block); m != nil {
			state.title = strings.TrimSpace(m[1])
			if am := articleRe.FindStringSubmatch(state.title); am != nil {
				state.articleNumber = am[1]
			} else {
				state.articleNumber = ""
			}
		} else if am := articleRe.FindStringSubmatch(block); am != nil {
			state.articleNumber = am[1]
			state.title = firstLine(block)
		}
		if builder.Len() == 0 {
			chunkState = state
		}

		// Hard split: a single block larger than the target gets windowed.
		if len(block) > c.targetSize {
			if err := flush(blockType(builder.String())); err != nil {
				return nil, err
			}
			builder.Reset() // no overlap carry into a hard-split run
			start := 0
			for start < len(block) {
				end := start + c.targetSize
				if end >= len(block) {
					end = len(block)
				} else {
					// Never cut a rune in half: back the window edge up to
					// the nearest rune start.
					for end > start && !utf8RuneStart(block[end]) {
						end--
					}
					if end == start {
						end = len(block)
					}
				}
				ch, err := c.newChunk(documentID, seq, block[start:end], state, domain.ChunkTypePartial)
				if err != nil {
					return nil, err
				}
				chunks = append(chunks, ch)
				seq++
				if end == len(block) {
					break
				}
				next := end - c.overlap
				if next <= start {
					next = end
				}
				for next < len(block) && !utf8RuneStart(block[next]) {
					next++
				}
				start = next
			}
			chunkState = state
			continue
		}

		if builder.Len() > 0 && builder.Len()+len(block)+2 > c.targetSize {
			if err := flush(blockType(builder.String())); err != nil {
				return nil, err
			}
		}
		if builder.Len() > 0 {
			builder.WriteString("\n\n")
		}
		builder.WriteString(block)
	}

	if err := flush(blockType(builder.String())); err != nil {
		return nil, err
	}
	return chunks, nil
}

func (c *Chunker) newChunk(documentID uuid.UUID, seq int, text string, state sectionState, chunkType domain.ChunkType) (domain.Chunk, error) {
	fp, err := fingerprint.Compute(text, domain.PurposeChunk)
	if err != nil {
		return domain.Chunk{}, fmt.Errorf("fingerprinting chunk %d: %w", seq, err)
	}
	return domain.Chunk{
		Fingerprint: fp,
		DocumentID:  documentID,
		Sequence:    seq,
		Text:        text,
		Metadata: domain.ChunkMetadata{
			Title:         state.title,
			ArticleNumber: state.articleNumber,
			ChunkType:     chunkType,
		},
	}, nil
}

// splitBlocks splits text into paragraph blocks on blank lines.
func splitBlocks(text string) []string {
	raw := blankRe.Split(text, -1)
	blocks := make([]string, 0, len(raw))
	for _, b := range raw {
		b = strings.TrimSpace(b)
		if b != "" {
			blocks = append(blocks, b)
		}
	}
	return blocks
}

func blockType(text string) domain.ChunkType {
	trimmed := strings.TrimSpace(text)
	switch {
	case strings.HasPrefix(trimmed, "|"):
		return domain.ChunkTypeTable
	case articleRe.MatchString(trimmed) || headingRe.MatchString(firstLine(trimmed)):
		return domain.ChunkTypeClause
	default:
		return domain.ChunkTypeText
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

// tail returns the last n bytes of s aligned to a rune boundary.
func tail(s string, n int) string {
	if n <= 0 || len(s) <= n {
		if n <= 0 {
			return ""
		}
		return s
	}
	cut := len(s) - n
	for cut < len(s) && !utf8RuneStart(s[cut]) {
		cut++
	}
	return s[cut:]
}

func utf8RuneStart(b byte) bool { return b&0xC0 != 0x80 }
