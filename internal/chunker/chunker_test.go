package chunker_test

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kontra/internal/chunker"
	"kontra/internal/domain"
)

const contractText = `# Service Agreement

## Article 1: Scope of Services

The contractor shall provide software maintenance services for the customer's
contract management platform, including defect resolution and minor releases.

## Article 2: Payment Terms

Invoices are payable within thirty days of receipt. Late payments accrue
interest at two percent above the applicable base rate.

## Article 3: Data Protection

The contractor processes personal data only on documented instructions of the
customer and in accordance with applicable data protection regulations.`

func TestChunk_Deterministic(t *testing.T) {
	c := chunker.New(200, 40)
	docID := uuid.New()

	first, err := c.Chunk(docID, contractText)
	require.NoError(t, err)
	second, err := c.Chunk(docID, contractText)
	require.NoError(t, err)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].Fingerprint, second[i].Fingerprint)
		assert.Equal(t, first[i].Sequence, second[i].Sequence)
		assert.Equal(t, first[i].Text, second[i].Text)
	}
}

func TestChunk_SequenceNumbersAscend(t *testing.T) {
	c := chunker.New(200, 40)
	chunks, err := c.Chunk(uuid.New(), contractText)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)

	for i, ch := range chunks {
		assert.Equal(t, i, ch.Sequence)
	}
}

func TestChunk_AdjacentChunksOverlap(t *testing.T) {
	c := chunker.New(200, 40)
	chunks, err := c.Chunk(uuid.New(), contractText)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	prevTail := chunks[0].Text
	if len(prevTail) > 40 {
		prevTail = prevTail[len(prevTail)-40:]
	}
	assert.True(t, strings.HasPrefix(chunks[1].Text, strings.TrimSpace(prevTail)),
		"second chunk starts with the tail of the first")
}

func TestChunk_ArticleMetadata(t *testing.T) {
	c := chunker.New(200, 40)
	chunks, err := c.Chunk(uuid.New(), contractText)
	require.NoError(t, err)

	var found bool
	for _, ch := range chunks {
		if ch.Metadata.ArticleNumber == "2" {
			found = true
			assert.Contains(t, ch.Metadata.Title, "Payment Terms")
		}
	}
	assert.True(t, found, "a chunk is attributed to Article 2")
}

func TestChunk_HardSplitOversizedSection(t *testing.T) {
	oversized := strings.Repeat("lorem ipsum dolor sit amet ", 40) // ~1080 chars, no blank lines
	c := chunker.New(300, 50)

	chunks, err := c.Chunk(uuid.New(), oversized)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	for _, ch := range chunks {
		assert.LessOrEqual(t, len(ch.Text), 300)
		assert.Equal(t, domain.ChunkTypePartial, ch.Metadata.ChunkType)
	}
}

func TestChunk_HardSplitMultiByteRunes(t *testing.T) {
	// One ASCII byte followed by 400 three-byte runes: every window edge
	// lands inside a rune unless the splitter realigns it.
	oversized := "a" + strings.Repeat("€", 400)
	c := chunker.New(300, 50)

	chunks, err := c.Chunk(uuid.New(), oversized)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	for _, ch := range chunks {
		assert.True(t, utf8.ValidString(ch.Text))
		assert.LessOrEqual(t, len(ch.Text), 300)
		assert.Equal(t, domain.ChunkTypePartial, ch.Metadata.ChunkType)
	}
	assert.True(t, strings.HasSuffix(chunks[len(chunks)-1].Text, "€"),
		"final window reaches the end of the block")

	again, err := c.Chunk(uuid.New(), oversized)
	require.NoError(t, err)
	require.Equal(t, len(chunks), len(again))
	for i := range chunks {
		assert.Equal(t, chunks[i].Fingerprint, again[i].Fingerprint)
	}
}

func TestChunk_EmptyText(t *testing.T) {
	c := chunker.New(200, 40)
	chunks, err := c.Chunk(uuid.New(), "   \n\n  ")
	assert.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestChunk_IdenticalTextSharesFingerprints(t *testing.T) {
	c := chunker.New(200, 40)
	a, err := c.Chunk(uuid.New(), contractText)
	require.NoError(t, err)
	b, err := c.Chunk(uuid.New(), contractText)
	require.NoError(t, err)

	// Different documents, identical content: fingerprints match so the
	// embedding cache deduplicates across documents.
	require.Equal(t, len(a), len(b))
	for i := range a {
		assert.Equal(t, a[i].Fingerprint, b[i].Fingerprint)
		assert.NotEqual(t, a[i].DocumentID, b[i].DocumentID)
	}
}
