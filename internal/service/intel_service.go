package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"kontra/internal/cache/memory"
	"kontra/internal/chunker"
	"kontra/internal/domain"
	"kontra/internal/fingerprint"
	"kontra/internal/port"
)

// IntelService is the contract intelligence API consumed by the resolver
// layer: cached field extraction and retrieval-augmented question answering.
type IntelService interface {
	GetOrExtract(ctx context.Context, documentID uuid.UUID, kind domain.ExtractionKind) (*domain.ExtractionResult, error)
	AnswerQuestion(ctx context.Context, question string, documentIDs []uuid.UUID, limit int, threshold float64) ([]domain.RankedChunk, error)
	SuggestFieldCorrection(ctx context.Context, fieldName string, documentIDs []uuid.UUID) (*domain.FieldCorrection, error)
	CacheStats(ctx context.Context) (*domain.CacheStats, error)
	ClearMemoryCache()
	SweepExpired(ctx context.Context) (*domain.SweepResult, error)
}

// IntelConfig holds tunables for the cache tiers and retrieval defaults.
// The default similarity threshold is a transport-level concern: requests
// carry an explicit threshold by the time they reach the service.
type IntelConfig struct {
	L1MaxEntries    int
	L1TTL           time.Duration
	L2TTL           time.Duration
	L3TTL           time.Duration
	ReviewThreshold float64
	ProviderTimeout time.Duration
	DefaultLimit    int
}

type intelService struct {
	source    port.DocumentSource
	embStore  port.EmbeddingStore
	extStore  port.ExtractionStore
	embedder  port.EmbeddingProvider
	extractor port.ExtractionProvider
	chunker   *chunker.Chunker
	policies  *PolicyTable
	l1        *memory.Cache[*domain.ExtractionResult]
	cfg       IntelConfig

	// One in-flight provider call per unique key; later arrivals attach to
	// the pending call instead of issuing duplicates.
	extractGroup singleflight.Group
	embedGroup   singleflight.Group
}

// NewIntelService wires the cache tiers, providers, and policy table into a
// single explicitly constructed service instance.
func NewIntelService(
	source port.DocumentSource,
	embStore port.EmbeddingStore,
	extStore port.ExtractionStore,
	embedder port.EmbeddingProvider,
	extractor port.ExtractionProvider,
	chk *chunker.Chunker,
	policies *PolicyTable,
	cfg IntelConfig,
) IntelService {
	if cfg.ProviderTimeout == 0 {
		cfg.ProviderTimeout = 5 * time.Minute
	}
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = 5
	}
	return &intelService{
		source:    source,
		embStore:  embStore,
		extStore:  extStore,
		embedder:  embedder,
		extractor: extractor,
		chunker:   chk,
		policies:  policies,
		l1:        memory.New[*domain.ExtractionResult](cfg.L1MaxEntries),
		cfg:       cfg,
	}
}

// GetOrExtract returns the structured extraction result for a document,
// computing it at most once per unique (content, kind) pair. Lookup order is
// L1, then L3, then the extraction provider with write-through.
func (s *intelService) GetOrExtract(ctx context.Context, documentID uuid.UUID, kind domain.ExtractionKind) (*domain.ExtractionResult, error) {
	text, err := s.source.GetNormalizedText(ctx, documentID)
	if err != nil {
		return nil, err
	}
	fp, err := fingerprint.Compute(text, string(kind))
	if err != nil {
		return nil, err
	}

	if res, ok := s.l1.Get(fp); ok {
		return res, nil
	}

	ch := s.extractGroup.DoChan(string(fp), func() (interface{}, error) {
		return s.extract(fp, kind, text)
	})

	select {
	case <-ctx.Done():
		// The in-flight call keeps running and populates the caches; only
		// this caller gives up on the result.
		return nil, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		return r.Val.(*domain.ExtractionResult), nil
	}
}

// extract runs under a detached context so caller cancellation cannot abort
// a provider call whose result is still valuable to the next caller.
func (s *intelService) extract(fp domain.Fingerprint, kind domain.ExtractionKind, text string) (*domain.ExtractionResult, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ProviderTimeout)
	defer cancel()

	cached, err := s.extStore.Lookup(ctx, fp, kind)
	if err == nil {
		s.l1.Set(fp, cached, s.cfg.L1TTL)
		return cached, nil
	}
	if !errors.Is(err, domain.ErrCacheMiss) {
		// Backend trouble degrades to recomputation rather than failing the
		// caller.
		log.Printf("intelService: extraction cache lookup degraded: %v", err)
	}

	out, err := s.extractor.Extract(ctx, kind, text)
	if err != nil {
		// Task is FAILED; nothing is written to any tier.
		return nil, err
	}

	status := domain.ExtractionCompleted
	if out.Confidence < s.cfg.ReviewThreshold {
		status = domain.ExtractionManualReview
	}

	now := time.Now()
	result := &domain.ExtractionResult{
		DocumentFingerprint: fp,
		Kind:                kind,
		Payload:             out.Payload,
		Confidence:          out.Confidence,
		Status:              status,
		Model:               out.Model,
		SourceText:          excerpt(text, 2000),
		ExtractedAt:         now,
		ExpiresAt:           now.Add(s.cfg.L3TTL),
	}

	if err := s.extStore.Store(ctx, result, s.cfg.L3TTL); err != nil {
		log.Printf("intelService: extraction write-through dropped: %v", err)
	}
	s.l1.Set(fp, result, s.cfg.L1TTL)
	return result, nil
}

// AnswerQuestion embeds the question, embeds every chunk of the requested
// corpus (through the L2 cache), and returns the chunks ranked by cosine
// similarity. An empty result means no chunk cleared the threshold; that is
// a normal outcome, not an error.
func (s *intelService) AnswerQuestion(ctx context.Context, question string, documentIDs []uuid.UUID, limit int, threshold float64) ([]domain.RankedChunk, error) {
	if question == "" {
		return nil, fmt.Errorf("%w: question must not be empty", domain.ErrInvalidInput)
	}
	if threshold < 0 || threshold > 1 {
		return nil, fmt.Errorf("%w: threshold must be within [0, 1]", domain.ErrInvalidInput)
	}
	if limit <= 0 {
		limit = s.cfg.DefaultLimit
	}

	qfp, err := fingerprint.Compute(question, domain.PurposeQuestion)
	if err != nil {
		return nil, err
	}
	qvec, err := s.embedCached(ctx, qfp, question)
	if err != nil {
		return nil, err
	}

	var candidates []domain.RankedChunk
	for _, docID := range documentIDs {
		text, err := s.source.GetNormalizedText(ctx, docID)
		if err != nil {
			return nil, err
		}
		chunks, err := s.chunker.Chunk(docID, text)
		if err != nil {
			return nil, err
		}
		for _, chunk := range chunks {
			vec, err := s.embedCached(ctx, chunk.Fingerprint, chunk.Text)
			if err != nil {
				return nil, err
			}
			candidates = append(candidates, domain.RankedChunk{
				Chunk:      chunk,
				Similarity: cosineSimilarity(qvec, vec),
			})
		}
	}

	return rankChunks(candidates, limit, threshold), nil
}

// embedCached resolves an embedding through L2, calling the provider on a
// miss with at most one in-flight call per fingerprint. Successful provider
// results are written through before being returned.
func (s *intelService) embedCached(ctx context.Context, fp domain.Fingerprint, text string) ([]float32, error) {
	rec, err := s.embStore.Lookup(ctx, fp)
	if err == nil {
		return rec.Vector, nil
	}
	if !errors.Is(err, domain.ErrCacheMiss) {
		log.Printf("intelService: embedding cache lookup degraded: %v", err)
	}

	ch := s.embedGroup.DoChan(string(fp), func() (interface{}, error) {
		pctx, cancel := context.WithTimeout(context.Background(), s.cfg.ProviderTimeout)
		defer cancel()

		vec, err := s.embedder.Embed(pctx, text)
		if err != nil {
			return nil, err
		}
		now := time.Now()
		rec := &domain.EmbeddingRecord{
			ChunkFingerprint: fp,
			Vector:           vec,
			Dimension:        len(vec),
			Model:            s.embedder.Model(),
			CreatedAt:        now,
			ExpiresAt:        now.Add(s.cfg.L2TTL),
		}
		if err := s.embStore.Store(pctx, rec, s.cfg.L2TTL); err != nil {
			log.Printf("intelService: embedding write-through dropped: %v", err)
		}
		return vec, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		return r.Val.([]float32), nil
	}
}

// SuggestFieldCorrection runs the field's configured retrieval query over
// the given documents and applies the conservative threshold to the best
// match.
func (s *intelService) SuggestFieldCorrection(ctx context.Context, fieldName string, documentIDs []uuid.UUID) (*domain.FieldCorrection, error) {
	policy, err := s.policies.Get(fieldName)
	if err != nil {
		return nil, err
	}

	ranked, err := s.AnswerQuestion(ctx, policy.RAGQuery, documentIDs, 1, 0)
	if err != nil {
		return nil, err
	}

	var top *domain.RankedChunk
	if len(ranked) > 0 {
		top = &ranked[0]
	}
	correction := s.policies.Apply(policy, top)
	return &correction, nil
}

// CacheStats aggregates L1 counters with L2/L3 row counts.
func (s *intelService) CacheStats(ctx context.Context) (*domain.CacheStats, error) {
	l2Count, err := s.embStore.Count(ctx)
	if err != nil {
		return nil, err
	}
	l3Total, l3Expired, err := s.extStore.Counts(ctx)
	if err != nil {
		return nil, err
	}
	return &domain.CacheStats{
		Level1: s.l1.Stats(),
		Level2: domain.TierStats{Count: l2Count},
		Level3: domain.TierStats{Count: l3Total, ExpiredCount: l3Expired},
	}, nil
}

// ClearMemoryCache wipes L1 only. The persisted tiers represent durable,
// expensive-to-recompute work and are removed solely by SweepExpired.
func (s *intelService) ClearMemoryCache() {
	s.l1.Clear()
}

// SweepExpired deletes expired rows from both persisted tiers.
func (s *intelService) SweepExpired(ctx context.Context) (*domain.SweepResult, error) {
	l2Removed, err := s.embStore.SweepExpired(ctx)
	if err != nil {
		return nil, err
	}
	l3Removed, err := s.extStore.SweepExpired(ctx)
	if err != nil {
		return nil, err
	}
	return &domain.SweepResult{
		Level2Removed: l2Removed,
		Level3Removed: l3Removed,
		Removed:       l2Removed + l3Removed,
	}, nil
}

func excerpt(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && s[cut]&0xC0 == 0x80 {
		cut--
	}
	return s[:cut]
}
