package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"kontra/internal/domain"
	"kontra/internal/service"
)

// IntelHandler handles extraction and retrieval endpoints.
type IntelHandler struct {
	intel            service.IntelService
	defaultLimit     int
	defaultThreshold float64
}

// NewIntelHandler creates a new IntelHandler. The defaults apply when a
// question request omits limit or threshold.
func NewIntelHandler(intel service.IntelService, defaultLimit int, defaultThreshold float64) *IntelHandler {
	return &IntelHandler{
		intel:            intel,
		defaultLimit:     defaultLimit,
		defaultThreshold: defaultThreshold,
	}
}

type extractRequest struct {
	Kind string `json:"kind" binding:"required"`
}

// Extract handles POST /api/v1/documents/:id/extract
func (h *IntelHandler) Extract(c *gin.Context) {
	documentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_DOCUMENT_ID", "document id must be a UUID")
		return
	}

	var req extractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "kind is required")
		return
	}
	kind := domain.ExtractionKind(req.Kind)
	if !kind.Valid() {
		HandleError(c, domain.ErrUnknownExtractionKind)
		return
	}

	result, err := h.intel.GetOrExtract(c.Request.Context(), documentID, kind)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, result)
}

type questionRequest struct {
	Question    string   `json:"question" binding:"required"`
	DocumentIDs []string `json:"document_ids" binding:"required,min=1"`
	Limit       int      `json:"limit"`
	Threshold   *float64 `json:"threshold"`
}

func parseDocumentIDs(raw []string) ([]uuid.UUID, bool) {
	ids := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, false
		}
		ids = append(ids, id)
	}
	return ids, true
}

// Question handles POST /api/v1/questions
func (h *IntelHandler) Question(c *gin.Context) {
	var req questionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "question and document_ids are required")
		return
	}
	ids, ok := parseDocumentIDs(req.DocumentIDs)
	if !ok {
		RespondError(c, http.StatusBadRequest, "INVALID_DOCUMENT_ID", "document ids must be UUIDs")
		return
	}

	limit := req.Limit
	if limit <= 0 {
		limit = h.defaultLimit
	}
	threshold := h.defaultThreshold
	if req.Threshold != nil {
		threshold = *req.Threshold
	}

	ranked, err := h.intel.AnswerQuestion(c.Request.Context(), req.Question, ids, limit, threshold)
	if err != nil {
		HandleError(c, err)
		return
	}
	if ranked == nil {
		ranked = []domain.RankedChunk{}
	}
	RespondOK(c, gin.H{"question": req.Question, "chunks": ranked})
}

type correctionRequest struct {
	Field       string   `json:"field" binding:"required"`
	DocumentIDs []string `json:"document_ids" binding:"required,min=1"`
}

// Correction handles POST /api/v1/questions/corrections
func (h *IntelHandler) Correction(c *gin.Context) {
	var req correctionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "field and document_ids are required")
		return
	}
	ids, ok := parseDocumentIDs(req.DocumentIDs)
	if !ok {
		RespondError(c, http.StatusBadRequest, "INVALID_DOCUMENT_ID", "document ids must be UUIDs")
		return
	}

	correction, err := h.intel.SuggestFieldCorrection(c.Request.Context(), req.Field, ids)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, correction)
}
