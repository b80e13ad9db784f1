package handler_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"kontra/internal/domain"
	"kontra/internal/handler"
	"kontra/mocks"
)

func setupIntelRouter(intel *mocks.MockIntelService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := handler.NewIntelHandler(intel, 5, 0.4)
	r := gin.New()
	r.POST("/api/v1/documents/:id/extract", h.Extract)
	r.POST("/api/v1/questions", h.Question)
	r.POST("/api/v1/questions/corrections", h.Correction)
	return r
}

func postJSON(r *gin.Engine, path string, body interface{}) *httptest.ResponseRecorder {
	b, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestExtractReturnsResult(t *testing.T) {
	intel := new(mocks.MockIntelService)
	docID := uuid.New()
	intel.On("GetOrExtract", mock.Anything, docID, domain.KindPaymentTerms).Return(&domain.ExtractionResult{
		Kind:       domain.KindPaymentTerms,
		Payload:    json.RawMessage(`{"payment_due_days":30}`),
		Confidence: 0.92,
		Status:     domain.ExtractionCompleted,
	}, nil)

	w := postJSON(setupIntelRouter(intel), "/api/v1/documents/"+docID.String()+"/extract",
		gin.H{"kind": "payment-terms"})

	assert.Equal(t, http.StatusOK, w.Code)
	var resp handler.APIResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
}

func TestExtractRejectsUnknownKind(t *testing.T) {
	intel := new(mocks.MockIntelService)

	w := postJSON(setupIntelRouter(intel), "/api/v1/documents/"+uuid.NewString()+"/extract",
		gin.H{"kind": "horoscope"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	intel.AssertNumberOfCalls(t, "GetOrExtract", 0)
}

func TestExtractRejectsBadDocumentID(t *testing.T) {
	intel := new(mocks.MockIntelService)

	w := postJSON(setupIntelRouter(intel), "/api/v1/documents/not-a-uuid/extract",
		gin.H{"kind": "payment-terms"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExtractMapsProviderUnavailable(t *testing.T) {
	intel := new(mocks.MockIntelService)
	intel.On("GetOrExtract", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, fmt.Errorf("%w: http 500", domain.ErrProviderUnavailable))

	w := postJSON(setupIntelRouter(intel), "/api/v1/documents/"+uuid.NewString()+"/extract",
		gin.H{"kind": "payment-terms"})

	assert.Equal(t, http.StatusBadGateway, w.Code)
	var resp handler.APIResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "PROVIDER_UNAVAILABLE", resp.Error.Code)
}

func TestQuestionAppliesDefaults(t *testing.T) {
	intel := new(mocks.MockIntelService)
	docID := uuid.New()
	intel.On("AnswerQuestion", mock.Anything, "What is the notice period?", []uuid.UUID{docID}, 5, 0.4).
		Return([]domain.RankedChunk{}, nil)

	w := postJSON(setupIntelRouter(intel), "/api/v1/questions", gin.H{
		"question":     "What is the notice period?",
		"document_ids": []string{docID.String()},
	})

	assert.Equal(t, http.StatusOK, w.Code)
	intel.AssertExpectations(t)
}

func TestQuestionHonorsExplicitThreshold(t *testing.T) {
	intel := new(mocks.MockIntelService)
	docID := uuid.New()
	intel.On("AnswerQuestion", mock.Anything, "q", []uuid.UUID{docID}, 2, 0.0).
		Return([]domain.RankedChunk{}, nil)

	w := postJSON(setupIntelRouter(intel), "/api/v1/questions", gin.H{
		"question":     "q",
		"document_ids": []string{docID.String()},
		"limit":        2,
		"threshold":    0.0,
	})

	assert.Equal(t, http.StatusOK, w.Code)
	intel.AssertExpectations(t)
}

func TestQuestionRequiresDocumentIDs(t *testing.T) {
	intel := new(mocks.MockIntelService)

	w := postJSON(setupIntelRouter(intel), "/api/v1/questions", gin.H{
		"question":     "q",
		"document_ids": []string{},
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCorrectionMapsUnknownField(t *testing.T) {
	intel := new(mocks.MockIntelService)
	intel.On("SuggestFieldCorrection", mock.Anything, "no_such_field", mock.Anything).
		Return(nil, fmt.Errorf("%w: no_such_field", domain.ErrUnknownField))

	w := postJSON(setupIntelRouter(intel), "/api/v1/questions/corrections", gin.H{
		"field":        "no_such_field",
		"document_ids": []string{uuid.NewString()},
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var resp handler.APIResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "UNKNOWN_FIELD", resp.Error.Code)
}
