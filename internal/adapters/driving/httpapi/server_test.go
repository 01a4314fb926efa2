package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coursetta-labs/coursetta/internal/core/domain"
)

// stubAnswers is a canned driving.AnswerService.
type stubAnswers struct {
	answer    domain.Answer
	err       error
	questions []string
	images    []string
}

func (m *stubAnswers) Ask(ctx context.Context, question, imageBase64 string) (domain.Answer, error) {
	m.questions = append(m.questions, question)
	m.images = append(m.images, imageBase64)
	if m.err != nil {
		return domain.Answer{}, m.err
	}
	return m.answer, nil
}

func (m *stubAnswers) Retrieve(ctx context.Context, question string) ([]domain.RetrievedChunk, error) {
	return nil, nil
}

func postAsk(t *testing.T, handler http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHandleAsk(t *testing.T) {
	stub := &stubAnswers{
		answer: domain.Answer{
			Text: "Homework 1 is due Friday [1].",
			Links: []domain.Link{
				{Title: "Homework 1", URL: "https://course.example.com/hw1"},
			},
		},
	}
	handler := NewServer(stub, ":0").Handler()

	rec := postAsk(t, handler, `{"question":"when is hw1 due?"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	var resp askResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Homework 1 is due Friday [1].", resp.Answer)
	require.Len(t, resp.Links, 1)
	assert.Equal(t, "Homework 1", resp.Links[0].Text)
	assert.Equal(t, "https://course.example.com/hw1", resp.Links[0].URL)

	require.Len(t, stub.questions, 1)
	assert.Equal(t, "when is hw1 due?", stub.questions[0])
}

func TestHandleAsk_PassesImageThrough(t *testing.T) {
	stub := &stubAnswers{answer: domain.Answer{Text: "ok", Links: []domain.Link{}}}
	handler := NewServer(stub, ":0").Handler()

	rec := postAsk(t, handler, `{"question":"what is this?","image":"aGVsbG8="}`)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, stub.images, 1)
	assert.Equal(t, "aGVsbG8=", stub.images[0])
}

func TestHandleAsk_EmptyLinksStaysArray(t *testing.T) {
	stub := &stubAnswers{answer: domain.Answer{Text: "general answer", Links: []domain.Link{}}}
	handler := NewServer(stub, ":0").Handler()

	rec := postAsk(t, handler, `{"question":"anything"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"links":[]`)
}

func TestHandleAsk_InvalidInput(t *testing.T) {
	stub := &stubAnswers{err: fmt.Errorf("decode image: %w", domain.ErrInvalidInput)}
	handler := NewServer(stub, ":0").Handler()

	rec := postAsk(t, handler, `{"question":"q","image":"!!!"}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Error, "decode image")
}

func TestHandleAsk_MalformedJSON(t *testing.T) {
	stub := &stubAnswers{}
	handler := NewServer(stub, ":0").Handler()

	rec := postAsk(t, handler, `{not json`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, stub.questions)
}

func TestHandleAsk_MethodNotAllowed(t *testing.T) {
	handler := NewServer(&stubAnswers{}, ":0").Handler()

	req := httptest.NewRequest(http.MethodGet, "/api/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHandleAsk_InternalError(t *testing.T) {
	stub := &stubAnswers{err: fmt.Errorf("store corrupt")}
	handler := NewServer(stub, ":0").Handler()

	rec := postAsk(t, handler, `{"question":"q"}`)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "store corrupt")
}

func TestHealthz(t *testing.T) {
	handler := NewServer(&stubAnswers{}, ":0").Handler()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}
