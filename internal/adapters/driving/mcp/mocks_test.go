package mcp

import (
	"context"

	"github.com/coursetta-labs/coursetta/internal/core/domain"
)

// mockAnswerService is a mock implementation of driving.AnswerService.
type mockAnswerService struct {
	answer    domain.Answer
	retrieved []domain.RetrievedChunk
	err       error

	lastQuestion string
	lastImage    string
}

func (m *mockAnswerService) Ask(
	_ context.Context,
	question string,
	imageBase64 string,
) (domain.Answer, error) {
	m.lastQuestion = question
	m.lastImage = imageBase64
	if m.err != nil {
		return domain.Answer{}, m.err
	}
	return m.answer, nil
}

func (m *mockAnswerService) Retrieve(
	_ context.Context,
	question string,
) ([]domain.RetrievedChunk, error) {
	m.lastQuestion = question
	return m.retrieved, m.err
}
