package services

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/coursetta-labs/coursetta/internal/core/domain"
	"github.com/coursetta-labs/coursetta/internal/core/ports/driven"
	"github.com/coursetta-labs/coursetta/internal/logger"
)

// citationPattern matches inline [n] source markers in model output.
var citationPattern = regexp.MustCompile(`\[(\d+)\]`)

// synthesise turns retrieved chunks into a cited answer. With nothing
// retrieved it falls back to a general-knowledge answer with no links.
// One retry with backoff on a transient LLM failure; permanent failures
// and a second transient failure propagate to the caller.
func (s *AnswerService) synthesise(ctx context.Context, q domain.Question, retrieved []domain.RetrievedChunk) (domain.Answer, error) {
	var req driven.CompletionRequest
	if len(retrieved) == 0 {
		logger.Debug("Nothing retrieved, answering from general knowledge")
		req = driven.CompletionRequest{
			System: s.loadPrompt(driven.PromptAnswerGeneral),
			User:   q.Text,
		}
	} else {
		req = driven.CompletionRequest{
			System: s.loadPrompt(driven.PromptAnswerSystem),
			User:   groundingMessage(q.Text, retrieved),
		}
	}
	req.Image = q.Image
	req.ImageMIME = q.ImageMIME

	text, err := s.completeWithRetry(ctx, req)
	if err != nil {
		return domain.Answer{}, err
	}

	if len(retrieved) == 0 {
		return domain.Answer{Text: text, Links: []domain.Link{}}, nil
	}
	return domain.Answer{Text: text, Links: citedLinks(text, retrieved)}, nil
}

// completeWithRetry makes one LLM attempt, plus one more after a delay
// when the first failure was transient.
func (s *AnswerService) completeWithRetry(ctx context.Context, req driven.CompletionRequest) (string, error) {
	text, err := s.llm.Complete(ctx, req)
	if err == nil {
		return text, nil
	}
	if !domain.IsTransient(err) {
		return "", fmt.Errorf("complete: %w", err)
	}

	logger.Debug("Transient LLM failure, retrying once: %v", err)
	if serr := sleepCtx(ctx, s.retryDelay); serr != nil {
		return "", serr
	}

	text, err = s.llm.Complete(ctx, req)
	if err != nil {
		return "", fmt.Errorf("complete (retry): %w", err)
	}
	return text, nil
}

// groundingMessage builds the user message: numbered context passages
// followed by the question. Passage numbers are what the model cites.
func groundingMessage(question string, retrieved []domain.RetrievedChunk) string {
	var b strings.Builder
	b.WriteString("Context passages:\n\n")
	for i, rc := range retrieved {
		fmt.Fprintf(&b, "[%d] %s (%s)\n%s\n\n", i+1, rc.Title, rc.URL, rc.Content)
	}
	b.WriteString("Question: ")
	b.WriteString(question)
	return b.String()
}

// citedLinks extracts the sources the answer actually used: every [n]
// marker in first-use order, deduplicated by URL.
func citedLinks(answer string, retrieved []domain.RetrievedChunk) []domain.Link {
	links := []domain.Link{}
	seen := make(map[string]bool)

	for _, match := range citationPattern.FindAllStringSubmatch(answer, -1) {
		n, err := strconv.Atoi(match[1])
		if err != nil || n < 1 || n > len(retrieved) {
			continue
		}
		rc := retrieved[n-1]
		if seen[rc.URL] {
			continue
		}
		seen[rc.URL] = true
		links = append(links, domain.Link{Title: rc.Title, URL: rc.URL})
	}
	return links
}

func (s *AnswerService) loadPrompt(name string) string {
	prompt, err := s.prompts.Load(name)
	if err != nil {
		logger.Warn("Load prompt %q: %v", name, err)
		return ""
	}
	return prompt
}
