package file

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/coursetta-labs/coursetta/internal/core/ports/driven"
)

var _ driven.PromptStore = (*PromptStore)(nil)

// PromptStore serves answer prompts from user-editable .txt files,
// falling back to the embedded defaults below. The prompt directory is
// created lazily on first Load, seeded with the defaults and a README,
// so constructing a store performs no I/O.
type PromptStore struct {
	dir string

	mu    sync.RWMutex
	cache map[string]string

	seed    sync.Once
	seedErr error
}

var defaultPrompts = map[string]string{
	driven.PromptAnswerSystem: `You are a teaching assistant for this course. Answer the student's question using ONLY the numbered context passages provided in the message.

Rules:
1. Ground every claim in the context. After a claim, cite the passage that supports it as [n], where n is the passage number.
2. If the context does not contain the answer, say so plainly. Do not invent course policies, deadlines, or facts.
3. If an image is attached, describe what is relevant in it and relate it to the context.
4. Be concise. Students want the answer, not an essay.`,

	driven.PromptAnswerGeneral: `You are a teaching assistant for this course. No course material matched the student's question, so answer from general knowledge.

Rules:
1. State up front that the course material does not cover this.
2. Do not fabricate course-specific policies, deadlines, or facts.
3. Be concise and helpful.`,
}

const promptsReadme = `# Coursetta Prompts

This directory contains customisable prompts used when answering questions.

## Files

- ` + "`answer_system.txt`" + ` - Grounds answers in retrieved course material
- ` + "`answer_general.txt`" + ` - Used when no course material matched the question

## Customisation

Edit any file to customise answer behaviour. Changes take effect on the next
question after a restart or prompt reload.

Keep the citation rule in answer_system.txt: answers cite passages as [n]
and the citation markers are how source links get attached to answers.
`

// NewPromptStore returns a store rooted at dir, or ~/.coursetta/prompts
// when dir is empty.
func NewPromptStore(dir string) (*PromptStore, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		dir = filepath.Join(home, ".coursetta", "prompts")
	}
	return &PromptStore{dir: dir, cache: make(map[string]string)}, nil
}

// Load returns the prompt template for name. Results are cached until
// Reload; a missing or unreadable file falls back to the embedded
// default for that name.
func (s *PromptStore) Load(name string) (string, error) {
	s.seed.Do(s.seedDir)
	if s.seedErr != nil {
		if text, ok := defaultPrompts[name]; ok {
			return text, nil
		}
		return "", fmt.Errorf("prompt store init failed: %w", s.seedErr)
	}

	s.mu.RLock()
	text, ok := s.cache[name]
	s.mu.RUnlock()
	if ok {
		return text, nil
	}

	data, err := os.ReadFile(filepath.Join(s.dir, name+".txt"))
	if err != nil {
		if text, ok := defaultPrompts[name]; ok {
			return text, nil
		}
		return "", fmt.Errorf("load prompt %q: %w", name, err)
	}
	text = strings.TrimSpace(string(data))

	s.mu.Lock()
	// Another goroutine may have read a different edit of the file;
	// keep whichever got cached first so callers see one version.
	if cached, ok := s.cache[name]; ok {
		text = cached
	} else {
		s.cache[name] = text
	}
	s.mu.Unlock()

	return text, nil
}

// Reload drops the cache so the next Load re-reads the files.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	s.cache = make(map[string]string)
	s.mu.Unlock()
}

// Dir returns the prompt directory path.
func (s *PromptStore) Dir() string {
	return s.dir
}

// seedDir creates the prompt directory with the default prompt files
// and a README. Existing files are left alone.
func (s *PromptStore) seedDir() {
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		s.seedErr = fmt.Errorf("create prompt directory: %w", err)
		return
	}
	for name, text := range defaultPrompts {
		if err := writeIfAbsent(filepath.Join(s.dir, name+".txt"), text); err != nil {
			s.seedErr = fmt.Errorf("seed prompt %q: %w", name, err)
			return
		}
	}
	if err := writeIfAbsent(filepath.Join(s.dir, "README.md"), promptsReadme); err != nil {
		s.seedErr = err
	}
}

func writeIfAbsent(path, content string) error {
	if _, err := os.Stat(path); err == nil || !os.IsNotExist(err) {
		return nil
	}
	return os.WriteFile(path, []byte(content), 0600)
}
