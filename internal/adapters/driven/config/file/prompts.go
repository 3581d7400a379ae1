package file

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/custodia-labs/clausesense/internal/core/ports/driven"
)

// Ensure PromptStore implements the interface.
var _ driven.PromptStore = (*PromptStore)(nil)

// DefaultPrompts are used when no override file exists.
//
//nolint:lll // Prompt content is intentionally long and should not be wrapped.
var DefaultPrompts = map[string]string{
	driven.PromptSummary: `Summarise the key terms of this contract in plain English for a small-business buyer.
Use only the clauses provided. Cover term and renewal, termination, liability cap, indemnity, data and privacy, payment and service levels where present.
Return bullet points.

RISK FINDINGS:
%s

CLAUSES:
%s`,

	driven.PromptNegotiation: `Write a professional negotiation email to the vendor requesting changes based on the risks found.
Include a short introduction, the requested changes as bullets, and proposed fallback language as bullets.
Quote the cited clause text when you refer to it.

RISK FINDINGS:
%s

CITED CLAUSES:
%s`,

	driven.PromptChatSystem: `You are a contract review assistant.
Answer the user's question based ONLY on the provided contract context.
If the answer is not in the context, say "I cannot find that information in the contract."
Do not provide general legal advice.`,
}

// PromptStore loads prompt templates from <dir>/<name>.txt, falling back to
// DefaultPrompts. Loaded files are cached until Reload.
type PromptStore struct {
	mu    sync.RWMutex
	dir   string
	cache map[string]string
}

// NewPromptStore creates a prompt store reading from dir.
// If dir is empty, <DefaultConfigDir>/prompts is used. No I/O happens here.
func NewPromptStore(dir string) (*PromptStore, error) {
	if dir == "" {
		base, err := DefaultConfigDir()
		if err != nil {
			return nil, err
		}
		dir = filepath.Join(base, "prompts")
	}
	return &PromptStore{dir: dir, cache: make(map[string]string)}, nil
}

// Load returns the template for name.
func (s *PromptStore) Load(name string) (string, error) {
	s.mu.RLock()
	prompt, ok := s.cache[name]
	s.mu.RUnlock()
	if ok {
		return prompt, nil
	}

	data, err := os.ReadFile(filepath.Join(s.dir, name+".txt"))
	switch {
	case err == nil && strings.TrimSpace(string(data)) != "":
		prompt = strings.TrimSpace(string(data))
	case err == nil, errors.Is(err, os.ErrNotExist):
		def, ok := DefaultPrompts[name]
		if !ok {
			return "", fmt.Errorf("prompt %q: %w", name, os.ErrNotExist)
		}
		prompt = def
	default:
		return "", fmt.Errorf("read prompt %q: %w", name, err)
	}

	s.mu.Lock()
	s.cache[name] = prompt
	s.mu.Unlock()
	return prompt, nil
}

// Reload clears the cache so edited files are picked up.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	s.cache = make(map[string]string)
	s.mu.Unlock()
}

// Dir returns the prompt directory.
func (s *PromptStore) Dir() string {
	return s.dir
}

// WriteDefaults creates the prompt directory and writes every default
// template that does not exist yet, so users have files to edit.
func (s *PromptStore) WriteDefaults() error {
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return fmt.Errorf("create prompt directory: %w", err)
	}
	for name, content := range DefaultPrompts {
		path := filepath.Join(s.dir, name+".txt")
		if _, err := os.Stat(path); err == nil {
			continue
		}
		if err := os.WriteFile(path, []byte(content+"\n"), 0600); err != nil {
			return fmt.Errorf("write prompt %q: %w", name, err)
		}
	}
	return nil
}
