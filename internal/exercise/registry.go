package exercise

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// UnknownExerciseError reports a lookup for an exercise the registry does not
// hold. Surfaced at session start, before any frame is scored.
type UnknownExerciseError struct {
	ExerciseID string
}

func (e *UnknownExerciseError) Error() string {
	return fmt.Sprintf("unknown exercise: %q", e.ExerciseID)
}

// Registry resolves exercise IDs to templates. Seeded with the builtin
// exercises and optionally extended from a JSON file at startup; read-only
// afterwards, so lookups need no locking and may run concurrently across
// sessions.
type Registry struct {
	templates map[string]*Template
	ids       []string
}

// NewRegistry returns a registry seeded with the builtin templates. Panics
// if a builtin fails validation, which indicates a compile-time data bug.
func NewRegistry() *Registry {
	r := &Registry{templates: make(map[string]*Template)}
	for _, t := range builtinTemplates() {
		if err := t.Validate(); err != nil {
			panic(fmt.Sprintf("exercise: builtin template invalid: %v", err))
		}
		r.insert(t)
	}
	return r
}

func (r *Registry) insert(t *Template) {
	if _, exists := r.templates[t.ExerciseID]; !exists {
		r.ids = append(r.ids, t.ExerciseID)
	}
	r.templates[t.ExerciseID] = t
}

// Lookup returns the template for exerciseID or an UnknownExerciseError.
func (r *Registry) Lookup(exerciseID string) (*Template, error) {
	t, ok := r.templates[exerciseID]
	if !ok {
		return nil, &UnknownExerciseError{ExerciseID: exerciseID}
	}
	return t, nil
}

// IDs returns the registered exercise IDs in registration order: builtins
// first, then file-loaded additions.
func (r *Registry) IDs() []string {
	out := make([]string, len(r.ids))
	copy(out, r.ids)
	return out
}

// LoadFile extends the registry from a JSON array of templates, overriding
// builtins that share an exercise ID. Must be called during startup, before
// the registry is shared across goroutines.
func (r *Registry) LoadFile(path string) error {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return fmt.Errorf("template file must have .json extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return fmt.Errorf("failed to stat template file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return fmt.Errorf("template file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return fmt.Errorf("failed to read template file: %w", err)
	}

	var loaded []*Template
	if err := json.Unmarshal(data, &loaded); err != nil {
		return fmt.Errorf("failed to parse template JSON: %w", err)
	}

	for _, t := range loaded {
		if err := t.Validate(); err != nil {
			return fmt.Errorf("invalid template in %s: %w", cleanPath, err)
		}
	}
	for _, t := range loaded {
		r.insert(t)
	}
	return nil
}
