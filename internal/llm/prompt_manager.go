// Package llm implements the generative review model: prompt rendering,
// model invocation and response parsing.
package llm

import (
	"bytes"
	"embed"
	"fmt"
	"path/filepath"
	"strings"
	"text/template"
)

//go:embed prompts/*.prompt
var promptFiles embed.FS

type ModelProvider string
type PromptKey string

const (
	DefaultProvider ModelProvider = "default"

	FileReviewPrompt PromptKey = "file_review"
	MetaReviewPrompt PromptKey = "meta_review"
)

// PromptManager is the process-lifetime prompt cache. Templates are parsed
// once at construction from the embedded files and never invalidated; the
// manager is passed by reference to whatever needs to render a prompt.
type PromptManager struct {
	prompts map[PromptKey]map[ModelProvider]*template.Template
}

// NewPromptManager parses all embedded prompt templates. File names follow
// the "key_provider.prompt" convention.
func NewPromptManager() (*PromptManager, error) {
	pm := &PromptManager{
		prompts: make(map[PromptKey]map[ModelProvider]*template.Template),
	}

	files, err := promptFiles.ReadDir("prompts")
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded prompts directory: %w", err)
	}

	for _, file := range files {
		if file.IsDir() {
			continue
		}

		fileName := file.Name()
		baseName := strings.TrimSuffix(fileName, filepath.Ext(fileName))
		lastUnderscore := strings.LastIndex(baseName, "_")
		if lastUnderscore <= 0 || lastUnderscore == len(baseName)-1 {
			return nil, fmt.Errorf("invalid prompt filename format: %s (expected 'key_provider.prompt')", fileName)
		}

		key := PromptKey(baseName[:lastUnderscore])
		provider := ModelProvider(baseName[lastUnderscore+1:])

		content, err := promptFiles.ReadFile("prompts/" + fileName)
		if err != nil {
			return nil, fmt.Errorf("failed to read embedded prompt file %s: %w", fileName, err)
		}

		tmpl, err := template.New(fileName).Parse(string(content))
		if err != nil {
			return nil, fmt.Errorf("failed to parse prompt template %s: %w", fileName, err)
		}

		if pm.prompts[key] == nil {
			pm.prompts[key] = make(map[ModelProvider]*template.Template)
		}
		pm.prompts[key][provider] = tmpl
	}

	if len(pm.prompts) == 0 {
		return nil, fmt.Errorf("no prompt templates found")
	}
	return pm, nil
}

// Render executes the template for key and provider with the given data.
// When no provider-specific template exists, the default one is used.
func (pm *PromptManager) Render(key PromptKey, provider ModelProvider, data any) (string, error) {
	byProvider, ok := pm.prompts[key]
	if !ok {
		return "", fmt.Errorf("unknown prompt key: %s", key)
	}

	tmpl, ok := byProvider[provider]
	if !ok {
		tmpl, ok = byProvider[DefaultProvider]
		if !ok {
			return "", fmt.Errorf("no template for prompt %s and provider %s", key, provider)
		}
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render prompt %s: %w", key, err)
	}
	return buf.String(), nil
}
