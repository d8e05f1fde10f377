// Package prompt loads the assistant personas and fixed user-facing messages.
//
// A pack is a small YAML document. The built-in pack is embedded in the
// binary; operators can replace it wholesale with prompts.file.
package prompt

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"
)

//go:embed personas.yaml
var defaultPack []byte

// Pack holds the personas and messages the assistant speaks with.
type Pack struct {
	// Assistant is the system prompt for answering pilgrims.
	Assistant string `yaml:"assistant"`

	// Detector is the system prompt for language classification. It must
	// make the model answer with a single lowercase language name.
	Detector string `yaml:"detector"`

	// LanguageHint is a text/template rendered with .Code and .Name and
	// prepended to text-chat messages.
	LanguageHint string `yaml:"language_hint"`

	Errors Errors `yaml:"errors"`

	hint *template.Template
}

// Errors are the fixed apology strings returned to clients.
type Errors struct {
	Chat    string `yaml:"chat"`
	Voice   string `yaml:"voice"`
	Timeout string `yaml:"timeout"`
}

// Default returns the built-in pack. It panics if the embedded file is
// broken, which only a bad build can cause.
func Default() *Pack {
	p, err := Parse(defaultPack)
	if err != nil {
		panic("prompt: embedded personas.yaml is invalid: " + err.Error())
	}
	return p
}

// Load reads a pack from path. An empty path returns the built-in pack.
func Load(path string) (*Pack, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading prompt pack: %w", err)
	}
	p, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("prompt pack %s: %w", path, err)
	}
	return p, nil
}

// Parse decodes and validates a pack.
func Parse(data []byte) (*Pack, error) {
	var p Pack
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing yaml: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Validate checks that every field is set and the hint template parses.
func (p *Pack) Validate() error {
	var errs []error
	for name, v := range map[string]string{
		"assistant":      p.Assistant,
		"detector":       p.Detector,
		"language_hint":  p.LanguageHint,
		"errors.chat":    p.Errors.Chat,
		"errors.voice":   p.Errors.Voice,
		"errors.timeout": p.Errors.Timeout,
	} {
		if strings.TrimSpace(v) == "" {
			errs = append(errs, fmt.Errorf("%s must not be empty", name))
		}
	}
	if p.LanguageHint != "" {
		tmpl, err := template.New("language_hint").Option("missingkey=error").Parse(p.LanguageHint)
		if err != nil {
			errs = append(errs, fmt.Errorf("language_hint: %w", err))
		} else {
			p.hint = tmpl
		}
	}
	return errors.Join(errs...)
}

// Hint renders the language hint for code. name is the display name.
// A render failure falls back to the plain "[Language: code]" form.
func (p *Pack) Hint(code, name string) string {
	fallback := "[Language: " + code + "]\n"
	if p.hint == nil {
		return fallback
	}
	var sb strings.Builder
	if err := p.hint.Execute(&sb, struct{ Code, Name string }{code, name}); err != nil {
		return fallback
	}
	return sb.String()
}
