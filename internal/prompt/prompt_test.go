package prompt

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode"
)

func TestDefault(t *testing.T) {
	p := Default()
	if !strings.Contains(p.Assistant, "Nashik Kumbh Mela 2027") {
		t.Errorf("assistant persona does not mention the event")
	}
	if !strings.Contains(p.Detector, "english, hindi, marathi, tamil, telugu, bengali, gujarati") {
		t.Errorf("detector persona does not list the labels")
	}
	if p.Errors.Chat == p.Errors.Voice {
		t.Errorf("chat and voice apologies should differ")
	}
}

func TestDefault_ApologiesCoverEveryScript(t *testing.T) {
	scripts := map[string]*unicode.RangeTable{
		"Latin":      unicode.Latin,
		"Devanagari": unicode.Devanagari,
		"Tamil":      unicode.Tamil,
		"Telugu":     unicode.Telugu,
		"Bengali":    unicode.Bengali,
		"Gujarati":   unicode.Gujarati,
	}
	p := Default()
	for name, msg := range map[string]string{
		"chat":    p.Errors.Chat,
		"voice":   p.Errors.Voice,
		"timeout": p.Errors.Timeout,
	} {
		// One segment per registry language: en hi mr ta te bn gu.
		if n := len(strings.Split(msg, " | ")); n != 7 {
			t.Errorf("errors.%s has %d segments, want 7", name, n)
		}
		for script, table := range scripts {
			if !strings.ContainsFunc(msg, func(r rune) bool { return unicode.Is(table, r) }) {
				t.Errorf("errors.%s has no %s text", name, script)
			}
		}
	}
}

func TestHint(t *testing.T) {
	p := Default()
	if got, want := p.Hint("hi", "Hindi (हिंदी)"), "[Language: hi]\n"; got != want {
		t.Errorf("Hint = %q, want %q", got, want)
	}
}

func TestHint_CustomTemplate(t *testing.T) {
	p := Default()
	p.LanguageHint = "Answer in {{.Name}}.\n"
	if err := p.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if got, want := p.Hint("mr", "Marathi"), "Answer in Marathi.\n"; got != want {
		t.Errorf("Hint = %q, want %q", got, want)
	}
}

func TestValidate_Missing(t *testing.T) {
	_, err := Parse([]byte("assistant: hello\n"))
	if err == nil {
		t.Fatal("expected error for incomplete pack")
	}
	for _, key := range []string{"detector", "language_hint", "errors.chat", "errors.voice", "errors.timeout"} {
		if !strings.Contains(err.Error(), key) {
			t.Errorf("error %q does not mention %s", err, key)
		}
	}
}

func TestValidate_BadTemplate(t *testing.T) {
	p := Default()
	p.LanguageHint = "{{.Code"
	if err := p.Validate(); err == nil {
		t.Fatal("expected template parse error")
	}
}

func TestLoad(t *testing.T) {
	t.Run("empty path", func(t *testing.T) {
		p, err := Load("")
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if p.Assistant == "" {
			t.Error("expected built-in pack")
		}
	})

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "personas.yaml")
		data := `assistant: be brief
detector: answer with one word
language_hint: "<{{.Code}}> "
errors:
  chat: chat failed
  voice: voice failed
  timeout: too slow
`
		if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
			t.Fatal(err)
		}
		p, err := Load(path)
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if p.Assistant != "be brief" {
			t.Errorf("Assistant = %q", p.Assistant)
		}
		if got := p.Hint("ta", "Tamil"); got != "<ta> " {
			t.Errorf("Hint = %q", got)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
			t.Fatal("expected error")
		}
	})
}
