// Package language holds the registry of supported languages and the
// resolver that classifies incoming text into one of them.
package language

import "strings"

// Language is one supported language.
type Language struct {
	Code        string `json:"code"`
	DisplayName string `json:"display_name"`
}

// supported is the fixed registry, in presentation order.
var supported = []Language{
	{Code: "en", DisplayName: "English"},
	{Code: "hi", DisplayName: "Hindi (हिंदी)"},
	{Code: "mr", DisplayName: "Marathi (मराठी)"},
	{Code: "ta", DisplayName: "Tamil (தமிழ்)"},
	{Code: "te", DisplayName: "Telugu (తెలుగు)"},
	{Code: "bn", DisplayName: "Bengali (বাংলা)"},
	{Code: "gu", DisplayName: "Gujarati (ગુજરાતી)"},
}

// labels maps the single lowercase word the detector persona answers with to
// a registry code.
var labels = map[string]string{
	"english":  "en",
	"hindi":    "hi",
	"marathi":  "mr",
	"tamil":    "ta",
	"telugu":   "te",
	"bengali":  "bn",
	"gujarati": "gu",
}

// DefaultCode is the code used when nothing else is configured.
const DefaultCode = "en"

// All returns a copy of the registry.
func All() []Language {
	out := make([]Language, len(supported))
	copy(out, supported)
	return out
}

// Codes returns the registry codes in presentation order.
func Codes() []string {
	out := make([]string, len(supported))
	for i, l := range supported {
		out[i] = l.Code
	}
	return out
}

// Names returns code -> display name.
func Names() map[string]string {
	out := make(map[string]string, len(supported))
	for _, l := range supported {
		out[l.Code] = l.DisplayName
	}
	return out
}

// DisplayNames returns the display names in presentation order.
func DisplayNames() []string {
	out := make([]string, len(supported))
	for i, l := range supported {
		out[i] = l.DisplayName
	}
	return out
}

// Lookup returns the language registered under code.
func Lookup(code string) (Language, bool) {
	for _, l := range supported {
		if l.Code == code {
			return l, true
		}
	}
	return Language{}, false
}

// IsSupported reports whether code is in the registry.
func IsSupported(code string) bool {
	_, ok := Lookup(code)
	return ok
}

// DisplayName returns the display name for code, or code itself when it is
// not registered.
func DisplayName(code string) string {
	if l, ok := Lookup(code); ok {
		return l.DisplayName
	}
	return code
}

// CodeForLabel maps a detector answer such as " Hindi\n" to its code.
func CodeForLabel(label string) (string, bool) {
	code, ok := labels[strings.ToLower(strings.TrimSpace(label))]
	return code, ok
}
