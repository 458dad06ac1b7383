package models

import "strings"

// Settings is the flat user-editable settings document. Keys the backend
// does not know are stored and returned untouched.
type Settings map[string]any

const (
	SettingModel        = "model"
	SettingOllamaURL    = "ollama_url"
	SettingTemperature  = "temperature"
	SettingMaxLength    = "max_length"
	SettingSystemPrompt = "system_prompt"
)

const (
	DefaultTemperature = 0.7
	DefaultMaxLength   = 500
)

// DefaultSettings is written when no settings document exists yet.
func DefaultSettings() Settings {
	return Settings{
		SettingModel:        "mistral:latest",
		SettingOllamaURL:    "http://localhost:11434",
		SettingTemperature:  DefaultTemperature,
		SettingMaxLength:    DefaultMaxLength,
		SettingSystemPrompt: "Vous êtes un assistant IA serviable.",
	}
}

func (s Settings) Clone() Settings {
	out := make(Settings, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

func (s Settings) Model() string {
	v, _ := s[SettingModel].(string)
	return v
}

func (s Settings) OllamaURL() string {
	v, _ := s[SettingOllamaURL].(string)
	return strings.TrimRight(strings.TrimSpace(v), "/")
}

func (s Settings) Temperature() float64 {
	if v, ok := number(s[SettingTemperature]); ok {
		return v
	}
	return DefaultTemperature
}

func (s Settings) MaxLength() int {
	if v, ok := number(s[SettingMaxLength]); ok {
		return int(v)
	}
	return DefaultMaxLength
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
