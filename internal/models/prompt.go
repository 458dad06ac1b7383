package models

import "encoding/json"

type Prompt struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Category   string `json:"category"`
	Text       string `json:"text"`
	IsFavorite bool   `json:"isFavorite"`

	Extra map[string]json.RawMessage `json:"-"`
}

var promptFields = []string{"id", "title", "category", "text", "isFavorite"}

// Text fields holding some other JSON value are kept verbatim in Extra.
var looseTextFields = []string{"title", "category", "text"}

func (p Prompt) MarshalJSON() ([]byte, error) {
	type alias Prompt
	return marshalWithExtra(alias(p), p.Extra)
}

func (p *Prompt) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	loose := make(map[string]json.RawMessage)
	for _, k := range looseTextFields {
		if raw, ok := fields[k]; ok && present(fields, k) && !isString(raw) {
			loose[k] = raw
			delete(fields, k)
		}
	}
	if len(loose) > 0 {
		stripped, err := json.Marshal(fields)
		if err != nil {
			return err
		}
		data = stripped
	}

	type alias Prompt
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	extra, err := extraFields(data, promptFields...)
	if err != nil {
		return err
	}
	for k, v := range loose {
		if extra == nil {
			extra = make(map[string]json.RawMessage, len(loose))
		}
		extra[k] = v
	}
	*p = Prompt(a)
	p.Extra = extra
	return nil
}

// PromptInput is a create/replace payload. Required fields are tracked by
// presence, not by value, so an empty title is accepted but a missing one is not.
type PromptInput struct {
	Prompt
	missing []string
}

var requiredPromptFields = []string{"title", "category", "text"}

func (in *PromptInput) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	if err := json.Unmarshal(data, &in.Prompt); err != nil {
		return err
	}
	in.missing = nil
	for _, k := range requiredPromptFields {
		if !present(fields, k) {
			in.missing = append(in.missing, k)
		}
	}
	return nil
}

// Missing lists required fields absent from the decoded payload.
func (in PromptInput) Missing() []string {
	return in.missing
}

type FavoriteRequest struct {
	PromptID string `json:"promptId"`
	Action   string `json:"action"` // "add" | "remove"
}

const (
	FavoriteAdd    = "add"
	FavoriteRemove = "remove"
)
