package models

import "encoding/json"

// Message is one turn of a stored conversation.
type Message struct {
	IsUser bool   `json:"isUser"`
	Text   string `json:"text"`

	Extra map[string]json.RawMessage `json:"-"`
}

func (m Message) MarshalJSON() ([]byte, error) {
	type alias Message
	return marshalWithExtra(alias(m), m.Extra)
}

func (m *Message) UnmarshalJSON(data []byte) error {
	type alias Message
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	extra, err := extraFields(data, "isUser", "text")
	if err != nil {
		return err
	}
	*m = Message(a)
	m.Extra = extra
	return nil
}

// Conversation is keyed by Timestamp (milliseconds since epoch). A record
// without a timestamp decodes as 0.
type Conversation struct {
	Timestamp int64     `json:"timestamp"`
	Messages  []Message `json:"messages"`

	Extra map[string]json.RawMessage `json:"-"`
}

func (c Conversation) MarshalJSON() ([]byte, error) {
	type alias Conversation
	a := alias(c)
	if a.Messages == nil {
		a.Messages = []Message{}
	}
	return marshalWithExtra(a, c.Extra)
}

func (c *Conversation) UnmarshalJSON(data []byte) error {
	type alias Conversation
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	extra, err := extraFields(data, "timestamp", "messages")
	if err != nil {
		return err
	}
	*c = Conversation(a)
	c.Extra = extra
	return nil
}

// ConversationInput is a save payload; it remembers whether timestamp and
// messages were supplied. A null timestamp counts as absent, a null
// messages key counts as supplied and is stored as an empty list.
type ConversationInput struct {
	Conversation
	HasTimestamp bool
	HasMessages  bool
}

func (in *ConversationInput) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	if err := json.Unmarshal(data, &in.Conversation); err != nil {
		return err
	}
	in.HasTimestamp = present(fields, "timestamp")
	_, in.HasMessages = fields["messages"]
	return nil
}
