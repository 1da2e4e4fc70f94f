package types

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// OptionSet is an ordered letter -> text mapping of choice options.
// Keys are unique and keep presentation order.
type OptionSet struct {
	keys   []string
	values map[string]string
}

// Option is a single entry of an OptionSet.
type Option struct {
	Key  string `json:"key" yaml:"key"`
	Text string `json:"text" yaml:"text"`
}

// NewOptionSet builds a set from options in presentation order. A repeated
// key keeps its first position and takes the last text.
func NewOptionSet(opts ...Option) *OptionSet {
	s := &OptionSet{}
	for _, o := range opts {
		s.Set(o.Key, o.Text)
	}
	return s
}

// Set adds or replaces the option for key.
func (s *OptionSet) Set(key, text string) {
	if s.values == nil {
		s.values = make(map[string]string)
	}
	if _, ok := s.values[key]; !ok {
		s.keys = append(s.keys, key)
	}
	s.values[key] = text
}

// Get returns the option text for key.
func (s *OptionSet) Get(key string) (string, bool) {
	if s == nil {
		return "", false
	}
	v, ok := s.values[key]
	return v, ok
}

// Len returns the number of options.
func (s *OptionSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.keys)
}

// Entries returns the options in presentation order.
func (s *OptionSet) Entries() []Option {
	if s == nil {
		return nil
	}
	out := make([]Option, 0, len(s.keys))
	for _, k := range s.keys {
		out = append(out, Option{Key: k, Text: s.values[k]})
	}
	return out
}

// MarshalJSON encodes the set as a JSON object whose members keep
// presentation order.
func (s *OptionSet) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range s.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(s.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object, keeping member order.
func (s *OptionSet) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("options: expected object, got %v", tok)
	}
	*s = OptionSet{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := tok.(string)
		var text string
		if err := dec.Decode(&text); err != nil {
			return fmt.Errorf("options: value of %q: %w", key, err)
		}
		s.Set(key, text)
	}
	_, err = dec.Token()
	return err
}

// CheckpointContext describes the active checkpoint at the moment of
// extraction. It is rebuilt on every extraction and never persisted.
//
// Options is only set for CHOICE; Code and BaseCode only for CODE.
type CheckpointContext struct {
	Type     CheckpointType `json:"checkpointType,omitempty"`
	Question string         `json:"checkpointQuestion,omitempty"`
	Options  *OptionSet     `json:"checkpointOptions,omitempty"`
	Code     string         `json:"code,omitempty"`
	BaseCode string         `json:"baseCode,omitempty"`
}

// Empty reports whether no field of the context is populated.
func (c *CheckpointContext) Empty() bool {
	return c == nil || (c.Type == "" && c.Question == "" && c.Options.Len() == 0 && c.Code == "" && c.BaseCode == "")
}
