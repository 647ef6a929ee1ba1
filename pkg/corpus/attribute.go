package corpus

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// AttributeKind tags the variant held by an AttributeValue.
type AttributeKind int

const (
	AttrScalar AttributeKind = iota
	AttrList
	AttrInline
)

// AttributeValue is Scalar(string) | List([]string) | Inline(html string).
//
// JSON form: a scalar is a string, a list is an array of strings, and an
// inline fragment is {"html": "..."}.
type AttributeValue struct {
	Kind  AttributeKind
	Text  string
	Items []string
}

func Scalar(s string) AttributeValue { return AttributeValue{Kind: AttrScalar, Text: s} }
func List(items ...string) AttributeValue { return AttributeValue{Kind: AttrList, Items: items} }
func Inline(html string) AttributeValue { return AttributeValue{Kind: AttrInline, Text: html} }

// Strings returns the value as a list regardless of variant.
func (v AttributeValue) Strings() []string {
	if v.Kind == AttrList {
		return v.Items
	}
	if v.Text == "" {
		return nil
	}
	return []string{v.Text}
}

// IsEmpty reports whether the variant carries no content.
func (v AttributeValue) IsEmpty() bool {
	if v.Kind == AttrList {
		return len(v.Items) == 0
	}
	return v.Text == ""
}

type inlineJSON struct {
	HTML string `json:"html"`
}

func (v AttributeValue) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case AttrList:
		items := v.Items
		if items == nil {
			items = []string{}
		}
		return Encode(items)
	case AttrInline:
		return Encode(inlineJSON{HTML: v.Text})
	default:
		return Encode(v.Text)
	}
}

func (v *AttributeValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("attribute value: empty input")
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = Scalar(s)
	case '[':
		var items []string
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		*v = List(items...)
	case '{':
		var in inlineJSON
		if err := json.Unmarshal(data, &in); err != nil {
			return err
		}
		*v = Inline(in.HTML)
	default:
		return fmt.Errorf("attribute value: unsupported JSON %q", data)
	}
	return nil
}

// Attributes maps lowerCamelCase labels to values.
type Attributes map[string]AttributeValue

// Names is a relationship slot: a single name or several. It encodes as a
// JSON string when it holds exactly one entry and as an array otherwise.
type Names []string

func (n Names) MarshalJSON() ([]byte, error) {
	if len(n) == 1 {
		return Encode(n[0])
	}
	return Encode([]string(n))
}

func (n *Names) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*n = Names{s}
		return nil
	}
	var items []string
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	*n = items
	return nil
}

// Encode is json.Marshal without HTML escaping, so inline fragments and
// ampersands survive byte for byte. Non-ASCII text is never escaped.
func Encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
