package meta

import (
	"html"
	"strings"
)

type Kind int

const (
	KindTitle Kind = iota
	KindName
	KindProperty
	KindLink
)

// Tag is one head entry. Key is the tag's name, property or link rel.
type Tag struct {
	Kind  Kind
	Key   string
	Value string
}

// Tags keeps insertion order; keys may repeat (article:tag).
type Tags []Tag

// Get returns the first value stored under key.
func (t Tags) Get(key string) (string, bool) {
	for _, tag := range t {
		if tag.Key == key {
			return tag.Value, true
		}
	}
	return "", false
}

func (t Tags) Keys() []string {
	out := make([]string, 0, len(t))
	for _, tag := range t {
		out = append(out, tag.Key)
	}
	return out
}

// Map flattens the tags; for repeated keys the first value wins.
func (t Tags) Map() map[string]string {
	out := make(map[string]string, len(t))
	for _, tag := range t {
		if _, ok := out[tag.Key]; !ok {
			out[tag.Key] = tag.Value
		}
	}
	return out
}

// HTML renders the tags as head markup, one element per line.
func (t Tags) HTML() string {
	var b strings.Builder
	for _, tag := range t {
		b.WriteString(tag.HTML())
		b.WriteByte('\n')
	}
	return b.String()
}

func (tag Tag) HTML() string {
	k, v := html.EscapeString(tag.Key), html.EscapeString(tag.Value)
	switch tag.Kind {
	case KindTitle:
		return "<title>" + v + "</title>"
	case KindProperty:
		return `<meta property="` + k + `" content="` + v + `">`
	case KindLink:
		return `<link rel="` + k + `" href="` + v + `">`
	default:
		return `<meta name="` + k + `" content="` + v + `">`
	}
}

type builder struct {
	tags Tags
}

func (b *builder) add(kind Kind, key, value string) {
	b.tags = append(b.tags, Tag{Kind: kind, Key: key, Value: value})
}

// addIf skips empty values so optional fields are simply omitted.
func (b *builder) addIf(kind Kind, key, value string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	b.add(kind, key, value)
}
