// Package schema builds schema.org JSON-LD objects from domain records.
package schema

import (
	"encoding/json"
	"reflect"
	"strings"
)

const Context = "https://schema.org"

// Object is one JSON-LD node.
type Object map[string]any

// Type returns the node's @type.
func (o Object) Type() string {
	s, _ := o["@type"].(string)
	return s
}

// set stores v unless it is a zero value; absent source fields never reach the output.
func (o Object) set(key string, v any) Object {
	if isZero(v) {
		return o
	}
	o[key] = v
	return o
}

func node(typ string) Object {
	return Object{"@type": typ}
}

func root(typ string) Object {
	return Object{"@context": Context, "@type": typ}
}

func isZero(v any) bool {
	if v == nil {
		return true
	}
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t) == ""
	case Object:
		return len(t) == 0
	case []Object:
		return len(t) == 0
	case []string:
		return len(t) == 0
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map:
		return rv.Len() == 0
	case reflect.Ptr, reflect.Interface:
		return rv.IsNil()
	}
	return rv.IsZero()
}

// compact drops empty entries while preserving order.
func compact(vals ...string) []string {
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}

// Graph is the structured data embedded in one page. A single node
// serialises as an object, several as an array.
type Graph []Object

func (g Graph) MarshalJSON() ([]byte, error) {
	if len(g) == 1 {
		return json.Marshal(map[string]any(g[0]))
	}
	return json.Marshal([]Object(g))
}

// Indent pretty-prints the graph for inlining into a document.
func (g Graph) Indent() (string, error) {
	b, err := json.MarshalIndent(g, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Types lists the @type of every node in order.
func (g Graph) Types() []string {
	out := make([]string, 0, len(g))
	for _, o := range g {
		out = append(out, o.Type())
	}
	return out
}
