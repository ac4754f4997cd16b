// Package extract locates correlation identifiers inside partner response
// documents whose layout is not guaranteed.
//
// Documents are the generic shapes produced by encoding/json: map[string]any,
// []any and scalars. The search is depth-first, visits map keys in sorted
// order, and is total: containers already on the current path are not
// re-entered and a depth limit bounds the rest. A node shared by two branches
// of an acyclic document is searched from both.
package extract

import (
	"encoding/json"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// Keys that must all be present on a node for it to qualify as a carrier.
const (
	KeyID       = "id"
	KeyMCNumber = "mcNumber"
	KeyName     = "name"
)

// DefaultMaxDepth bounds the traversal depth.
const DefaultMaxDepth = 64

// Match is the first qualifying node found.
type Match struct {
	ID       string
	MCNumber string
	Name     string
}

// Finder searches documents for a node carrying every key in Keys.
type Finder struct {
	// Keys lists the corroborating keys; the first one is the identifier.
	Keys []string

	// MaxDepth bounds recursion. Values below 1 use DefaultMaxDepth.
	MaxDepth int
}

// CarrierFinder matches nodes carrying id, mcNumber and name.
var CarrierFinder = Finder{Keys: []string{KeyID, KeyMCNumber, KeyName}}

// FindCorrelated returns the carrier node of a carrier-list response.
func FindCorrelated(doc any) (Match, bool) {
	node, ok := CarrierFinder.Find(doc)
	if !ok {
		return Match{}, false
	}
	return Match{
		ID:       Scalar(node[KeyID]),
		MCNumber: Scalar(node[KeyMCNumber]),
		Name:     Scalar(node[KeyName]),
	}, true
}

// Find returns the first map node, in traversal order, that carries every key
// with a non-empty identifier.
func (f Finder) Find(doc any) (map[string]any, bool) {
	if len(f.Keys) == 0 {
		return nil, false
	}
	maxDepth := f.MaxDepth
	if maxDepth < 1 {
		maxDepth = DefaultMaxDepth
	}
	w := walker{keys: f.Keys, maxDepth: maxDepth, path: make(map[container]struct{})}
	return w.visit(doc, 0)
}

type walker struct {
	keys     []string
	maxDepth int
	path     map[container]struct{}
}

// container identifies a map or slice on the current path. Slices carry their
// length so views sharing a backing array stay distinct.
type container struct {
	p uintptr
	n int
}

func (w *walker) visit(node any, depth int) (map[string]any, bool) {
	if depth > w.maxDepth {
		return nil, false
	}

	switch v := node.(type) {
	case map[string]any:
		id := container{p: reflect.ValueOf(v).Pointer(), n: -1}
		if v == nil || !w.enter(id) {
			return nil, false
		}
		defer w.leave(id)
		if w.qualifies(v) {
			return v, true
		}
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if m, ok := w.visit(v[k], depth+1); ok {
				return m, true
			}
		}
	case []any:
		id := container{p: reflect.ValueOf(v).Pointer(), n: len(v)}
		if len(v) == 0 || !w.enter(id) {
			return nil, false
		}
		defer w.leave(id)
		for _, item := range v {
			if m, ok := w.visit(item, depth+1); ok {
				return m, true
			}
		}
	}
	return nil, false
}

// enter pushes c on the current path. It reports false when c is already an
// ancestor, which means the document is cyclic.
func (w *walker) enter(c container) bool {
	if _, ok := w.path[c]; ok {
		return false
	}
	w.path[c] = struct{}{}
	return true
}

func (w *walker) leave(c container) {
	delete(w.path, c)
}

func (w *walker) qualifies(m map[string]any) bool {
	for _, k := range w.keys {
		if _, ok := m[k]; !ok {
			return false
		}
	}
	return Scalar(m[w.keys[0]]) != ""
}

// Scalar renders a decoded JSON scalar as a string. Containers and null render
// as "". Floats that hold integers render without an exponent.
func Scalar(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(s)
	case json.Number:
		return s.String()
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(s), 'f', -1, 32)
	case int:
		return strconv.Itoa(s)
	case int64:
		return strconv.FormatInt(s, 10)
	case bool:
		return strconv.FormatBool(s)
	default:
		return ""
	}
}
