// Package discovery turns the server's discovery document into a capability
// table and resolves action and type URIs against it on demand.
package discovery

import (
	"strings"
	"sync"

	"github.com/fivetwenty-io/vnc-client/pkg/vnc"
)

// Table maps action names and resource types to server-relative URIs.
type Table struct {
	mu      sync.RWMutex
	rootURL string
	parsed  bool
	actions map[string]string
	types   map[string]vnc.TypeEndpoints
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{
		actions: make(map[string]string),
		types:   make(map[string]vnc.TypeEndpoints),
	}
}

// Parse registers every link of doc. Later parses overwrite earlier entries.
func (t *Table) Parse(doc *vnc.DiscoveryDocument) {
	for _, wrapper := range doc.Links {
		link := wrapper.Link
		uri := strings.ReplaceAll(link.Href, doc.Href, "")

		switch link.Rel {
		case vnc.RelCollection:
			t.setType(link.Name, func(e *vnc.TypeEndpoints) { e.CreateURI = uri })
		case vnc.RelResourceBase:
			t.setType(link.Name, func(e *vnc.TypeEndpoints) { e.ResourceBase = uri })
		case vnc.RelAction:
			t.mu.Lock()
			t.actions[link.Name] = uri
			t.mu.Unlock()
		}
	}

	t.mu.Lock()
	t.rootURL = doc.Href
	t.parsed = true
	t.mu.Unlock()
}

func (t *Table) setType(name string, apply func(*vnc.TypeEndpoints)) {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry := t.types[name]
	apply(&entry)
	t.types[name] = entry
}

// Parsed reports whether a document has been parsed.
func (t *Table) Parsed() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.parsed
}

// RootURL returns the server's canonical root from the last parse.
func (t *Table) RootURL() string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.rootURL
}

// Action looks up an action URI.
func (t *Table) Action(name string) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	uri, ok := t.actions[name]

	return uri, ok
}

// Type looks up the endpoints of a resource type.
func (t *Table) Type(name string) (vnc.TypeEndpoints, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	e, ok := t.types[name]

	return e, ok
}

// Actions returns a copy of the action map.
func (t *Table) Actions() map[string]string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make(map[string]string, len(t.actions))
	for k, v := range t.actions {
		out[k] = v
	}

	return out
}

// Types returns a copy of the type map.
func (t *Table) Types() map[string]vnc.TypeEndpoints {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make(map[string]vnc.TypeEndpoints, len(t.types))
	for k, v := range t.types {
		out[k] = v
	}

	return out
}
