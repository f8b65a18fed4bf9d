package discovery

import (
	"context"
	"fmt"

	"github.com/fivetwenty-io/vnc-client/pkg/vnc"
)

// Loader fetches the discovery document. It must not go through the
// resolver and must not apply status-code retries.
type Loader func(ctx context.Context) (*vnc.DiscoveryDocument, error)

// Resolver is a cache-with-loader over a Table.
type Resolver struct {
	table  *Table
	loader Loader
}

// NewResolver creates a resolver over table.
func NewResolver(table *Table, loader Loader) *Resolver {
	return &Resolver{table: table, loader: loader}
}

// Table returns the underlying table.
func (r *Resolver) Table() *Table {
	return r.table
}

// Refresh fetches and parses the discovery document unconditionally.
func (r *Resolver) Refresh(ctx context.Context) (*vnc.DiscoveryDocument, error) {
	doc, err := r.loader(ctx)
	if err != nil {
		return nil, err
	}

	r.table.Parse(doc)

	return doc, nil
}

// EnsureLoaded fetches the discovery document only when none has been parsed.
func (r *Resolver) EnsureLoaded(ctx context.Context) error {
	if r.table.Parsed() {
		return nil
	}

	_, err := r.Refresh(ctx)

	return err
}

// Action returns the URI of an action, refetching the document once on a miss.
func (r *Resolver) Action(ctx context.Context, name string) (string, error) {
	uri, err := getOrFetch(ctx, r, func() (string, bool) { return r.table.Action(name) })
	if err != nil {
		return "", err
	}

	if uri == "" {
		return "", fmt.Errorf("%w: %s", vnc.ErrUnresolvableAction, name)
	}

	return uri, nil
}

// CreateURI returns the collection URI of a resource type.
func (r *Resolver) CreateURI(ctx context.Context, objType string) (string, error) {
	return r.typeURI(ctx, objType, func(e vnc.TypeEndpoints) string { return e.CreateURI })
}

// ResourceBase returns the item URI prefix of a resource type.
func (r *Resolver) ResourceBase(ctx context.Context, objType string) (string, error) {
	return r.typeURI(ctx, objType, func(e vnc.TypeEndpoints) string { return e.ResourceBase })
}

func (r *Resolver) typeURI(ctx context.Context, objType string, pick func(vnc.TypeEndpoints) string) (string, error) {
	uri, err := getOrFetch(ctx, r, func() (string, bool) {
		e, ok := r.table.Type(objType)
		if !ok || pick(e) == "" {
			return "", false
		}

		return pick(e), true
	})
	if err != nil {
		return "", err
	}

	if uri == "" {
		return "", fmt.Errorf("%w: %s", vnc.ErrUnresolvableType, objType)
	}

	return uri, nil
}

// getOrFetch does lookup, one refresh on miss, and a final lookup. A second
// miss returns "" with no error.
func getOrFetch(ctx context.Context, r *Resolver, lookup func() (string, bool)) (string, error) {
	if v, ok := lookup(); ok {
		return v, nil
	}

	_, err := r.Refresh(ctx)
	if err != nil {
		return "", fmt.Errorf("refreshing discovery document: %w", err)
	}

	v, _ := lookup()

	return v, nil
}
