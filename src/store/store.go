// Package store persists bundles and answers faceted queries over them.
package store

import (
	"context"

	"github.com/catalogue-registry/registry/src/catalogue"
)

// Namespace separates drafts from their public mirrors
type Namespace string

const (
	NamespaceDraft  Namespace = "draft"
	NamespacePublic Namespace = "public"
)

type Store interface {
	// Returns catalogue.ErrNotFound when there's no such bundle
	Get(ctx context.Context, t catalogue.EntityType, id, catalogueId string) (*catalogue.Bundle, error)

	Query(ctx context.Context, filter *FacetFilter) (*Paging, error)

	// Full state upsert keyed by type, id and catalogue
	Upsert(ctx context.Context, bundle *catalogue.Bundle) error

	// Returns catalogue.ErrNotFound when there's no such bundle
	Delete(ctx context.Context, t catalogue.EntityType, id, catalogueId string) error
}
