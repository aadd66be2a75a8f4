// Package publicid maps draft identifiers to the public namespace.
package publicid

import (
	"strings"

	"github.com/catalogue-registry/registry/src/catalogue"
)

const Separator = "."

// ToPublicId derives the public id of a draft entity. Ids already carrying the prefix are returned unchanged.
func ToPublicId(catalogueId, id string) string {
	if id == "" || IsPublic(catalogueId, id) {
		return id
	}
	return catalogueId + Separator + id
}

func IsPublic(catalogueId, id string) bool {
	return strings.HasPrefix(id, catalogueId+Separator)
}

// CheckPrefixRepetition fails when publishing id would stack a second catalogue prefix on it
func CheckPrefixRepetition(catalogueId, id string) error {
	prefix := catalogueId + Separator
	if strings.HasPrefix(id, prefix) {
		return catalogue.Validation("id %q already carries the public prefix %q", id, prefix)
	}
	return nil
}
