package cli

import (
	"strings"

	"github.com/julianstephens/logbook/internal/errors"
)

// Find resolves ref against items by case-insensitive name first, then by
// id or unique id suffix.
func Find[T any](kind, ref string, items []T, id func(T) string, name func(T) string) (T, error) {
	var zero T
	for _, it := range items {
		if strings.EqualFold(strings.TrimSpace(name(it)), strings.TrimSpace(ref)) {
			return it, nil
		}
	}

	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = id(it)
	}
	match, err := ResolveID(kind, ref, ids)
	if err != nil {
		return zero, err
	}
	for _, it := range items {
		if id(it) == match {
			return it, nil
		}
	}
	return zero, errors.NotFound(kind, ref)
}
