package store

import (
	"context"

	"github.com/catalogue-registry/registry/src/catalogue"
)

// Walk calls f for every bundle matching the filter, fetching pageSize bundles at a time.
// The filter's From and Quantity are overwritten. Walking stops at the first error.
func Walk(ctx context.Context, st Store, ff *FacetFilter, pageSize int, f func(*catalogue.Bundle) error) error {
	if ff == nil {
		ff = NewFacetFilter()
	}
	if pageSize <= 0 {
		pageSize = DefaultQuantity
	}
	ff.Quantity = pageSize

	for from := 0; ; from += pageSize {
		ff.From = from
		paging, err := st.Query(ctx, ff)
		if err != nil {
			return err
		}

		for _, b := range paging.Results {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			err = f(b)
			if err != nil {
				return err
			}
		}

		if len(paging.Results) == 0 || paging.To >= paging.Total {
			return nil
		}
	}
}

// All collects every bundle matching the filter
func All(ctx context.Context, st Store, ff *FacetFilter, pageSize int) (out []*catalogue.Bundle, err error) {
	err = Walk(ctx, st, ff, pageSize, func(b *catalogue.Bundle) error {
		out = append(out, b)
		return nil
	})
	return
}
