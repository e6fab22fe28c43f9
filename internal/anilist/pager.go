package anilist

import "context"

// PageFunc fetches one page (1-based) of a paginated listing.
type PageFunc[T any] func(ctx context.Context, page int) ([]T, PageInfo, error)

// Pager walks a paginated listing lazily, one page per Next call. It
// stops when the server reports no next page, when a page comes back
// empty, or after MaxPages pages (0 means no cap).
type Pager[T any] struct {
	fetch    PageFunc[T]
	maxPages int
	page     int
	done     bool
}

func NewPager[T any](fetch PageFunc[T], maxPages int) *Pager[T] {
	return &Pager[T]{fetch: fetch, maxPages: maxPages}
}

// Next returns the next page of items. ok is false once the listing is
// exhausted.
func (p *Pager[T]) Next(ctx context.Context) (items []T, ok bool, err error) {
	if p.done {
		return nil, false, nil
	}
	p.page++
	items, info, err := p.fetch(ctx, p.page)
	if err != nil {
		p.done = true
		return nil, false, err
	}
	if !info.HasNextPage || len(items) == 0 || (p.maxPages > 0 && p.page >= p.maxPages) {
		p.done = true
	}
	return items, true, nil
}

// Collect drains the pager.
func (p *Pager[T]) Collect(ctx context.Context) ([]T, error) {
	var all []T
	for {
		items, ok, err := p.Next(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			return all, nil
		}
		all = append(all, items...)
	}
}
