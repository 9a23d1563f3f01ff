package apiclient

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// ListQuery holds search, filter and pagination parameters for list calls.
type ListQuery struct {
	Search  string
	Page    int
	Limit   int
	Filters map[string]string
}

// Values encodes q as query parameters.
func (q ListQuery) Values() url.Values {
	v := url.Values{}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	for k, val := range q.Filters {
		if val != "" {
			v.Set(k, val)
		}
	}
	return v
}

// Page is the paginated list envelope of the lending API.
// T is typically a model type.
type Page[T any] struct {
	Items []T `json:"data"`
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// Resource is the generic CRUD surface of one API collection.
type Resource[T any] struct {
	c    *Client
	path string
}

// Path returns the collection path.
func (r Resource[T]) Path() string {
	return r.path
}

// List returns one page of the collection.
func (r Resource[T]) List(ctx context.Context, token string, q ListQuery) (*Page[T], error) {
	var out Page[T]
	if err := r.c.do(ctx, http.MethodGet, r.path, token, q.Values(), nil, &out); err != nil {
		return nil, err
	}
	if out.Items == nil {
		out.Items = make([]T, 0)
	}
	return &out, nil
}

// Get returns one item by ID.
func (r Resource[T]) Get(ctx context.Context, token, id string) (*T, error) {
	var out T
	if err := r.c.do(ctx, http.MethodGet, r.path+"/"+url.PathEscape(id), token, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Create posts in and returns the stored item.
func (r Resource[T]) Create(ctx context.Context, token string, in any) (*T, error) {
	var out T
	if err := r.c.do(ctx, http.MethodPost, r.path, token, nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Update replaces the item identified by id.
func (r Resource[T]) Update(ctx context.Context, token, id string, in any) (*T, error) {
	var out T
	if err := r.c.do(ctx, http.MethodPut, r.path+"/"+url.PathEscape(id), token, nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes the item identified by id.
func (r Resource[T]) Delete(ctx context.Context, token, id string) error {
	return r.c.do(ctx, http.MethodDelete, r.path+"/"+url.PathEscape(id), token, nil, nil, nil)
}

// All walks every page of the collection, limit items at a time. A reported
// total takes precedence over short pages.
func (r Resource[T]) All(ctx context.Context, token string, q ListQuery, limit int) ([]T, error) {
	if limit <= 0 {
		limit = 100
	}
	q.Limit = limit
	items := make([]T, 0)
	for page := 1; ; page++ {
		q.Page = page
		res, err := r.List(ctx, token, q)
		if err != nil {
			return nil, err
		}
		items = append(items, res.Items...)
		if len(res.Items) == 0 {
			return items, nil
		}
		if res.Total > 0 {
			if len(items) >= res.Total {
				return items, nil
			}
			continue
		}
		if len(res.Items) < limit {
			return items, nil
		}
	}
}
