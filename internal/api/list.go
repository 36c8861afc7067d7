package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
)

// page is the paginated envelope returned by list endpoints.
type page[T any] struct {
	Count   *int    `json:"count"`
	Next    *string `json:"next"`
	Results []T     `json:"results"`
}

// DecodeList accepts both a bare JSON array and a {"results": [...]}
// envelope. A null or empty body decodes to an empty list.
func DecodeList[T any](raw []byte) ([]T, error) {
	items, _, err := decodePage[T](raw)
	return items, err
}

func decodePage[T any](raw []byte) ([]T, string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, "", nil
	}
	switch raw[0] {
	case '[':
		var items []T
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, "", fmt.Errorf("decoding list: %w", err)
		}
		return items, "", nil
	case '{':
		var p page[T]
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, "", fmt.Errorf("decoding page: %w", err)
		}
		next := ""
		if p.Next != nil {
			next = *p.Next
		}
		return p.Results, next, nil
	}
	return nil, "", fmt.Errorf("decoding list: unexpected JSON %.20q", raw)
}

// maxPages bounds how many "next" links a single list call follows.
const maxPages = 50

// getList fetches every page of a list endpoint.
func getList[T any](ctx context.Context, c *Client, path string, query url.Values) ([]T, error) {
	var all []T
	next := path
	q := query
	for i := 0; next != "" && i < maxPages; i++ {
		var raw json.RawMessage
		if err := c.Get(ctx, next, q, &raw); err != nil {
			return nil, err
		}
		items, more, err := decodePage[T](raw)
		if err != nil {
			return nil, fmt.Errorf("GET %s: %w", path, err)
		}
		all = append(all, items...)
		// the next link already carries the query string
		next, q = more, nil
	}
	return all, nil
}
