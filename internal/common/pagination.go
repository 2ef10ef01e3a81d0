// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package common

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/stratastor/burrow/pkg/errors"
	"golang.org/x/exp/slices"
)

// Page is a window over a list resource. Limit 0 means unbounded.
type Page struct {
	Offset int
	Limit  int
}

// ParsePage reads the requested window from the Range header, its X-Range
// alias, or offset/limit query parameters, in that order.
//
//	Range: items=0-24   -> offset 0, limit 25
//	X-Range: items=10-  -> offset 10, unbounded
func ParsePage(c *gin.Context) (Page, error) {
	header := c.GetHeader("Range")
	if header == "" {
		header = c.GetHeader("X-Range")
	}
	if header != "" {
		return parseItemsRange(header)
	}

	var p Page
	if v := c.Query("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return Page{}, fmt.Errorf("invalid offset %q", v)
		}
		p.Offset = n
	}
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return Page{}, fmt.Errorf("invalid limit %q", v)
		}
		p.Limit = n
	}
	return p, nil
}

func parseItemsRange(header string) (Page, error) {
	bounds, ok := strings.CutPrefix(strings.TrimSpace(header), "items=")
	if !ok {
		return Page{}, fmt.Errorf("unsupported range unit in %q", header)
	}
	from, to, ok := strings.Cut(bounds, "-")
	if !ok {
		return Page{}, fmt.Errorf("malformed range %q", header)
	}

	start, err := strconv.Atoi(from)
	if err != nil || start < 0 {
		return Page{}, fmt.Errorf("malformed range %q", header)
	}
	if to == "" {
		return Page{Offset: start}, nil
	}
	end, err := strconv.Atoi(to)
	if err != nil || end < start {
		return Page{}, fmt.Errorf("malformed range %q", header)
	}
	return Page{Offset: start, Limit: end - start + 1}, nil
}

// Paginate returns the window of items selected by p.
func Paginate[T any](items []T, p Page) []T {
	if p.Offset >= len(items) {
		return []T{}
	}
	end := len(items)
	if p.Limit > 0 && p.Offset+p.Limit < end {
		end = p.Offset + p.Limit
	}
	return items[p.Offset:end]
}

// SetContentRange writes "items <off>-<off+len-1>/<total>".
func SetContentRange(c *gin.Context, offset, length, total int) {
	c.Header("Content-Range", fmt.Sprintf("items %d-%d/%d", offset, offset+length-1, total))
}

// RespondList sorts, paginates and writes a list resource.
func RespondList[T any](c *gin.Context, items []T, status int) {
	p, err := ParsePage(c)
	if err != nil {
		APIError(c, errors.New(errors.ServerBadRequest, err.Error()))
		return
	}
	window := Paginate(items, p)
	SetContentRange(c, p.Offset, len(window), len(items))
	c.JSON(status, window)
}

// SortKey is one entry of a client sort request.
type SortKey struct {
	Field string
	Desc  bool
}

// ParseSort splits "-used,name" style requests. aliases maps client field
// names onto record field names.
func ParseSort(raw []string, aliases map[string]string) []SortKey {
	var keys []SortKey
	for _, r := range raw {
		for _, f := range strings.Split(r, ",") {
			f = strings.TrimSpace(f)
			if f == "" {
				continue
			}
			k := SortKey{}
			switch f[0] {
			case '-':
				k.Desc = true
				f = f[1:]
			case '+', ' ':
				f = f[1:]
			}
			if alias, ok := aliases[f]; ok {
				f = alias
			}
			k.Field = f
			keys = append(keys, k)
		}
	}
	return keys
}

// SortRecords stable-sorts items by keys. The first key is primary. field
// returns the comparable value of a record's field, or nil when the record
// has no such field.
func SortRecords[T any](items []T, keys []SortKey, field func(T, string) any) {
	if len(keys) == 0 {
		return
	}
	slices.SortStableFunc(items, func(a, b T) int {
		for _, k := range keys {
			c := compareValues(field(a, k.Field), field(b, k.Field))
			if c == 0 {
				continue
			}
			if k.Desc {
				return -c
			}
			return c
		}
		return 0
	})
}

func compareValues(a, b any) int {
	switch av := a.(type) {
	case string:
		if bv, ok := b.(string); ok {
			return strings.Compare(av, bv)
		}
	case int:
		if bv, ok := b.(int); ok {
			return cmpOrdered(av, bv)
		}
	case int64:
		if bv, ok := b.(int64); ok {
			return cmpOrdered(av, bv)
		}
	case uint64:
		if bv, ok := b.(uint64); ok {
			return cmpOrdered(av, bv)
		}
	case float64:
		if bv, ok := b.(float64); ok {
			return cmpOrdered(av, bv)
		}
	case bool:
		if bv, ok := b.(bool); ok {
			switch {
			case av == bv:
				return 0
			case !av:
				return -1
			default:
				return 1
			}
		}
	}
	return 0
}

func cmpOrdered[T int | int64 | uint64 | float64](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
