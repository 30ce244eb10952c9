// Package pagination extracts _count/_offset query parameters and renders
// the self link a searchset Bundle carries. Spec Non-goals rule out
// next/previous links, so unlike a typical REST pagination helper this
// only ever emits one link.
package pagination

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/labstack/echo/v4"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Params holds pagination parameters extracted from a request.
type Params struct {
	Limit  int
	Offset int
}

// FromContext extracts _count/_offset (or limit/offset) from the request,
// clamping limit to [1, MaxLimit] and offset to >= 0.
func FromContext(c echo.Context) Params {
	limit, _ := strconv.Atoi(c.QueryParam("_count"))
	if limit <= 0 {
		limit, _ = strconv.Atoi(c.QueryParam("limit"))
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	offset, _ := strconv.Atoi(c.QueryParam("_offset"))
	if offset <= 0 {
		offset, _ = strconv.Atoi(c.QueryParam("offset"))
	}
	if offset < 0 {
		offset = 0
	}

	return Params{Limit: limit, Offset: offset}
}

// SelfURL renders the self link for a searchset Bundle: basePath plus the
// resolved _count/_offset and any caller-supplied search parameters.
func (p Params) SelfURL(basePath string, query url.Values) string {
	q := url.Values{}
	for k, v := range query {
		if k == "_count" || k == "_offset" || k == "limit" || k == "offset" {
			continue
		}
		q[k] = v
	}
	q.Set("_count", strconv.Itoa(p.Limit))
	q.Set("_offset", strconv.Itoa(p.Offset))
	return fmt.Sprintf("%s?%s", basePath, q.Encode())
}
