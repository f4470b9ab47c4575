package transport

import (
	"net/url"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/service"
)

type PageResp[T any] struct {
	Count    int64   `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

// pageRequest reads ?page= and ?limit=. A page that is not a number can't
// exist; a bad limit falls back to the default.
func (s *HTTPServer) pageRequest(c echo.Context) (service.PageRequest, error) {
	req := service.PageRequest{Page: 1}

	if raw := c.QueryParam("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			return req, service.NotFoundError("page", "invalid page")
		}
		req.Page = page
	}
	if raw := c.QueryParam("limit"); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil {
			req.Limit = limit
		}
	}
	return req.Normalize(s.cfg.PageSize), nil
}

func newPageResp[T any](c echo.Context, page *service.Page[T]) PageResp[T] {
	resp := PageResp[T]{
		Count:   page.Count,
		Results: page.Items,
	}
	if resp.Results == nil {
		resp.Results = []T{}
	}
	if page.HasNext() {
		next := pageURL(c, page.Page+1)
		resp.Next = &next
	}
	if page.HasPrevious() {
		prev := pageURL(c, page.Page-1)
		resp.Previous = &prev
	}
	return resp
}

// pageURL is the current request URL pointing at another page. The first
// page is addressed without a page parameter.
func pageURL(c echo.Context, page int) string {
	req := c.Request()
	query := req.URL.Query()
	if page <= 1 {
		query.Del("page")
	} else {
		query.Set("page", strconv.Itoa(page))
	}

	u := url.URL{
		Scheme:   c.Scheme(),
		Host:     req.Host,
		Path:     req.URL.Path,
		RawQuery: query.Encode(),
	}
	return u.String()
}

// recipesLimit reads recipes_limit. Absent, non-numeric and negative values
// mean no limit.
func recipesLimit(c echo.Context) int {
	v, err := strconv.Atoi(c.QueryParam("recipes_limit"))
	if err != nil || v < 0 {
		return service.NoRecipesLimit
	}
	return v
}
