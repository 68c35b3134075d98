package handlers

import (
	"net/url"
	"strconv"

	"github.com/gofiber/fiber/v2"
)

const (
	defaultPageSize = 10
	maxPageSize     = 50
)

type Page struct {
	Count    int64       `json:"count"`
	Next     *string     `json:"next"`
	Previous *string     `json:"previous"`
	Results  interface{} `json:"results"`
}

type pageRequest struct {
	number int
	size   int
}

func (p pageRequest) offset() int { return (p.number - 1) * p.size }

// readPage parses ?page and ?page_size. ok is false for a malformed page number.
func readPage(c *fiber.Ctx) (pageRequest, bool) {
	p := pageRequest{number: 1, size: defaultPageSize}

	if raw := c.Query("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return p, false
		}
		p.number = n
	}
	if raw := c.Query("page_size"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			p.size = n
		}
	}
	if p.size > maxPageSize {
		p.size = maxPageSize
	}
	return p, true
}

func lastPage(total int64, size int) int {
	if total == 0 {
		return 1
	}
	return int((total + int64(size) - 1) / int64(size))
}

func pageURL(c *fiber.Ctx, number int) *string {
	u, err := url.Parse(c.BaseURL() + c.OriginalURL())
	if err != nil {
		return nil
	}
	q := u.Query()
	if number <= 1 {
		q.Del("page")
	} else {
		q.Set("page", strconv.Itoa(number))
	}
	u.RawQuery = q.Encode()
	s := u.String()
	return &s
}

func newPage(c *fiber.Ctx, p pageRequest, total int64, results interface{}) Page {
	page := Page{Count: total, Results: results}
	if int64(p.number*p.size) < total {
		page.Next = pageURL(c, p.number+1)
	}
	if p.number > 1 {
		page.Previous = pageURL(c, p.number-1)
	}
	return page
}
