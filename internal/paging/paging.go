package paging

import (
	"math"

	"github.com/gofiber/fiber/v2"
)

const maxPerPage = 100

// maxPage keeps Offset inside int32 for any per_page.
const maxPage = math.MaxInt32 / maxPerPage

type Params struct {
	Page    int
	PerPage int
}

func (p Params) Offset() int { return (p.Page - 1) * p.PerPage }
func (p Params) Limit() int  { return p.PerPage }

// FromQuery reads ?page= and ?per_page=, falling back to page 1 and def.
func FromQuery(c *fiber.Ctx, def int) Params {
	p := Params{Page: c.QueryInt("page", 1), PerPage: c.QueryInt("per_page", def)}
	return p.Normalize(def)
}

func (p Params) Normalize(def int) Params {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Page > maxPage {
		p.Page = maxPage
	}
	if p.PerPage < 1 {
		p.PerPage = def
	}
	if p.PerPage > maxPerPage {
		p.PerPage = maxPerPage
	}
	return p
}

type Result[T any] struct {
	Data     []T   `json:"data"`
	Total    int64 `json:"total"`
	Page     int   `json:"page"`
	PerPage  int   `json:"per_page"`
	LastPage int   `json:"last_page"`
}

func NewResult[T any](data []T, total int64, p Params) Result[T] {
	if data == nil {
		data = []T{}
	}
	last := 1
	if p.PerPage > 0 && total > 0 {
		last = int((total + int64(p.PerPage) - 1) / int64(p.PerPage))
	}
	return Result[T]{Data: data, Total: total, Page: p.Page, PerPage: p.PerPage, LastPage: last}
}
