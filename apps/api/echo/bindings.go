package echoapi

import (
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/ahmednader515/answer-guide-platform/core"
)

var (
	orderingParam = "ordering"
	skipParam     = "skip"
	takeParam     = "take"
)

type Ordering struct {
	Orderings []core.DBOrdering
}

func (ord *Ordering) Bind(ctx echo.Context) {
	data := ctx.QueryParams()
	if len(data) == 0 {
		return
	}
	val, ok := data[orderingParam]
	if !ok || len(val) == 0 || val[0] == "" {
		return
	}

	for _, field := range strings.Split(val[0], ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
}

// BindPagination reads skip/take query params, falling back to defaults.
func BindPagination(ctx echo.Context) core.Pagination {
	var page core.Pagination
	if skip, err := strconv.Atoi(ctx.QueryParam(skipParam)); err == nil {
		page.Skip = skip
	}
	if take, err := strconv.Atoi(ctx.QueryParam(takeParam)); err == nil {
		page.Take = take
	}
	page.Clean()
	return page
}
