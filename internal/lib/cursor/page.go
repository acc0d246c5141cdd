package cursor

import (
	"gallery_keeper/internal/domain/models"
)

// NewPage builds a page from rows fetched with Limit(first).
func NewPage[T any](c *Codec, rows []T, first int, key func(T) Key) models.Page[T] {
	first = Normalize(first)

	hasNext := len(rows) > first
	if hasNext {
		rows = rows[:first]
	}

	page := models.Page[T]{
		Edges:    make([]models.Edge[T], 0, len(rows)),
		PageInfo: models.PageInfo{HasNextPage: hasNext},
	}

	for _, row := range rows {
		page.Edges = append(page.Edges, models.Edge[T]{
			Cursor: c.EncodeKey(key(row)),
			Node:   row,
		})
	}

	if n := len(page.Edges); n > 0 {
		end := page.Edges[n-1].Cursor
		page.PageInfo.EndCursor = &end
	}

	return page
}
