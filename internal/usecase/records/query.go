package records

import (
	"fmt"
	"sort"
	"strings"
)

// Query holds list parameters. Page/PerPage take precedence over
// Offset/Limit when both are set; zero means unset.
type Query struct {
	Limit   int
	Offset  int
	Page    int
	PerPage int
	Sort    string
	Order   string // asc (default) or desc
	Filter  string // case-insensitive substring over every value
}

func (q Query) window() (offset, limit int) {
	if q.PerPage > 0 {
		page := q.Page
		if page < 1 {
			page = 1
		}
		return (page - 1) * q.PerPage, q.PerPage
	}
	return q.Offset, q.Limit
}

func (q Query) apply(rows []map[string]any, primary string) []map[string]any {
	if q.Filter != "" {
		needle := strings.ToLower(q.Filter)
		kept := rows[:0]
		for _, row := range rows {
			if matches(row, needle) {
				kept = append(kept, row)
			}
		}
		rows = kept
	}

	key := q.Sort
	if key == "" {
		key = primary
	}
	desc := strings.EqualFold(q.Order, "desc")
	sort.SliceStable(rows, func(i, j int) bool {
		c := compare(rows[i][key], rows[j][key])
		if desc {
			return c > 0
		}
		return c < 0
	})

	offset, limit := q.window()
	if offset >= len(rows) {
		return []map[string]any{}
	}
	rows = rows[offset:]
	if limit > 0 && limit < len(rows) {
		rows = rows[:limit]
	}
	return rows
}

func matches(row map[string]any, needle string) bool {
	for _, v := range row {
		if v != nil && strings.Contains(strings.ToLower(fmt.Sprint(v)), needle) {
			return true
		}
	}
	return false
}

// compare orders numbers numerically and everything else by text; missing
// values sort first.
func compare(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	fa, aok := a.(float64)
	fb, bok := b.(float64)
	if aok && bok {
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		}
		return 0
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}
