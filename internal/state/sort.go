package state

import (
	"sort"
	"strings"

	"github.com/taskdeck/taskdeck/internal/models"
)

// SortMode selects the comparator applied to a bucket after filtering.
type SortMode string

const (
	SortManual   SortMode = "manual"
	SortDueDate  SortMode = "dueDate"
	SortPriority SortMode = "priority"
	SortTitle    SortMode = "title"
	SortCreated  SortMode = "created"
)

// ParseSortMode validates a sort mode name.
func ParseSortMode(s string) (SortMode, bool) {
	switch mode := SortMode(s); mode {
	case SortManual, SortDueDate, SortPriority, SortTitle, SortCreated:
		return mode, true
	default:
		return "", false
	}
}

// Filter is the visible-row predicate, applied before any sort comparator.
// Zero-valued fields match everything.
type Filter struct {
	Priority   string
	Status     string
	AssigneeID *int64
}

func (f Filter) match(t models.Task) bool {
	if f.Priority != "" && t.Priority != f.Priority {
		return false
	}
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	if f.AssigneeID != nil {
		if t.AssigneeID == nil || *t.AssigneeID != *f.AssigneeID {
			return false
		}
	}
	return true
}

var priorityRank = map[string]int{
	models.PriorityHigh:   0,
	models.PriorityMedium: 1,
	models.PriorityLow:    2,
}

// sortTasks orders tasks by the given mode. Every comparator is a total
// order: rows missing the sort key sort last, and the server id breaks
// remaining ties so equal inputs always produce the same output.
func sortTasks(tasks []models.Task, mode SortMode) {
	if mode == SortManual {
		return
	}
	sort.SliceStable(tasks, func(i, j int) bool {
		a, b := tasks[i], tasks[j]
		switch mode {
		case SortDueDate:
			// Date strings are YYYY-MM-DD, so lexical order is date order.
			if a.DueDate != b.DueDate {
				if a.DueDate == "" {
					return false
				}
				if b.DueDate == "" {
					return true
				}
				return a.DueDate < b.DueDate
			}
		case SortPriority:
			ra, ok := priorityRank[a.Priority]
			if !ok {
				ra = len(priorityRank)
			}
			rb, ok := priorityRank[b.Priority]
			if !ok {
				rb = len(priorityRank)
			}
			if ra != rb {
				return ra < rb
			}
		case SortTitle:
			if c := strings.Compare(a.Title, b.Title); c != 0 {
				return c < 0
			}
		case SortCreated:
			// Newest first.
			if !a.CreatedAt.Equal(b.CreatedAt.Time) {
				return a.CreatedAt.After(b.CreatedAt.Time)
			}
		}
		return a.ID < b.ID
	})
}
