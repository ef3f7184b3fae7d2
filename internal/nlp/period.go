package nlp

import (
	"regexp"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// explicitDatePattern matches day/month/year dates like 05/03/2025.
var explicitDatePattern = regexp.MustCompile(`\b(\d{2})/(\d{2})/(\d{4})\b`)

// PeriodResolver maps relative and explicit date phrases to a concrete
// calendar-date range. The clock is injected so resolution is testable at a
// fixed instant.
type PeriodResolver struct {
	now func() time.Time
}

// NewPeriodResolver creates a resolver using the given clock. A nil clock
// means the local wall clock.
func NewPeriodResolver(now func() time.Time) *PeriodResolver {
	if now == nil {
		now = time.Now
	}
	return &PeriodResolver{now: now}
}

// Resolve maps the text to a date range, or nil when the text carries no
// recognizable period. Fixed keyword phrases take priority over explicit
// dates; explicit dates are taken in order of appearance, never reordered.
func (r *PeriodResolver) Resolve(text string) *Period {
	q := strings.ToLower(text)
	today := r.now()

	switch {
	case strings.Contains(q, "today"):
		d := formatDate(today)
		return &Period{StartDate: d, EndDate: d}

	case strings.Contains(q, "this week"), strings.Contains(q, "current week"):
		return &Period{StartDate: formatDate(weekStart(today)), EndDate: formatDate(today)}

	case strings.Contains(q, "this month"), strings.Contains(q, "current month"):
		first := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location())
		return &Period{StartDate: formatDate(first), EndDate: formatDate(today)}

	case strings.Contains(q, "previous month"), strings.Contains(q, "last month"):
		first := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location()).AddDate(0, -1, 0)
		last := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location()).AddDate(0, 0, -1)
		return &Period{StartDate: formatDate(first), EndDate: formatDate(last)}

	case strings.Contains(q, "this year"), strings.Contains(q, "current year"):
		first := time.Date(today.Year(), time.January, 1, 0, 0, 0, 0, today.Location())
		return &Period{StartDate: formatDate(first), EndDate: formatDate(today)}
	}

	return resolveExplicit(text)
}

// resolveExplicit scans for one or two day/month/year dates. Two dates
// become start and end in the order found; a single date becomes the start
// date only.
func resolveExplicit(text string) *Period {
	matches := explicitDatePattern.FindAllStringSubmatch(text, 2)
	if len(matches) == 0 {
		return nil
	}

	p := &Period{StartDate: toISO(matches[0])}
	if len(matches) > 1 {
		p.EndDate = toISO(matches[1])
	}
	return p
}

// toISO converts a DD/MM/YYYY submatch to YYYY-MM-DD.
func toISO(m []string) string {
	return m[3] + "-" + m[2] + "-" + m[1]
}

// weekStart returns the Monday of the week containing t. A Sunday maps back
// to the preceding Monday.
func weekStart(t time.Time) time.Time {
	day := int(t.Weekday())
	offset := 1 - day
	if day == 0 { // Sunday
		offset = -6
	}
	return t.AddDate(0, 0, offset)
}

func formatDate(t time.Time) string {
	return t.Format(dateLayout)
}
