// Package stats holds the pure aggregation helpers shared by the dashboard
// and the report filters. All time comparison happens in UTC.
package stats

import (
	"time"

	"github.com/campusops/enrolldesk/internal/models"
)

// ParseCreatedAt parses a stored created_at value. Records carry RFC3339 UTC
// text; older rows may hold a bare "2006-01-02 15:04:05" form.
func ParseCreatedAt(value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, value)
	if err == nil {
		return t.UTC(), nil
	}
	t, err = time.Parse("2006-01-02 15:04:05", value)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// RecentWithinDays keeps students registered within the last given days,
// measured from now. Records with unparseable timestamps are excluded.
func RecentWithinDays(students []models.Student, now time.Time, days int) []models.Student {
	cutoff := now.UTC().AddDate(0, 0, -days)

	var recent []models.Student
	for _, s := range students {
		createdAt, err := ParseCreatedAt(s.CreatedAt)
		if err != nil {
			continue
		}
		if !createdAt.Before(cutoff) {
			recent = append(recent, s)
		}
	}
	return recent
}

// CountByYear counts students per year, pre-seeded with zero for every known
// year so empty cohorts show up in the dashboard.
func CountByYear(students []models.Student, years []int) map[int]int {
	counts := make(map[int]int, len(years))
	for _, year := range years {
		counts[year] = 0
	}

	for _, s := range students {
		if _, known := counts[s.Year]; known {
			counts[s.Year]++
		}
	}
	return counts
}

// CountBySection counts students per section. Blank sections are skipped.
func CountBySection(students []models.Student) map[string]int {
	counts := make(map[string]int)
	for _, s := range students {
		if s.Section == "" {
			continue
		}
		counts[s.Section]++
	}
	return counts
}
