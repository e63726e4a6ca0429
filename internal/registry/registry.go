package registry

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/campusops/enrolldesk/internal/models"
)

var (
	ErrInvalidYear           = errors.New("no registration prefix for year")
	ErrInvalidSection        = errors.New("section not valid for year")
	ErrInvalidSuffix         = errors.New("suffix must be exactly 3 digits")
	ErrDuplicateRegistration = errors.New("registration number already exists")
)

var suffixRegex = regexp.MustCompile(`^\d{3}$`)

// Cohorts holds the static year→prefix and year→sections tables. The tables
// are configuration, not code: they change every academic year.
type Cohorts struct {
	Prefixes map[int]string   `toml:"prefixes"`
	Sections map[int][]string `toml:"sections"`
}

// DefaultCohorts mirrors the current intake tables.
func DefaultCohorts() Cohorts {
	return Cohorts{
		Prefixes: map[int]string{
			1: "RA2511026050",
			2: "RA2411026050",
			3: "RA2311026050",
		},
		Sections: map[int][]string{
			1: {"A", "B", "C", "D", "E"},
			2: {"A", "B", "C", "D", "E"},
			3: {"A", "B", "C", "D"},
		},
	}
}

// Lookup is the single store capability the allocator needs: a point query
// by registration number, nil when absent.
type Lookup interface {
	GetStudentByRegisterNumber(number string) (*models.Student, error)
}

// Registry answers cohort membership questions and allocates registration
// numbers. Immutable after construction.
type Registry struct {
	cohorts Cohorts
}

func New(cohorts Cohorts) *Registry {
	if len(cohorts.Prefixes) == 0 && len(cohorts.Sections) == 0 {
		cohorts = DefaultCohorts()
	}
	return &Registry{cohorts: cohorts}
}

func (r *Registry) PrefixForYear(year int) (string, bool) {
	prefix, ok := r.cohorts.Prefixes[year]
	return prefix, ok
}

// SectionValid reports whether section belongs to the year's fixed set.
// Case-insensitive; unknown years have no valid sections.
func (r *Registry) SectionValid(year int, section string) bool {
	want := strings.ToUpper(section)
	for _, s := range r.cohorts.Sections[year] {
		if s == want {
			return true
		}
	}
	return false
}

func (r *Registry) SectionsForYear(year int) []string {
	return r.cohorts.Sections[year]
}

func (r *Registry) Years() []int {
	years := make([]int, 0, len(r.cohorts.Prefixes))
	for year := range r.cohorts.Prefixes {
		years = append(years, year)
	}
	sort.Ints(years)
	return years
}

func SuffixValid(suffix string) bool {
	return suffixRegex.MatchString(suffix)
}

// Allocate builds prefix+suffix and checks the store for an existing holder.
// The caller performs the actual insert; the pre-check here and the insert
// are separate operations, so the store's unique constraint stays the final
// arbiter and maps its violation back to ErrDuplicateRegistration.
func (r *Registry) Allocate(year int, suffix string, lookup Lookup) (string, error) {
	if !SuffixValid(suffix) {
		return "", fmt.Errorf("%w: %q", ErrInvalidSuffix, suffix)
	}

	prefix, ok := r.PrefixForYear(year)
	if !ok {
		return "", fmt.Errorf("%w: %d", ErrInvalidYear, year)
	}

	number := prefix + suffix

	existing, err := lookup.GetStudentByRegisterNumber(number)
	if err != nil {
		return "", fmt.Errorf("failed to check registration number %s: %w", number, err)
	}
	if existing != nil {
		return "", fmt.Errorf("%w: %s", ErrDuplicateRegistration, number)
	}

	return number, nil
}
