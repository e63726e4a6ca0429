package registry

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/campusops/enrolldesk/internal/models"
)

type MockLookup struct {
	mock.Mock
}

func (m *MockLookup) GetStudentByRegisterNumber(number string) (*models.Student, error) {
	args := m.Called(number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Student), args.Error(1)
}

func TestSuffixValid(t *testing.T) {
	testCases := []struct {
		name   string
		suffix string
		want   bool
	}{
		{"three digits", "007", true},
		{"all zeros", "000", true},
		{"upper bound", "999", true},
		{"too short", "07", false},
		{"too long", "0007", false},
		{"empty", "", false},
		{"letters", "0a7", false},
		{"leading plus", "+07", false},
		{"leading minus", "-07", false},
		{"whitespace", " 07", false},
		{"trailing whitespace", "07 ", false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, SuffixValid(tc.suffix))
		})
	}
}

func TestSectionValid(t *testing.T) {
	r := New(DefaultCohorts())

	testCases := []struct {
		name    string
		year    int
		section string
		want    bool
	}{
		{"year 1 section A", 1, "A", true},
		{"year 1 lowercase", 1, "a", true},
		{"year 1 section E", 1, "E", true},
		{"year 2 section E", 2, "e", true},
		{"year 3 section D", 3, "D", true},
		{"year 3 has no E", 3, "E", false},
		{"year 1 unknown section", 1, "F", false},
		{"unknown year", 4, "A", false},
		{"zero year", 0, "A", false},
		{"empty section", 1, "", false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, r.SectionValid(tc.year, tc.section))
		})
	}
}

func TestPrefixForYear(t *testing.T) {
	r := New(DefaultCohorts())

	testCases := []struct {
		year   int
		prefix string
		ok     bool
	}{
		{1, "RA2511026050", true},
		{2, "RA2411026050", true},
		{3, "RA2311026050", true},
		{4, "", false},
		{0, "", false},
		{-1, "", false},
	}

	for _, tc := range testCases {
		prefix, ok := r.PrefixForYear(tc.year)
		assert.Equal(t, tc.ok, ok, "year %d", tc.year)
		assert.Equal(t, tc.prefix, prefix, "year %d", tc.year)
	}
}

func TestYears(t *testing.T) {
	r := New(DefaultCohorts())
	assert.Equal(t, []int{1, 2, 3}, r.Years())
}

func TestNewFallsBackToDefaults(t *testing.T) {
	r := New(Cohorts{})
	assert.True(t, r.SectionValid(1, "A"))

	custom := New(Cohorts{
		Prefixes: map[int]string{5: "ZZ99"},
		Sections: map[int][]string{5: {"Q"}},
	})
	assert.True(t, custom.SectionValid(5, "q"))
	assert.False(t, custom.SectionValid(1, "A"))
}

func TestAllocate(t *testing.T) {
	r := New(DefaultCohorts())

	t.Run("allocates prefix plus suffix", func(t *testing.T) {
		lookup := new(MockLookup)
		lookup.On("GetStudentByRegisterNumber", "RA2511026050007").Return(nil, nil)

		number, err := r.Allocate(1, "007", lookup)
		require.NoError(t, err)
		assert.Equal(t, "RA2511026050007", number)
		lookup.AssertExpectations(t)
	})

	t.Run("duplicate number", func(t *testing.T) {
		lookup := new(MockLookup)
		lookup.On("GetStudentByRegisterNumber", "RA2511026050007").Return(
			&models.Student{RegisterNumber: "RA2511026050007"}, nil,
		)

		_, err := r.Allocate(1, "007", lookup)
		assert.ErrorIs(t, err, ErrDuplicateRegistration)
	})

	t.Run("invalid suffix checked before store", func(t *testing.T) {
		lookup := new(MockLookup)

		_, err := r.Allocate(1, "77", lookup)
		assert.ErrorIs(t, err, ErrInvalidSuffix)
		lookup.AssertNotCalled(t, "GetStudentByRegisterNumber", mock.Anything)
	})

	t.Run("unknown year", func(t *testing.T) {
		lookup := new(MockLookup)

		_, err := r.Allocate(9, "007", lookup)
		assert.ErrorIs(t, err, ErrInvalidYear)
	})

	t.Run("store error propagates", func(t *testing.T) {
		lookup := new(MockLookup)
		lookup.On("GetStudentByRegisterNumber", "RA2411026050123").Return(nil, errors.New("connection refused"))

		_, err := r.Allocate(2, "123", lookup)
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrDuplicateRegistration)
	})
}
