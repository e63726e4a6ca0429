// internal/store/sqlite/store_test.go
package sqlite

import (
	"log"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusops/enrolldesk/internal/models"
	"github.com/campusops/enrolldesk/internal/registry"
)

// setupTestDB creates an in-memory SQLite database and initializes schema
func setupTestDB(t *testing.T) (*SQLiteStore, func()) {
	s, err := NewSQLiteStore(":memory:", "../../../migrations")
	require.NoError(t, err, "Failed to create store")

	cleanup := func() {
		err := s.Close()
		require.NoError(t, err, "Failed to close database")
	}

	return s, cleanup
}

func testStudent(suffix string, createdAt time.Time) *models.Student {
	return &models.Student{
		Name:           "Jane Doe",
		Year:           1,
		Section:        "A",
		RegisterNumber: "RA2511026050" + suffix,
		PhotoPath:      "uploads/1/A/RA2511026050" + suffix + ".jpg",
		CreatedAt:      createdAt.UTC().Format(time.RFC3339),
	}
}

func TestMain(m *testing.M) {
	log.Println("Starting SQLite store tests...")
	code := m.Run()
	log.Println("Finished SQLite store tests")
	os.Exit(code)
}

func TestCreateAndGetStudent(t *testing.T) {
	s, cleanup := setupTestDB(t)
	defer cleanup()

	now := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	student := testStudent("007", now)
	student.HasDevice = true
	student.DeviceMAC = "AA:BB:CC:DD:EE:FF"

	t.Run("create student", func(t *testing.T) {
		err := s.CreateStudent(student)
		require.NoError(t, err, "Failed to create student")
	})

	t.Run("get student", func(t *testing.T) {
		got, err := s.GetStudentByRegisterNumber(student.RegisterNumber)
		require.NoError(t, err, "Failed to get student")
		require.NotNil(t, got)
		assert.Equal(t, student.Name, got.Name)
		assert.Equal(t, student.Year, got.Year)
		assert.Equal(t, student.Section, got.Section)
		assert.Equal(t, student.RegisterNumber, got.RegisterNumber)
		assert.Equal(t, student.PhotoPath, got.PhotoPath)
		assert.True(t, got.HasDevice)
		assert.Equal(t, student.DeviceMAC, got.DeviceMAC)
		assert.Equal(t, student.CreatedAt, got.CreatedAt)
	})

	t.Run("get non-existent student", func(t *testing.T) {
		got, err := s.GetStudentByRegisterNumber("RA2511026050999")
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}

func TestDuplicateRegisterNumber(t *testing.T) {
	s, cleanup := setupTestDB(t)
	defer cleanup()

	now := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)

	require.NoError(t, s.CreateStudent(testStudent("007", now)))

	again := testStudent("007", now.Add(time.Minute))
	again.Name = "Someone Else"
	err := s.CreateStudent(again)
	assert.ErrorIs(t, err, registry.ErrDuplicateRegistration)
}

func TestListStudentsOrdering(t *testing.T) {
	s, cleanup := setupTestDB(t)
	defer cleanup()

	base := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	oldest := testStudent("001", base.Add(-48*time.Hour))
	middle := testStudent("002", base.Add(-24*time.Hour))
	newest := testStudent("003", base)

	for _, student := range []*models.Student{middle, oldest, newest} {
		require.NoError(t, s.CreateStudent(student))
	}

	students, err := s.ListStudents()
	require.NoError(t, err)
	require.Len(t, students, 3)
	assert.Equal(t, newest.RegisterNumber, students[0].RegisterNumber)
	assert.Equal(t, middle.RegisterNumber, students[1].RegisterNumber)
	assert.Equal(t, oldest.RegisterNumber, students[2].RegisterNumber)
}

func TestListStudentsByYearAndSection(t *testing.T) {
	s, cleanup := setupTestDB(t)
	defer cleanup()

	now := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)

	yearOne := testStudent("010", now)
	yearTwoB := &models.Student{
		Name:           "Второкурсник",
		Year:           2,
		Section:        "B",
		RegisterNumber: "RA2411026050020",
		PhotoPath:      "uploads/2/B/RA2411026050020.jpg",
		CreatedAt:      now.Format(time.RFC3339),
	}

	require.NoError(t, s.CreateStudent(yearOne))
	require.NoError(t, s.CreateStudent(yearTwoB))

	t.Run("by year", func(t *testing.T) {
		students, err := s.ListStudentsByYear(2)
		require.NoError(t, err)
		require.Len(t, students, 1)
		assert.Equal(t, yearTwoB.RegisterNumber, students[0].RegisterNumber)
	})

	t.Run("by year and section, case-insensitive", func(t *testing.T) {
		students, err := s.ListStudentsByYearSection(2, "b")
		require.NoError(t, err)
		require.Len(t, students, 1)

		students, err = s.ListStudentsByYearSection(2, "A")
		require.NoError(t, err)
		assert.Empty(t, students)
	})
}

func TestCountStudents(t *testing.T) {
	s, cleanup := setupTestDB(t)
	defer cleanup()

	count, err := s.CountStudents()
	require.NoError(t, err)
	assert.Zero(t, count)

	now := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.CreateStudent(testStudent("001", now)))
	require.NoError(t, s.CreateStudent(testStudent("002", now)))

	count, err = s.CountStudents()
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
}
