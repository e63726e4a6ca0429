package store

import (
	"database/sql"
	"fmt"
	"os"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/campusops/enrolldesk/internal/models"
)

// StudentStore is the persistence collaborator for registrations and
// reports. CreateStudent must detect the register_number unique-constraint
// violation and surface it as registry.ErrDuplicateRegistration: the
// allocator's pre-check and the insert are separate steps that can race.
type StudentStore interface {
	Close() error
	ApplyMigrations(dir string) error

	CreateStudent(student *models.Student) error
	GetStudentByRegisterNumber(number string) (*models.Student, error)
	ListStudents() ([]models.Student, error)
	ListStudentsByYear(year int) ([]models.Student, error)
	ListStudentsByYearSection(year int, section string) ([]models.Student, error)
	CountStudents() (int64, error)
}

// BaseStore provides common functionality for different DB implementations
type BaseStore struct {
	DB        *sqlx.DB
	Converter func(string) string
}

func (s *BaseStore) Close() error {
	if s.DB != nil {
		return s.DB.Close()
	}
	return nil
}

// ApplyMigrations applies SQL migrations from a directory, translating dialect if needed
func (s *BaseStore) ApplyMigrations(dir string, translateSQL func(string) string) error {
	files, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %w", err)
	}

	for _, file := range files {
		if !strings.HasSuffix(file.Name(), ".sql") {
			continue
		}

		content, err := os.ReadFile(fmt.Sprintf("%s/%s", dir, file.Name()))
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", file.Name(), err)
		}

		sql := string(content)
		if translateSQL != nil {
			sql = translateSQL(sql)
		}

		if _, err := s.DB.Exec(sql); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", file.Name(), err)
		}
	}

	return nil
}

// InsertStudent runs the raw insert. Driver packages wrap it to map their
// unique-violation error onto registry.ErrDuplicateRegistration.
func (s *BaseStore) InsertStudent(student *models.Student) error {
	_, err := s.DB.NamedExec(`
		INSERT INTO students (name, year, section, register_number, photo_path, signature_path, has_device, device_mac, created_at)
		VALUES (:name, :year, :section, :register_number, :photo_path, :signature_path, :has_device, :device_mac, :created_at)
	`, student)
	return err
}

func (s *BaseStore) GetStudentByRegisterNumber(number string) (*models.Student, error) {
	var student models.Student
	query := s.Converter(`
		SELECT id, name, year, section, register_number, photo_path, signature_path, has_device, device_mac, created_at
		FROM students
		WHERE register_number = ?
	`)

	err := s.DB.Get(&student, query, number)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get student %s: %w", number, err)
	}
	return &student, nil
}

func (s *BaseStore) ListStudents() ([]models.Student, error) {
	var students []models.Student
	err := s.DB.Select(&students, `
		SELECT id, name, year, section, register_number, photo_path, signature_path, has_device, device_mac, created_at
		FROM students
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list students: %w", err)
	}

	return students, nil
}

func (s *BaseStore) ListStudentsByYear(year int) ([]models.Student, error) {
	var students []models.Student
	query := s.Converter(`
		SELECT id, name, year, section, register_number, photo_path, signature_path, has_device, device_mac, created_at
		FROM students
		WHERE year = ?
		ORDER BY created_at DESC
	`)

	err := s.DB.Select(&students, query, year)
	if err != nil {
		return nil, fmt.Errorf("failed to list students for year %d: %w", year, err)
	}

	return students, nil
}

func (s *BaseStore) ListStudentsByYearSection(year int, section string) ([]models.Student, error) {
	var students []models.Student
	query := s.Converter(`
		SELECT id, name, year, section, register_number, photo_path, signature_path, has_device, device_mac, created_at
		FROM students
		WHERE year = ?
		AND section = ?
		ORDER BY created_at DESC
	`)

	err := s.DB.Select(&students, query, year, strings.ToUpper(section))
	if err != nil {
		return nil, fmt.Errorf("failed to list students for year %d section %s: %w", year, section, err)
	}

	return students, nil
}

func (s *BaseStore) CountStudents() (int64, error) {
	var count int64
	err := s.DB.Get(&count, `SELECT COUNT(*) FROM students`)
	if err != nil {
		return 0, fmt.Errorf("failed to count students: %w", err)
	}
	return count, nil
}
