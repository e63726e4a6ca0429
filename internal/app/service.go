package app

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/campusops/enrolldesk/internal/images"
	"github.com/campusops/enrolldesk/internal/models"
	"github.com/campusops/enrolldesk/internal/registry"
	"github.com/campusops/enrolldesk/internal/report"
	"github.com/campusops/enrolldesk/internal/stats"
	"github.com/campusops/enrolldesk/internal/store"
)

type Service struct {
	Config   *Config
	Store    store.StudentStore
	Auth     *Auth
	Registry *registry.Registry
	Images   *images.Normalizer
	Reports  *report.Generator
}

func NewService(configPath string) (*Service, error) {
	config, err := LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	studentStore, err := NewStore(config.Database.DSN, config.Database.MigrationsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to init store: %w", err)
	}

	auth, err := NewAuth(config)
	if err != nil {
		return nil, fmt.Errorf("failed to init auth: %w", err)
	}

	generator, err := report.NewGenerator(
		config.Storage.ReportsDir,
		config.Storage.ThumbWidth,
		config.Storage.ThumbHeight,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to init report generator: %w", err)
	}

	return &Service{
		Config:   config,
		Store:    studentStore,
		Auth:     auth,
		Registry: registry.New(config.Cohorts),
		Images: images.NewNormalizer(
			config.Storage.UploadsDir,
			config.Storage.ImageWidth,
			config.Storage.ImageHeight,
			config.Storage.ImageQuality,
			config.Storage.MaxUploadBytes,
		),
		Reports: generator,
	}, nil
}

// RegistrationRequest is the inbound submission shape after multipart
// decoding. Photo is required; Signature and device fields are optional.
type RegistrationRequest struct {
	Name              string
	Year              int
	Section           string
	Suffix            string
	Photo             []byte
	PhotoFilename     string
	Signature         []byte
	SignatureFilename string
	HasDevice         bool
	DeviceMAC         string
}

// RegisterStudent runs the whole registration as a unit: validate, allocate,
// normalize and store the assets, persist the row. A failure after images
// were written removes them again, so no partial state survives a rejected
// registration.
func (s *Service) RegisterStudent(req RegistrationRequest) (*models.Student, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("name must not be empty")
	}

	if !s.Registry.SectionValid(req.Year, req.Section) {
		return nil, fmt.Errorf("%w: %q for year %d, valid: %s",
			registry.ErrInvalidSection,
			req.Section,
			req.Year,
			strings.Join(s.Registry.SectionsForYear(req.Year), ", "),
		)
	}

	number, err := s.Registry.Allocate(req.Year, req.Suffix, s.Store)
	if err != nil {
		return nil, err
	}

	if err := s.validateUpload(req.PhotoFilename, req.Photo); err != nil {
		return nil, err
	}
	if len(req.Signature) > 0 {
		if err := s.validateUpload(req.SignatureFilename, req.Signature); err != nil {
			return nil, err
		}
	}

	photo, err := s.Images.Normalize(req.Photo)
	if err != nil {
		return nil, err
	}

	section := strings.ToUpper(req.Section)
	photoPath := s.Images.StoragePath(req.Year, section, number)

	// Written files tracked for rollback if a later step fails
	var written []string
	rollback := func() {
		for _, path := range written {
			if err := s.Images.Remove(path); err != nil {
				logger.Error.Printf("Rollback failed for %s: %v", path, err)
			}
		}
	}

	if err := s.Images.Save(photoPath, photo); err != nil {
		return nil, err
	}
	written = append(written, photoPath)

	var signaturePath string
	if len(req.Signature) > 0 {
		signature, err := s.Images.Normalize(req.Signature)
		if err != nil {
			rollback()
			return nil, err
		}
		signaturePath = s.Images.SignaturePath(req.Year, section, number)
		if err := s.Images.Save(signaturePath, signature); err != nil {
			rollback()
			return nil, err
		}
		written = append(written, signaturePath)
	}

	student := &models.Student{
		Name:           name,
		Year:           req.Year,
		Section:        section,
		RegisterNumber: number,
		PhotoPath:      photoPath,
		SignaturePath:  signaturePath,
		HasDevice:      req.HasDevice,
		DeviceMAC:      strings.ToUpper(strings.TrimSpace(req.DeviceMAC)),
		CreatedAt:      time.Now().UTC().Format(time.RFC3339),
	}

	if err := student.Validate(); err != nil {
		rollback()
		return nil, fmt.Errorf("invalid student record: %w", err)
	}

	if err := s.Store.CreateStudent(student); err != nil {
		rollback()
		return nil, err
	}

	return student, nil
}

func (s *Service) validateUpload(filename string, data []byte) error {
	if err := s.Images.ValidateExtension(filename); err != nil {
		return err
	}
	return s.Images.ValidateSize(int64(len(data)))
}

// Stats bundles the dashboard numbers.
type Stats struct {
	TotalStudents int            `json:"total_students"`
	YearWise      map[int]int    `json:"year_wise"`
	SectionWise   map[string]int `json:"section_wise"`
	WeeklyCount   int            `json:"weekly_count"`
}

func (s *Service) GetStats() (*Stats, error) {
	students, err := s.Store.ListStudents()
	if err != nil {
		return nil, fmt.Errorf("failed to get stats: %w", err)
	}

	now := time.Now().UTC()
	return &Stats{
		TotalStudents: len(students),
		YearWise:      stats.CountByYear(students, s.Registry.Years()),
		SectionWise:   stats.CountBySection(students),
		WeeklyCount:   len(stats.RecentWithinDays(students, now, 7)),
	}, nil
}

// GenerateReport builds the xlsx for a pre-filtered roster slice. Scope
// names the download context and becomes part of the filename.
func (s *Service) GenerateReport(students []models.Student, scope string) (string, error) {
	return s.Reports.Generate(students, report.Filename(scope))
}

func (s *Service) ValidateAuth(r *http.Request, operator string) error {
	if !s.Config.Server.EnableAuth {
		return nil
	}

	authHeader := r.Header.Get(s.Auth.tokenHeader)
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return fmt.Errorf("Invalid authorization header format")
	}
	token := strings.TrimPrefix(authHeader, "Bearer ")

	return s.Auth.ValidateToken(r.Context(), operator, token)
}

func (s *Service) ValidateHeaders(headers map[string][]string) bool {
	for _, required := range s.Config.API.RequiredHeaders {
		value := headers[http.CanonicalHeaderKey(required.Name)]
		if len(value) == 0 || !strings.EqualFold(value[0], required.Value) {
			return false
		}
	}
	return true
}

func (s *Service) Close() error {
	var errs []error

	if err := s.Store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("store: %w", err))
	}
	if err := s.Auth.Close(); err != nil {
		errs = append(errs, fmt.Errorf("auth: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors while closing: %v", errs)
	}
	return nil
}
