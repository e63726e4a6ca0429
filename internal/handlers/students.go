package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/campusops/enrolldesk/internal/app"
	"github.com/campusops/enrolldesk/internal/images"
	"github.com/campusops/enrolldesk/internal/metrics"
	"github.com/campusops/enrolldesk/internal/models"
	"github.com/campusops/enrolldesk/internal/registry"
	"github.com/campusops/enrolldesk/internal/report"
	"github.com/campusops/enrolldesk/internal/stats"
)

type StudentHandler struct {
	service *app.Service
}

func NewStudentHandler(service *app.Service) *StudentHandler {
	return &StudentHandler{
		service: service,
	}
}

func (h *StudentHandler) observe(r *http.Request, start time.Time, status int) {
	metrics.APIRequestDuration.WithLabelValues(
		r.URL.Path,
		r.Method,
		strconv.Itoa(status),
	).Observe(time.Since(start).Seconds())
}

// HandleRegister accepts the multipart registration form: name, year,
// section, last_digits, photo, optional signature, has_device, device_mac.
func (h *StudentHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() {
		h.observe(r, start, http.StatusOK)
	}()

	if !h.service.ValidateHeaders(r.Header) {
		http.Error(w, "these are not the droids you are looking for", http.StatusForbidden)
		return
	}

	// Form limit sits above the per-file limit so oversized uploads get a
	// proper FileTooLarge response instead of a parse error
	if err := r.ParseMultipartForm(4 << 20); err != nil {
		http.Error(w, "Invalid multipart form", http.StatusBadRequest)
		return
	}

	year, err := strconv.Atoi(r.FormValue("year"))
	if err != nil {
		http.Error(w, "Invalid year", http.StatusBadRequest)
		return
	}

	photo, photoName, err := readUpload(r, "photo")
	if err != nil {
		http.Error(w, "Photo upload is required", http.StatusBadRequest)
		return
	}

	req := app.RegistrationRequest{
		Name:          r.FormValue("name"),
		Year:          year,
		Section:       r.FormValue("section"),
		Suffix:        r.FormValue("last_digits"),
		Photo:         photo,
		PhotoFilename: photoName,
		HasDevice:     r.FormValue("has_device") == "true",
		DeviceMAC:     r.FormValue("device_mac"),
	}

	if signature, signatureName, err := readUpload(r, "signature"); err == nil {
		req.Signature = signature
		req.SignatureFilename = signatureName
	}

	student, err := h.service.RegisterStudent(req)
	if err != nil {
		status, reason := registrationError(err)
		metrics.RegistrationFailuresTotal.WithLabelValues(reason).Inc()
		logger.Debug.Printf("Registration rejected (%s): %v", reason, err)
		http.Error(w, err.Error(), status)
		return
	}

	metrics.RegistrationsTotal.WithLabelValues(
		strconv.Itoa(student.Year),
		student.Section,
	).Inc()
	logger.Info.Printf("Registered %s (%s)", student.RegisterNumber, student.Name)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":         true,
		"message":         "Student registered successfully!",
		"register_number": student.RegisterNumber,
		"student":         student,
	})
}

// registrationError maps the failure taxonomy onto HTTP status codes and
// metric labels.
func registrationError(err error) (int, string) {
	switch {
	case errors.Is(err, registry.ErrInvalidYear):
		return http.StatusBadRequest, "invalid_year"
	case errors.Is(err, registry.ErrInvalidSection):
		return http.StatusBadRequest, "invalid_section"
	case errors.Is(err, registry.ErrInvalidSuffix):
		return http.StatusBadRequest, "invalid_suffix"
	case errors.Is(err, registry.ErrDuplicateRegistration):
		return http.StatusConflict, "duplicate_registration"
	case errors.Is(err, images.ErrInvalidFormat):
		return http.StatusBadRequest, "invalid_format"
	case errors.Is(err, images.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge, "file_too_large"
	case errors.Is(err, images.ErrUnsupportedImage):
		return http.StatusBadRequest, "unsupported_image"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func readUpload(r *http.Request, field string) ([]byte, string, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return nil, "", err
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, 2<<20))
	if err != nil {
		return nil, "", err
	}
	return data, filepath.Base(header.Filename), nil
}

func (h *StudentHandler) HandleListStudents(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(w, r) {
		return
	}

	students, err := h.service.Store.ListStudents()
	if err != nil {
		logger.Error.Printf("Failed to list students: %v", err)
		http.Error(w, "Failed to fetch students", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"total":    len(students),
		"students": students,
	})
}

func (h *StudentHandler) HandleCheckRegisterNumber(w http.ResponseWriter, r *http.Request) {
	if !h.service.ValidateHeaders(r.Header) {
		http.Error(w, "these are not the droids you are looking for", http.StatusNotFound)
		return
	}

	number := r.PathValue("number")
	existing, err := h.service.Store.GetStudentByRegisterNumber(number)
	if err != nil {
		logger.Error.Printf("Failed to check register number %s: %v", number, err)
		http.Error(w, "Failed to check register number", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"exists":          existing != nil,
		"register_number": number,
	})
}

func (h *StudentHandler) HandleCohortInfo(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(r.PathValue("year"))
	if err != nil {
		http.Error(w, "Invalid year", http.StatusBadRequest)
		return
	}

	prefix, ok := h.service.Registry.PrefixForYear(year)
	if !ok {
		http.Error(w, "Invalid year", http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"year":     year,
		"prefix":   prefix,
		"sections": h.service.Registry.SectionsForYear(year),
	})
}

func (h *StudentHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(w, r) {
		return
	}

	dashboard, err := h.service.GetStats()
	if err != nil {
		logger.Error.Printf("Failed to build stats: %v", err)
		http.Error(w, "Failed to fetch stats", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, dashboard)
}

// HandleFullReport streams the roster workbook for every registration.
func (h *StudentHandler) HandleFullReport(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(w, r) {
		return
	}

	students, err := h.service.Store.ListStudents()
	if err != nil {
		logger.Error.Printf("Failed to list students for report: %v", err)
		http.Error(w, "Failed to fetch students", http.StatusInternalServerError)
		return
	}

	h.streamReport(w, r, students, "")
}

// HandleWeeklyReport covers registrations from the last 7 days.
func (h *StudentHandler) HandleWeeklyReport(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(w, r) {
		return
	}

	students, err := h.service.Store.ListStudents()
	if err != nil {
		logger.Error.Printf("Failed to list students for weekly report: %v", err)
		http.Error(w, "Failed to fetch students", http.StatusInternalServerError)
		return
	}

	weekly := stats.RecentWithinDays(students, time.Now().UTC(), 7)
	h.streamReport(w, r, weekly, "weekly")
}

func (h *StudentHandler) HandleYearReport(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(w, r) {
		return
	}

	year, err := strconv.Atoi(r.PathValue("year"))
	if err != nil {
		http.Error(w, "Invalid year", http.StatusBadRequest)
		return
	}
	if _, ok := h.service.Registry.PrefixForYear(year); !ok {
		http.Error(w, "Invalid year", http.StatusBadRequest)
		return
	}

	students, err := h.service.Store.ListStudentsByYear(year)
	if err != nil {
		logger.Error.Printf("Failed to list year %d students: %v", year, err)
		http.Error(w, "Failed to fetch students", http.StatusInternalServerError)
		return
	}

	h.streamReport(w, r, students, fmt.Sprintf("year_%d", year))
}

func (h *StudentHandler) HandleYearSectionReport(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(w, r) {
		return
	}

	year, err := strconv.Atoi(r.PathValue("year"))
	if err != nil {
		http.Error(w, "Invalid year", http.StatusBadRequest)
		return
	}
	section := r.PathValue("section")
	if !h.service.Registry.SectionValid(year, section) {
		http.Error(w, "Invalid section for year", http.StatusBadRequest)
		return
	}

	students, err := h.service.Store.ListStudentsByYearSection(year, section)
	if err != nil {
		logger.Error.Printf("Failed to list year %d section %s students: %v", year, section, err)
		http.Error(w, "Failed to fetch students", http.StatusInternalServerError)
		return
	}

	h.streamReport(w, r, students, fmt.Sprintf("year_%d_section_%s", year, strings.ToUpper(section)))
}

func (h *StudentHandler) streamReport(w http.ResponseWriter, r *http.Request, students []models.Student, scope string) {
	if len(students) == 0 {
		http.Error(w, "No student data available to generate report", http.StatusNotFound)
		return
	}

	label := scope
	if label == "" {
		label = "student"
	}

	start := time.Now()
	path, err := h.service.GenerateReport(students, scope)
	if err != nil {
		logger.Error.Printf("Failed to generate %s report: %v", label, err)
		if errors.Is(err, report.ErrMissingDependency) {
			http.Error(w, "Report backend unavailable", http.StatusServiceUnavailable)
			return
		}
		http.Error(w, "Failed to generate report", http.StatusInternalServerError)
		return
	}

	metrics.ReportsGeneratedTotal.WithLabelValues(label).Inc()
	metrics.ReportDuration.WithLabelValues(label).Observe(time.Since(start).Seconds())
	logger.Info.Printf("Generated %s report with %d rows: %s", label, len(students), path)

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(path)))
	http.ServeFile(w, r, path)
}

// authorized runs the shared-headers gate plus operator token check for the
// admin surface.
func (h *StudentHandler) authorized(w http.ResponseWriter, r *http.Request) bool {
	if !h.service.ValidateHeaders(r.Header) {
		http.Error(w, "these are not the droids you are looking for", http.StatusNotFound)
		return false
	}

	operator := r.Header.Get(h.service.Config.API.OperatorHeader)
	if err := h.service.ValidateAuth(r, operator); err != nil {
		logger.Error.Printf("Auth failed for operator %q: %v", operator, err)
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Debug.Printf("Error encoding response: %v", err)
	}
}
