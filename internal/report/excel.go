// Package report renders student rosters as xlsx workbooks with embedded
// photo thumbnails. Thumbnails go through per-invocation scratch files that
// are removed on every exit path, so concurrent report runs never touch each
// other's temporaries.
package report

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/disintegration/imaging"
	"github.com/xuri/excelize/v2"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/campusops/enrolldesk/internal/models"
	"github.com/campusops/enrolldesk/internal/stats"
)

var (
	ErrReportWrite       = errors.New("failed to write report")
	ErrMissingDependency = errors.New("report backend unavailable")
)

const (
	sheetName = "Students"

	photoColWidth = 15.0
	textColWidth  = 24.0
	dataRowHeight = 80.0

	thumbQuality = 85
	dateFormat   = "2006-01-02 15:04:05"
)

var headers = []string{"Photo", "Name", "Year", "Section", "Registration Number", "Registration Date"}

// Generator writes workbooks into ReportsDir. ScratchRoot is where
// per-invocation thumbnail directories are created; empty means the system
// temp dir.
type Generator struct {
	ReportsDir  string
	ThumbWidth  int
	ThumbHeight int
	ScratchRoot string
}

// NewGenerator prepares the destination and probes the workbook writer once
// at startup, so a broken report backend surfaces as ErrMissingDependency
// instead of a failure on the first download.
func NewGenerator(reportsDir string, thumbWidth, thumbHeight int) (*Generator, error) {
	if err := os.MkdirAll(reportsDir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: cannot prepare reports directory: %v", ErrMissingDependency, err)
	}

	probe := excelize.NewFile()
	if _, err := probe.WriteToBuffer(); err != nil {
		probe.Close()
		return nil, fmt.Errorf("%w: %v", ErrMissingDependency, err)
	}
	probe.Close()

	return &Generator{
		ReportsDir:  reportsDir,
		ThumbWidth:  thumbWidth,
		ThumbHeight: thumbHeight,
	}, nil
}

// Filename builds the report name for a download context: "weekly",
// "year_2", "year_2_section_B". Empty context means the full roster.
func Filename(context string) string {
	if context == "" {
		context = "student"
	}
	return fmt.Sprintf("%s_report_%s.xlsx", context, time.Now().UTC().Format("20060102_150405"))
}

// Generate writes one workbook: a styled header row plus one row per
// student, in the order given. Per-row photo problems degrade to a text
// marker in the photo cell; only destination failures abort the report.
// Returns the final workbook path.
func (g *Generator) Generate(students []models.Student, filename string) (string, error) {
	scratch, err := os.MkdirTemp(g.ScratchRoot, "enrolldesk-thumbs-")
	if err != nil {
		return "", fmt.Errorf("%w: cannot create scratch dir: %v", ErrReportWrite, err)
	}
	defer os.RemoveAll(scratch)

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return "", fmt.Errorf("%w: %v", ErrReportWrite, err)
	}

	if err := g.writeHeader(f); err != nil {
		return "", fmt.Errorf("%w: %v", ErrReportWrite, err)
	}

	for i, student := range students {
		row := i + 2
		f.SetRowHeight(sheetName, row, dataRowHeight)

		photoCell := fmt.Sprintf("A%d", row)
		if marker := g.embedPhoto(f, photoCell, student.PhotoPath, scratch, i); marker != "" {
			f.SetCellValue(sheetName, photoCell, marker)
		}

		f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), student.Name)
		f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), student.Year)
		f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), student.Section)
		f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), student.RegisterNumber)
		f.SetCellValue(sheetName, fmt.Sprintf("F%d", row), formatDate(student.CreatedAt))
	}

	return g.save(f, filename)
}

func (g *Generator) writeHeader(f *excelize.File) error {
	for i, header := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			return err
		}
	}

	style, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
	})
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheetName, "A1", "F1", style); err != nil {
		return err
	}

	if err := f.SetColWidth(sheetName, "A", "A", photoColWidth); err != nil {
		return err
	}
	return f.SetColWidth(sheetName, "B", "F", textColWidth)
}

// embedPhoto places a thumbnail into cell and returns "" on success, or the
// text marker to write instead. A single bad photo never aborts the report.
func (g *Generator) embedPhoto(f *excelize.File, cell, photoPath, scratch string, idx int) string {
	if photoPath == "" {
		return "No Photo"
	}
	if _, err := os.Stat(photoPath); err != nil {
		return "No Photo"
	}

	src, err := imaging.Open(photoPath)
	if err != nil {
		logger.Debug.Printf("Failed to decode photo %s: %v", photoPath, err)
		return "Photo Error"
	}

	thumb := imaging.Resize(src, g.ThumbWidth, g.ThumbHeight, imaging.Lanczos)
	thumbPath := filepath.Join(scratch, fmt.Sprintf("thumb_%03d.jpg", idx))
	if err := imaging.Save(thumb, thumbPath, imaging.JPEGQuality(thumbQuality)); err != nil {
		logger.Debug.Printf("Failed to write thumbnail for %s: %v", photoPath, err)
		return "Photo Error"
	}

	err = f.AddPicture(sheetName, cell, thumbPath, &excelize.GraphicOptions{
		OffsetX: 2,
		OffsetY: 2,
	})
	if err != nil {
		logger.Debug.Printf("Failed to embed thumbnail for %s: %v", photoPath, err)
		return "Photo Error"
	}

	return ""
}

// save writes to a temp name in the destination directory and renames on
// success, so a failed save never leaves a half-written workbook behind.
func (g *Generator) save(f *excelize.File, filename string) (string, error) {
	finalPath := filepath.Join(g.ReportsDir, filename)
	tmpPath := filepath.Join(g.ReportsDir, "."+filename+".tmp.xlsx")

	if err := f.SaveAs(tmpPath); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("%w: %v", ErrReportWrite, err)
	}
	if err := os.Rename(tmpPath, finalPath); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("%w: %v", ErrReportWrite, err)
	}

	return finalPath, nil
}

// formatDate renders a stored timestamp for the report; values that fail to
// parse are written verbatim rather than failing the row.
func formatDate(createdAt string) string {
	t, err := stats.ParseCreatedAt(createdAt)
	if err != nil {
		return createdAt
	}
	return t.Format(dateFormat)
}
