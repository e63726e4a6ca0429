// Offline report generation: same workbook as the download endpoints, but
// straight from the store without going through the server.
package main

import (
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/campusops/enrolldesk/internal/app"
	"github.com/campusops/enrolldesk/internal/models"
	"github.com/campusops/enrolldesk/internal/stats"
)

func main() {
	var (
		configPath = flag.String("config", "config.toml", "Path to config file")
		weekly     = flag.Bool("weekly", false, "Only registrations from the last 7 days")
		year       = flag.Int("year", 0, "Only the given year")
		section    = flag.String("section", "", "Only the given section (requires -year)")
	)
	flag.Parse()

	service, err := app.NewService(*configPath)
	if err != nil {
		logger.Error.Fatalf("Failed to load config: %v", err)
	}
	defer service.Close()

	var students []models.Student
	var scope string

	switch {
	case *year != 0 && *section != "":
		if !service.Registry.SectionValid(*year, *section) {
			logger.Error.Fatalf("Section %q is not valid for year %d", *section, *year)
		}
		students, err = service.Store.ListStudentsByYearSection(*year, *section)
		scope = fmt.Sprintf("year_%d_section_%s", *year, strings.ToUpper(*section))
	case *year != 0:
		if _, ok := service.Registry.PrefixForYear(*year); !ok {
			logger.Error.Fatalf("Unknown year %d", *year)
		}
		students, err = service.Store.ListStudentsByYear(*year)
		scope = fmt.Sprintf("year_%d", *year)
	case *weekly:
		students, err = service.Store.ListStudents()
		if err == nil {
			students = stats.RecentWithinDays(students, time.Now().UTC(), 7)
		}
		scope = "weekly"
	default:
		students, err = service.Store.ListStudents()
	}
	if err != nil {
		logger.Error.Fatalf("Failed to fetch students: %v", err)
	}
	if len(students) == 0 {
		logger.Error.Fatalf("No student data available to generate report")
	}

	path, err := service.GenerateReport(students, scope)
	if err != nil {
		logger.Error.Fatalf("Failed to generate report: %v", err)
	}

	logger.Info.Printf("Wrote %d rows to %s", len(students), path)
}
