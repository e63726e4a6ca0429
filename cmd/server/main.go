package main

import (
	"flag"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/campusops/enrolldesk/internal/app"
	"github.com/campusops/enrolldesk/internal/handlers"
)

func main() {
	var configPath = flag.String("config", "config.toml", "Path to config file")
	flag.Parse()

	service, err := app.NewService(*configPath)
	if err != nil {
		logger.Error.Fatalf("Failed to load config: %v", err)
	}
	defer service.Close()

	studentHandler := handlers.NewStudentHandler(service)

	http.HandleFunc("POST /api/v1/students", studentHandler.HandleRegister)
	http.HandleFunc("GET /api/v1/students", studentHandler.HandleListStudents)
	http.HandleFunc("GET /api/v1/students/check/{number}", studentHandler.HandleCheckRegisterNumber)
	http.HandleFunc("GET /api/v1/cohorts/{year}", studentHandler.HandleCohortInfo)
	http.HandleFunc("GET /api/v1/stats", studentHandler.HandleStats)
	http.HandleFunc("GET /api/v1/reports/students", studentHandler.HandleFullReport)
	http.HandleFunc("GET /api/v1/reports/weekly", studentHandler.HandleWeeklyReport)
	http.HandleFunc("GET /api/v1/reports/year/{year}", studentHandler.HandleYearReport)
	http.HandleFunc("GET /api/v1/reports/year/{year}/section/{section}", studentHandler.HandleYearSectionReport)

	http.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	http.Handle("/metrics", promhttp.Handler())

	logger.Info.Printf("Starting enrolldesk server on %s", service.Config.Server.Port)
	logger.Debug.Println("Requiring headers:")
	for _, h := range service.Config.API.RequiredHeaders {
		logger.Debug.Printf("  %s: %s", h.Name, h.Value)
	}
	if err := http.ListenAndServe(service.Config.Server.Port, nil); err != nil {
		logger.Error.Fatalf("Enrolldesk server failed: %v", err)
	}
}
