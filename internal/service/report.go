package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shenikar/resq_dispatch/internal/models"
	"github.com/sirupsen/logrus"
)

type ReportService interface {
	Report(ctx context.Context, from, to *time.Time) (*models.Report, error)
}

type reportService struct {
	repo   IncidentRepository
	logger *logrus.Logger
}

func NewReportService(repo IncidentRepository, logger *logrus.Logger) ReportService {
	return &reportService{repo: repo, logger: logger}
}

// Report считает сводку по инцидентам, созданным в [from, to] включительно.
// Время реагирования - от создания до первой записи о назначении экипажа, в минутах.
func (s *reportService) Report(ctx context.Context, from, to *time.Time) (*models.Report, error) {
	incidents, err := s.repo.ListIncidents(ctx)
	if err != nil {
		return nil, fmt.Errorf("service: could not build report: %w", err)
	}
	incidents = FilterIncidents(incidents, models.IncidentFilter{DateFrom: from, DateTo: to})

	report := &models.Report{
		TotalIncidents:      len(incidents),
		IncidentsByType:     make(map[models.IncidentType]int, len(models.IncidentTypes)),
		ResponseTimesByHour: make([]models.HourlyResponseTime, 24),
	}
	for _, t := range models.IncidentTypes {
		report.IncidentsByType[t] = 0
	}

	var (
		totalMinutes float64
		responded    int
		hourSum      [24]float64
		hourCount    [24]int
	)
	for _, inc := range incidents {
		report.IncidentsByType[inc.Type]++
		if inc.Status == models.StatusResolved {
			report.ResolvedIncidents++
		}

		delay, ok := responseDelay(inc)
		if !ok {
			continue
		}
		minutes := delay.Minutes()
		totalMinutes += minutes
		responded++
		h := inc.CreatedAt.Hour()
		hourSum[h] += minutes
		hourCount[h]++
	}

	if responded > 0 {
		report.AverageResponseTime = totalMinutes / float64(responded)
	}
	for h := range report.ResponseTimesByHour {
		report.ResponseTimesByHour[h].Hour = h
		if hourCount[h] > 0 {
			report.ResponseTimesByHour[h].AvgTime = hourSum[h] / float64(hourCount[h])
		}
	}

	s.logger.WithFields(logrus.Fields{
		"service": "report",
		"method":  "Report",
		"total":   report.TotalIncidents,
	}).Debug("Report built")
	return report, nil
}

func responseDelay(inc *models.Incident) (time.Duration, bool) {
	for _, entry := range inc.Timeline {
		if entry.Event == assignmentEvent {
			return entry.Timestamp.Sub(inc.CreatedAt), true
		}
	}
	return 0, false
}
