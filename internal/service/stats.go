package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/shenikar/civic_incident_tracker/internal/models"
	"github.com/shenikar/civic_incident_tracker/internal/policy"
	"github.com/sirupsen/logrus"
)

// GetDashboard считает сводную статистику по всем инцидентам.
// Кеширования нет: каждый вызов пересчитывает все группировки
// по одному согласованному снимку бд.
func (s *incidentService) GetDashboard(ctx context.Context, principal *models.Principal) (*models.Dashboard, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service": "incident",
		"method":  "GetDashboard",
	})
	log.Info("Computing dashboard stats")

	if err := policy.Authorize(principal, policy.ActionViewDashboard); err != nil {
		log.WithError(err).Warn("Dashboard access denied")
		return nil, err
	}

	dashboard, err := s.repo.DashboardCounts(ctx)
	if err != nil {
		log.WithError(err).Error("Failed to compute dashboard counts")
		return nil, fmt.Errorf("service: could not compute dashboard: %w", err)
	}
	dashboard.ByCity = normalizeCities(dashboard.ByCity)

	log.WithField("total", dashboard.Total).Info("Dashboard stats computed")
	return dashboard, nil
}

// normalizeCities убирает пустой город и упорядочивает по убыванию количества
func normalizeCities(in models.CityCounts) models.CityCounts {
	out := make(models.CityCounts, 0, len(in))
	for _, c := range in {
		if c.City == "" || c.Count <= 0 {
			continue
		}
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].City < out[j].City
	})
	return out
}
