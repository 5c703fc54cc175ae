package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shenikar/civic_incident_tracker/internal/models"
	"github.com/shenikar/civic_incident_tracker/internal/policy"
	"github.com/sirupsen/logrus"
)

// UpdateStatus переводит инцидент в новый статус и пишет запись в журнал.
// Граф переходов не ограничен: допустим переход из любого статуса в любой.
// Смена статуса и запись журнала выполняются репозиторием в одной транзакции.
func (s *incidentService) UpdateStatus(ctx context.Context, principal *models.Principal, id uuid.UUID, status models.Status, comment string) (*models.Incident, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":     "incident",
		"method":      "UpdateStatus",
		"incident_id": id,
		"new_status":  status,
	})
	log.Info("Attempting to change incident status")

	if err := policy.Authorize(principal, policy.ActionTransition); err != nil {
		log.WithError(err).Warn("Status change denied")
		return nil, err
	}
	log = log.WithField("user_id", principal.ID)

	if !status.IsValid() {
		err := models.NewValidationError("status", fmt.Sprintf("%q is not a valid choice", status))
		log.WithError(err).Warn("Invalid target status")
		return nil, err
	}

	incident, entry, err := s.repo.TransitionStatus(ctx, id, status, comment, principal.UserID())
	if err != nil {
		log.WithError(err).Warn("Failed to change incident status in repository")
		return nil, fmt.Errorf("service: could not change status: %w", err)
	}
	s.refresh(ctx, log, incident)

	log.WithFields(logrus.Fields{
		"old_status": entry.OldStatus,
		"history_id": entry.ID,
	}).Info("Incident status changed")
	return incident, nil
}

// ListHistory возвращает журнал статусов инцидента, новые записи первыми
func (s *incidentService) ListHistory(ctx context.Context, principal *models.Principal, id uuid.UUID) ([]*models.StatusHistory, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":     "incident",
		"method":      "ListHistory",
		"incident_id": id,
	})
	log.Info("Fetching incident status history")

	if err := policy.Authorize(principal, policy.ActionViewHistory); err != nil {
		log.WithError(err).Warn("History access denied")
		return nil, err
	}

	history, err := s.repo.ListHistory(ctx, id)
	if err != nil {
		log.WithError(err).Warn("Failed to list history in repository")
		return nil, fmt.Errorf("service: could not list history: %w", err)
	}

	log.WithField("count", len(history)).Info("History fetched successfully")
	return history, nil
}
