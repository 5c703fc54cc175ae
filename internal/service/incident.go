package service

//go:generate mockgen -source=incident.go -destination=mocks/mock_incident.go -package=mocks

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/shenikar/civic_incident_tracker/internal/config"
	"github.com/shenikar/civic_incident_tracker/internal/models"
	"github.com/shenikar/civic_incident_tracker/internal/policy"
	"github.com/shenikar/civic_incident_tracker/internal/query"
	"github.com/sirupsen/logrus"
)

// IncidentRepository определяет контракт для работы с бд инцидентов
type IncidentRepository interface {
	Create(ctx context.Context, incident *models.Incident) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Incident, error)
	ListIncidents(ctx context.Context, filter query.Filter, limit, offset int) ([]*models.Incident, error)
	CountIncidents(ctx context.Context, filter query.Filter) (int, error)
	TransitionStatus(ctx context.Context, id uuid.UUID, status models.Status, comment string, changedBy *int64) (*models.Incident, *models.StatusHistory, error)
	ListHistory(ctx context.Context, incidentID uuid.UUID) ([]*models.StatusHistory, error)
	DashboardCounts(ctx context.Context) (*models.Dashboard, error)
	ClearUserReferences(ctx context.Context, userID int64) ([]uuid.UUID, error)
}

// IncidentCache определяет контракт кеша инцидентов.
// Промах кеша возвращается как (nil, nil).
type IncidentCache interface {
	GetIncident(ctx context.Context, id uuid.UUID) (*models.Incident, error)
	SetIncident(ctx context.Context, incident *models.Incident) error
	InvalidateIncident(ctx context.Context, id uuid.UUID) error
}

// BlobStore сохраняет загруженные файлы и возвращает их публичный URL
type BlobStore interface {
	Upload(ctx context.Context, key string, body io.Reader, contentType string) (string, error)
}

// IncidentService определяет контракт бизнес-логики обращений
type IncidentService interface {
	CreateIncident(ctx context.Context, principal *models.Principal, input models.NewIncident) (*models.Incident, error)
	GetIncident(ctx context.Context, principal *models.Principal, id uuid.UUID) (*models.Incident, error)
	ListIncidents(ctx context.Context, principal *models.Principal, filter query.Filter, page, pageSize int) (*models.IncidentPage, error)
	UpdateStatus(ctx context.Context, principal *models.Principal, id uuid.UUID, status models.Status, comment string) (*models.Incident, error)
	ListHistory(ctx context.Context, principal *models.Principal, id uuid.UUID) ([]*models.StatusHistory, error)
	GetDashboard(ctx context.Context, principal *models.Principal) (*models.Dashboard, error)
	DetachUser(ctx context.Context, userID int64) error
}

type incidentService struct {
	repo   IncidentRepository
	cache  IncidentCache
	blobs  BlobStore
	logger *logrus.Logger
	cfg    *config.Config
}

// NewIncidentService создает сервис. cache и blobs могут быть nil:
// без кеша чтение идет напрямую в бд, без хранилища загрузка файлов отклоняется.
func NewIncidentService(repo IncidentRepository, cache IncidentCache, blobs BlobStore, logger *logrus.Logger, cfg *config.Config) IncidentService {
	return &incidentService{
		repo:   repo,
		cache:  cache,
		blobs:  blobs,
		logger: logger,
		cfg:    cfg,
	}
}

// CreateIncident создает обращение со статусом pending.
// Создавать обращения может любой пользователь, в том числе анонимный.
func (s *incidentService) CreateIncident(ctx context.Context, principal *models.Principal, input models.NewIncident) (*models.Incident, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service": "incident",
		"method":  "CreateIncident",
		"title":   input.Title,
	})
	log.Info("Attempting to create a new incident")

	if err := policy.Authorize(principal, policy.ActionCreate); err != nil {
		log.WithError(err).Warn("Create denied")
		return nil, err
	}

	incident, err := s.newIncident(input)
	if err != nil {
		log.WithError(err).Warn("Incident validation failed")
		return nil, err
	}
	incident.ReporterID = principal.UserID()

	if input.Image != nil {
		url, err := s.uploadImage(ctx, input.Image)
		if err != nil {
			log.WithError(err).Error("Failed to upload incident image")
			return nil, err
		}
		incident.ImageURL = url
	}

	if err := s.repo.Create(ctx, incident); err != nil {
		log.WithError(err).Error("Failed to create incident in repository")
		return nil, fmt.Errorf("service: could not create incident: %w", err)
	}

	log.WithField("incident_id", incident.ID).Info("Incident created successfully")
	return incident, nil
}

// newIncident проверяет входные данные и собирает модель
func (s *incidentService) newIncident(input models.NewIncident) (*models.Incident, error) {
	verr := &models.ValidationError{}

	title := strings.TrimSpace(input.Title)
	switch {
	case title == "":
		verr.Add("title", "is required")
	case len([]rune(title)) > models.MaxTitleLength:
		verr.Add("title", fmt.Sprintf("must be at most %d characters", models.MaxTitleLength))
	}
	description := strings.TrimSpace(input.Description)
	if description == "" {
		verr.Add("description", "is required")
	}

	category := input.Category
	if category == "" {
		category = models.CategoryOther
	}
	if !category.IsValid() {
		verr.Add("category", fmt.Sprintf("%q is not a valid category", category))
	}

	city := strings.TrimSpace(input.City)
	if len([]rune(city)) > models.MaxCityLength {
		verr.Add("city", fmt.Sprintf("must be at most %d characters", models.MaxCityLength))
	}

	if (input.Latitude == nil) != (input.Longitude == nil) {
		verr.Add("coordinates", "latitude and longitude must be provided together")
	}
	if input.Latitude != nil && (*input.Latitude < -90 || *input.Latitude > 90) {
		verr.Add("latitude", "must be between -90 and 90")
	}
	if input.Longitude != nil && (*input.Longitude < -180 || *input.Longitude > 180) {
		verr.Add("longitude", "must be between -180 and 180")
	}

	if img := input.Image; img != nil {
		if !strings.HasPrefix(img.ContentType, "image/") {
			verr.Add("image", "must be an image")
		}
		if s.cfg.MaxUploadBytes > 0 && img.Size > s.cfg.MaxUploadBytes {
			verr.Add("image", fmt.Sprintf("must be at most %d bytes", s.cfg.MaxUploadBytes))
		}
	}

	if verr.HasErrors() {
		return nil, verr
	}

	return &models.Incident{
		Title:       title,
		Description: description,
		Category:    category,
		City:        city,
		Latitude:    input.Latitude,
		Longitude:   input.Longitude,
		ImageURL:    strings.TrimSpace(input.ImageURL),
		Status:      models.StatusPending,
	}, nil
}

// uploadImage сохраняет файл в хранилище. Отсутствие хранилища - ошибка,
// а не молчаливый пустой URL.
func (s *incidentService) uploadImage(ctx context.Context, img *models.ImageUpload) (string, error) {
	if s.blobs == nil {
		return "", fmt.Errorf("%w: blob storage is not configured", models.ErrUploadFailed)
	}
	key := fmt.Sprintf("incidents/%s%s", uuid.New(), strings.ToLower(path.Ext(img.Filename)))
	url, err := s.blobs.Upload(ctx, key, img.Body, img.ContentType)
	if err != nil {
		return "", fmt.Errorf("%w: %v", models.ErrUploadFailed, err)
	}
	return url, nil
}

// GetIncident получает инцидент по ID, сначала из кеша
func (s *incidentService) GetIncident(ctx context.Context, principal *models.Principal, id uuid.UUID) (*models.Incident, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":     "incident",
		"method":      "GetIncident",
		"incident_id": id,
	})
	log.Info("Fetching incident by ID")

	if err := policy.Authorize(principal, policy.ActionRead); err != nil {
		log.WithError(err).Warn("Read denied")
		return nil, err
	}

	if s.cache != nil {
		cached, err := s.cache.GetIncident(ctx, id)
		if err != nil {
			log.WithError(err).Warn("Failed to read incident from cache")
		} else if cached != nil {
			log.Debug("Incident served from cache")
			return cached, nil
		}
	}

	incident, err := s.repo.GetByID(ctx, id)
	if err != nil {
		log.WithError(err).Warn("Failed to get incident in repository")
		return nil, fmt.Errorf("service: could not get incident: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.SetIncident(ctx, incident); err != nil {
			log.WithError(err).Warn("Failed to write incident to cache")
		}
	}

	log.Info("Incident fetched successfully")
	return incident, nil
}

// ListIncidents возвращает страницу отфильтрованных инцидентов
func (s *incidentService) ListIncidents(ctx context.Context, principal *models.Principal, filter query.Filter, page, pageSize int) (*models.IncidentPage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = s.cfg.DefaultPageSize
	}
	if pageSize > s.cfg.MaxPageSize {
		pageSize = s.cfg.MaxPageSize
	}

	log := s.logger.WithFields(logrus.Fields{
		"service":   "incident",
		"method":    "ListIncidents",
		"page":      page,
		"page_size": pageSize,
	})
	log.Info("Listing incidents")

	if err := policy.Authorize(principal, policy.ActionRead); err != nil {
		log.WithError(err).Warn("Read denied")
		return nil, err
	}

	total, err := s.repo.CountIncidents(ctx, filter)
	if err != nil {
		log.WithError(err).Error("Failed to count incidents in repository")
		return nil, fmt.Errorf("service: could not count incidents: %w", err)
	}

	incidents, err := s.repo.ListIncidents(ctx, filter, pageSize, (page-1)*pageSize)
	if err != nil {
		log.WithError(err).Error("Failed to list incidents from repository")
		return nil, fmt.Errorf("service: could not list incidents: %w", err)
	}

	log.WithField("count", len(incidents)).Info("Incidents listed successfully")
	return &models.IncidentPage{
		Items:    incidents,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}, nil
}

// DetachUser обнуляет ссылки на удаленного пользователя в обращениях и журнале
func (s *incidentService) DetachUser(ctx context.Context, userID int64) error {
	log := s.logger.WithFields(logrus.Fields{
		"service": "incident",
		"method":  "DetachUser",
		"user_id": userID,
	})
	log.Info("Clearing references to deleted user")

	ids, err := s.repo.ClearUserReferences(ctx, userID)
	if err != nil {
		log.WithError(err).Error("Failed to clear user references")
		return fmt.Errorf("service: could not detach user: %w", err)
	}
	for _, id := range ids {
		s.invalidate(ctx, log, id)
	}

	log.WithField("incidents", len(ids)).Info("User references cleared")
	return nil
}

// refresh кладет свежую версию обращения в кеш; если запись не удалась,
// старая версия удаляется, чтобы чтение не вернуло устаревший статус.
func (s *incidentService) refresh(ctx context.Context, log *logrus.Entry, incident *models.Incident) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetIncident(ctx, incident); err != nil {
		log.WithError(err).WithField("incident_id", incident.ID).Warn("Failed to refresh incident cache")
		s.invalidate(ctx, log, incident.ID)
	}
}

func (s *incidentService) invalidate(ctx context.Context, log *logrus.Entry, id uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateIncident(ctx, id); err != nil {
		log.WithError(err).WithField("incident_id", id).Warn("Failed to invalidate incident cache")
	}
}
