package v1

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shenikar/civic_incident_tracker/internal/config"
	"github.com/shenikar/civic_incident_tracker/internal/models"
	"github.com/shenikar/civic_incident_tracker/internal/query"
	"github.com/shenikar/civic_incident_tracker/internal/service"
	"github.com/sirupsen/logrus"
)

type Handler struct {
	incidentService service.IncidentService
	logger          *logrus.Logger
	validate        *validator.Validate
	cfg             *config.Config
}

func NewHandler(incidentService service.IncidentService, logger *logrus.Logger, cfg *config.Config) *Handler {
	validate := validator.New()
	// В ошибках валидации используем имена полей из JSON
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &Handler{
		incidentService: incidentService,
		logger:          logger,
		validate:        validate,
		cfg:             cfg,
	}
}

// @Summary Create a new incident
// @Description Report a civic incident. Anonymous reports are allowed. Accepts JSON or multipart/form-data with an optional image file.
// @Tags Incidents
// @Accept json,mpfd
// @Produce json
// @Security BearerAuth
// @Param incident body CreateIncidentRequest true "Incident creation request"
// @Success 201 {object} IncidentResponse
// @Failure 400 {object} ErrorResponse "Invalid request body or validation error"
// @Failure 401 {object} ErrorResponse "Invalid token"
// @Failure 502 {object} ErrorResponse "Image upload failed"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /incidents [post]
func (h *Handler) createIncident(c *gin.Context) {
	var input CreateIncidentRequest
	var image *models.ImageUpload
	log := h.logger.WithField("method", "createIncident")

	if c.ContentType() == gin.MIMEMultipartPOSTForm {
		if err := c.ShouldBind(&input); err != nil {
			log.WithError(err).Warn("Failed to bind multipart form")
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		if err := bindFormCoordinates(c, &input); err != nil {
			h.respondError(c, log, err)
			return
		}

		fileHeader, err := c.FormFile("image")
		switch {
		case errors.Is(err, http.ErrMissingFile):
		case err != nil:
			log.WithError(err).Warn("Failed to read image file")
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid image file"})
			return
		default:
			file, err := fileHeader.Open()
			if err != nil {
				log.WithError(err).Warn("Failed to open image file")
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid image file"})
				return
			}
			defer file.Close()

			image = &models.ImageUpload{
				Filename:    fileHeader.Filename,
				ContentType: fileHeader.Header.Get("Content-Type"),
				Size:        fileHeader.Size,
				Body:        file,
			}
		}
	} else if err := c.ShouldBindJSON(&input); err != nil {
		log.WithError(err).Warn("Failed to bind JSON")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.validate.Struct(input); err != nil {
		h.respondError(c, log, validationErrorFrom(err))
		return
	}

	newIncident := DTOToNewIncident(input)
	newIncident.Image = image

	incident, err := h.incidentService.CreateIncident(c.Request.Context(), principalFromContext(c), newIncident)
	if err != nil {
		h.respondError(c, log, err)
		return
	}
	c.JSON(http.StatusCreated, ModelToIncidentResponse(incident))
}

// @Summary Get a list of incidents
// @Description Get a paginated, filtered list of incidents.
// @Tags Incidents
// @Produce json
// @Param status query string false "Status filter" Enums(pending, in_review, resolved, rejected)
// @Param category query string false "Category filter" Enums(road, electricity, water, sanitation, safety, other)
// @Param city query string false "City filter, case-insensitive"
// @Param from query string false "Created on or after date (YYYY-MM-DD)"
// @Param to query string false "Created on or before date (YYYY-MM-DD)"
// @Param ordering query string false "Ordering" Enums(created_at, -created_at)
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Number of items per page"
// @Success 200 {object} IncidentListResponse
// @Failure 400 {object} ErrorResponse "Malformed filter"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /incidents [get]
func (h *Handler) listIncidents(c *gin.Context) {
	log := h.logger.WithField("method", "listIncidents")

	filter, err := query.ParseFilter(c.Request.URL.Query())
	if err != nil {
		h.respondError(c, log, err)
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.Query("pageSize"))

	result, err := h.incidentService.ListIncidents(c.Request.Context(), principalFromContext(c), filter, page, pageSize)
	if err != nil {
		h.respondError(c, log, err)
		return
	}

	c.JSON(http.StatusOK, PageToListResponse(result))
}

// @Summary Get incident by ID
// @Description Get a single incident by its ID.
// @Tags Incidents
// @Produce json
// @Param id path string true "Incident ID"
// @Success 200 {object} IncidentResponse
// @Failure 400 {object} ErrorResponse "Invalid incident ID"
// @Failure 404 {object} ErrorResponse "Incident not found"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /incidents/{id} [get]
func (h *Handler) getIncident(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid incident ID"})
		return
	}
	log := h.logger.WithField("method", "getIncident").WithField("id", id)

	incident, err := h.incidentService.GetIncident(c.Request.Context(), principalFromContext(c), id)
	if err != nil {
		h.respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, ModelToIncidentResponse(incident))
}

// @Summary Change incident status
// @Description Move an incident to a new status and record the change in its history. Admin only.
// @Tags Incidents
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Incident ID"
// @Param status body UpdateStatusRequest true "New status and optional comment"
// @Success 200 {object} IncidentResponse
// @Failure 400 {object} ErrorResponse "Invalid incident ID, request body or status"
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Failure 403 {object} ErrorResponse "Forbidden"
// @Failure 404 {object} ErrorResponse "Incident not found"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /incidents/{id}/status [put]
func (h *Handler) updateStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid incident ID"})
		return
	}
	log := h.logger.WithField("method", "updateStatus").WithField("id", id)

	var input UpdateStatusRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		log.WithError(err).Warn("Failed to bind JSON")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.validate.Struct(input); err != nil {
		h.respondError(c, log, validationErrorFrom(err))
		return
	}

	incident, err := h.incidentService.UpdateStatus(c.Request.Context(), principalFromContext(c), id, models.Status(input.Status), input.Comment)
	if err != nil {
		h.respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, ModelToIncidentResponse(incident))
}

// @Summary Get incident status history
// @Description Get status changes of an incident, newest first. Admin only.
// @Tags Incidents
// @Produce json
// @Security BearerAuth
// @Param id path string true "Incident ID"
// @Success 200 {array} StatusHistoryResponse
// @Failure 400 {object} ErrorResponse "Invalid incident ID"
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Failure 403 {object} ErrorResponse "Forbidden"
// @Failure 404 {object} ErrorResponse "Incident not found"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /incidents/{id}/history [get]
func (h *Handler) getHistory(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid incident ID"})
		return
	}
	log := h.logger.WithField("method", "getHistory").WithField("id", id)

	history, err := h.incidentService.ListHistory(c.Request.Context(), principalFromContext(c), id)
	if err != nil {
		h.respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, ModelsToHistoryResponses(history))
}

// @Summary Get dashboard statistics
// @Description Get incident totals grouped by status, category and city. Admin only.
// @Tags Analytics
// @Produce json
// @Security BearerAuth
// @Success 200 {object} DashboardResponse
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Failure 403 {object} ErrorResponse "Forbidden"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /analytics/dashboard [get]
func (h *Handler) getDashboard(c *gin.Context) {
	log := h.logger.WithField("method", "getDashboard")

	dashboard, err := h.incidentService.GetDashboard(c.Request.Context(), principalFromContext(c))
	if err != nil {
		h.respondError(c, log, err)
		return
	}

	c.JSON(http.StatusOK, ModelToDashboardResponse(dashboard))
}

// @Summary Get application health status
// @Description Get health status of the application
// @Tags System
// @Accept json
// @Produce json
// @Success 200 {object} map[string]string "Status OK"
// @Router /system/health [get]
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// respondError переводит ошибку сервиса в HTTP-ответ
func (h *Handler) respondError(c *gin.Context, log *logrus.Entry, err error) {
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		log.WithError(err).Warn("Validation failed")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation failed", Fields: verr.Fields})
	case errors.Is(err, models.ErrUnauthenticated):
		log.WithError(err).Warn("Authentication required")
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "authentication required"})
	case errors.Is(err, models.ErrForbidden):
		log.WithError(err).Warn("Access denied")
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "forbidden"})
	case errors.Is(err, models.ErrNotFound):
		log.WithError(err).Warn("Incident not found")
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "incident not found"})
	case errors.Is(err, models.ErrUploadFailed):
		log.WithError(err).Error("Image upload failed")
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: "image upload failed"})
	default:
		log.WithError(err).Error("Request failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
	}
}

// bindFormCoordinates читает координаты из multipart-формы.
// Пустое поле означает отсутствие значения, а не ноль.
func bindFormCoordinates(c *gin.Context, input *CreateIncidentRequest) error {
	verr := &models.ValidationError{}
	input.Latitude = formCoordinate(c, "latitude", verr)
	input.Longitude = formCoordinate(c, "longitude", verr)
	if verr.HasErrors() {
		return verr
	}
	return nil
}

func formCoordinate(c *gin.Context, field string, verr *models.ValidationError) *float64 {
	raw := strings.TrimSpace(c.PostForm(field))
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		verr.Add(field, "must be a number")
		return nil
	}
	return &v
}

// validationErrorFrom собирает ошибки validator в ValidationError по полям
func validationErrorFrom(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return models.NewValidationError("body", err.Error())
	}
	verr := &models.ValidationError{}
	for _, fe := range fieldErrs {
		verr.Add(fe.Field(), fmt.Sprintf("failed on the '%s' tag", fe.Tag()))
	}
	return verr
}
