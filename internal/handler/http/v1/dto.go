package v1

import (
	"time"

	"github.com/google/uuid"
	"github.com/shenikar/civic_incident_tracker/internal/models"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// CreateIncidentRequest DTO для создания инцидента.
// Принимается как JSON или как multipart/form-data с файлом image.
// @Description DTO для создания инцидента
type CreateIncidentRequest struct {
	Title       string   `json:"title" form:"title" validate:"required,max=180"`
	Description string   `json:"description" form:"description" validate:"required"`
	Category    string   `json:"category,omitempty" form:"category" validate:"omitempty,oneof=road electricity water sanitation safety other"`
	City        string   `json:"city,omitempty" form:"city" validate:"max=120"`
	Latitude    *float64 `json:"latitude,omitempty" form:"-" validate:"omitempty,latitude"`
	Longitude   *float64 `json:"longitude,omitempty" form:"-" validate:"omitempty,longitude"`
	ImageURL    string   `json:"image_url,omitempty" form:"image_url" validate:"omitempty,url"`
}

// UpdateStatusRequest DTO для смены статуса
// @Description DTO для смены статуса инцидента
type UpdateStatusRequest struct {
	Status  string `json:"status" validate:"required"`
	Comment string `json:"comment,omitempty"`
}

// IncidentResponse DTO для ответа с информацией об инциденте
// @Description DTO для ответа с информацией об инциденте
type IncidentResponse struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	City        string    `json:"city"`
	Latitude    *float64  `json:"latitude"`
	Longitude   *float64  `json:"longitude"`
	ImageURL    string    `json:"image_url"`
	Reporter    *int64    `json:"reporter"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// IncidentListResponse DTO для постраничного списка
// @Description Страница списка инцидентов
type IncidentListResponse struct {
	Count    int                 `json:"count"`
	Page     int                 `json:"page"`
	PageSize int                 `json:"page_size"`
	Results  []*IncidentResponse `json:"results"`
}

// StatusHistoryResponse DTO записи журнала статусов
// @Description Запись журнала статусов
type StatusHistoryResponse struct {
	ID        int64     `json:"id"`
	Incident  uuid.UUID `json:"incident"`
	OldStatus string    `json:"old_status"`
	NewStatus string    `json:"new_status"`
	Comment   string    `json:"comment"`
	ChangedBy *int64    `json:"changed_by"`
	ChangedAt time.Time `json:"changed_at"`
}

// DashboardResponse DTO сводной статистики
// @Description Сводная статистика для администратора
type DashboardResponse struct {
	TotalIncidents int                                 `json:"total_incidents"`
	ByStatus       map[models.Status]int               `json:"by_status"`
	ByCategory     map[models.Category]int             `json:"by_category"`
	ByCity         *orderedmap.OrderedMap[string, int] `json:"by_city" swaggertype:"object,integer"`
}

// ErrorResponse DTO ошибки. Fields заполняется для ошибок валидации.
// @Description Ошибка запроса
type ErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}
