package models

import (
	"time"

	"github.com/google/uuid"
)

// Status - статус инцидента в процессе рассмотрения
type Status string

const (
	StatusPending  Status = "pending"
	StatusInReview Status = "in_review"
	StatusResolved Status = "resolved"
	StatusRejected Status = "rejected"
)

// Statuses перечисляет все допустимые статусы
var Statuses = []Status{StatusPending, StatusInReview, StatusResolved, StatusRejected}

// IsValid проверяет, что статус входит в перечисление
func (s Status) IsValid() bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

// Category - категория городской проблемы
type Category string

const (
	CategoryRoad        Category = "road"
	CategoryElectricity Category = "electricity"
	CategoryWater       Category = "water"
	CategorySanitation  Category = "sanitation"
	CategorySafety      Category = "safety"
	CategoryOther       Category = "other"
)

var Categories = []Category{
	CategoryRoad,
	CategoryElectricity,
	CategoryWater,
	CategorySanitation,
	CategorySafety,
	CategoryOther,
}

func (c Category) IsValid() bool {
	for _, v := range Categories {
		if c == v {
			return true
		}
	}
	return false
}

const (
	MaxTitleLength = 180
	MaxCityLength  = 120
)

// Incident - обращение жителя о городской проблеме.
// Все поля, кроме Status и UpdatedAt, задаются один раз при создании.
type Incident struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    Category  `json:"category"`
	City        string    `json:"city"`
	Latitude    *float64  `json:"latitude"`
	Longitude   *float64  `json:"longitude"`
	ImageURL    string    `json:"image_url"`
	ReporterID  *int64    `json:"reporter"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// IncidentPage - страница результатов листинга
type IncidentPage struct {
	Items    []*Incident
	Total    int
	Page     int
	PageSize int
}
