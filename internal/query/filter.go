// Package query собирает фильтрованную выборку инцидентов для публичного листинга.
package query

import (
	"net/url"
	"strings"
	"time"

	"github.com/shenikar/civic_incident_tracker/internal/models"
)

const dateLayout = "2006-01-02"

// Ordering - порядок сортировки листинга
type Ordering string

const (
	OrderCreatedAsc  Ordering = "created_at"
	OrderCreatedDesc Ordering = "-created_at"
)

// Filter - набор необязательных условий листинга, объединяемых через AND.
// Нулевое значение поля не накладывает ограничений.
type Filter struct {
	Status   models.Status
	Category models.Category
	City     string
	From     *time.Time
	To       *time.Time
	Ordering Ordering
}

// ParseFilter разбирает параметры запроса. Неизвестные параметры и
// неизвестные значения ordering игнорируются; некорректные даты - ошибка валидации.
func ParseFilter(values url.Values) (Filter, error) {
	f := Filter{
		Status:   models.Status(strings.TrimSpace(values.Get("status"))),
		Category: models.Category(strings.TrimSpace(values.Get("category"))),
		City:     strings.TrimSpace(values.Get("city")),
		Ordering: OrderCreatedDesc,
	}

	verr := &models.ValidationError{}
	if raw := strings.TrimSpace(values.Get("from")); raw != "" {
		d, err := time.Parse(dateLayout, raw)
		if err != nil {
			verr.Add("from", "must be a date in YYYY-MM-DD format")
		} else {
			f.From = &d
		}
	}
	if raw := strings.TrimSpace(values.Get("to")); raw != "" {
		d, err := time.Parse(dateLayout, raw)
		if err != nil {
			verr.Add("to", "must be a date in YYYY-MM-DD format")
		} else {
			f.To = &d
		}
	}
	if verr.HasErrors() {
		return Filter{}, verr
	}

	if o := Ordering(values.Get("ordering")); o == OrderCreatedAsc || o == OrderCreatedDesc {
		f.Ordering = o
	}
	return f, nil
}
