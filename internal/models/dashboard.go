package models

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// CityCount - количество инцидентов в городе
type CityCount struct {
	City  string
	Count int
}

// CityCounts - счетчики по городам в порядке выдачи
type CityCounts []CityCount

// Ordered собирает счетчики в упорядоченную map: JSON-объект
// сохраняет порядок элементов среза.
func (cc CityCounts) Ordered() *orderedmap.OrderedMap[string, int] {
	om := orderedmap.New[string, int]()
	for _, c := range cc {
		om.Set(c.City, c.Count)
	}
	return om
}

func (cc CityCounts) MarshalJSON() ([]byte, error) {
	return cc.Ordered().MarshalJSON()
}

// Dashboard - агрегированная статистика для администратора
type Dashboard struct {
	Total      int              `json:"total_incidents"`
	ByStatus   map[Status]int   `json:"by_status"`
	ByCategory map[Category]int `json:"by_category"`
	ByCity     CityCounts       `json:"by_city"`
}
