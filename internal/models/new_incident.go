package models

import "io"

// NewIncident - данные для создания инцидента
type NewIncident struct {
	Title       string
	Description string
	Category    Category
	City        string
	Latitude    *float64
	Longitude   *float64
	ImageURL    string
	Image       *ImageUpload
}

// ImageUpload - загружаемый файл изображения
type ImageUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}
