package v1

import "github.com/shenikar/civic_incident_tracker/internal/models"

// DTOToNewIncident преобразует DTO создания в входные данные сервиса
func DTOToNewIncident(dto CreateIncidentRequest) models.NewIncident {
	return models.NewIncident{
		Title:       dto.Title,
		Description: dto.Description,
		Category:    models.Category(dto.Category),
		City:        dto.City,
		Latitude:    dto.Latitude,
		Longitude:   dto.Longitude,
		ImageURL:    dto.ImageURL,
	}
}

// ModelToIncidentResponse преобразует доменную модель в DTO для ответа
func ModelToIncidentResponse(model *models.Incident) *IncidentResponse {
	return &IncidentResponse{
		ID:          model.ID,
		Title:       model.Title,
		Description: model.Description,
		Category:    string(model.Category),
		City:        model.City,
		Latitude:    model.Latitude,
		Longitude:   model.Longitude,
		ImageURL:    model.ImageURL,
		Reporter:    model.ReporterID,
		Status:      string(model.Status),
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}
}

// ModelsToIncidentResponses преобразует слайс моделей в слайс DTO
func ModelsToIncidentResponses(models []*models.Incident) []*IncidentResponse {
	responses := make([]*IncidentResponse, len(models))
	for i, model := range models {
		responses[i] = ModelToIncidentResponse(model)
	}
	return responses
}

// PageToListResponse преобразует страницу списка в DTO
func PageToListResponse(page *models.IncidentPage) *IncidentListResponse {
	return &IncidentListResponse{
		Count:    page.Total,
		Page:     page.Page,
		PageSize: page.PageSize,
		Results:  ModelsToIncidentResponses(page.Items),
	}
}

// ModelsToHistoryResponses преобразует журнал статусов в DTO, порядок сохраняется
func ModelsToHistoryResponses(history []*models.StatusHistory) []*StatusHistoryResponse {
	responses := make([]*StatusHistoryResponse, len(history))
	for i, entry := range history {
		responses[i] = &StatusHistoryResponse{
			ID:        entry.ID,
			Incident:  entry.IncidentID,
			OldStatus: string(entry.OldStatus),
			NewStatus: string(entry.NewStatus),
			Comment:   entry.Comment,
			ChangedBy: entry.ChangedBy,
			ChangedAt: entry.ChangedAt,
		}
	}
	return responses
}

func ModelToDashboardResponse(model *models.Dashboard) *DashboardResponse {
	return &DashboardResponse{
		TotalIncidents: model.Total,
		ByStatus:       model.ByStatus,
		ByCategory:     model.ByCategory,
		ByCity:         model.ByCity.Ordered(),
	}
}
