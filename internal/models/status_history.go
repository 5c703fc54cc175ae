package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// StatusHistory - неизменяемая запись журнала смены статуса
type StatusHistory struct {
	ID         int64     `json:"id"`
	IncidentID uuid.UUID `json:"incident_id"`
	OldStatus  Status    `json:"old_status"`
	NewStatus  Status    `json:"new_status"`
	Comment    string    `json:"comment"`
	ChangedBy  *int64    `json:"changed_by"`
	ChangedAt  time.Time `json:"changed_at"`
}

// ReplayStatus восстанавливает текущий статус инцидента по журналу.
// Журнал ожидается в порядке "новые первыми", как его отдает хранилище.
// Разрыв цепочки (OldStatus не совпадает с предыдущим NewStatus) возвращается ошибкой.
func ReplayStatus(newestFirst []*StatusHistory) (Status, error) {
	status := StatusPending
	for i := len(newestFirst) - 1; i >= 0; i-- {
		entry := newestFirst[i]
		if entry.OldStatus != status {
			return status, fmt.Errorf("history entry %d: expected old status %q, got %q", entry.ID, status, entry.OldStatus)
		}
		status = entry.NewStatus
	}
	return status, nil
}
