package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shenikar/civic_incident_tracker/internal/models"
	"github.com/shenikar/civic_incident_tracker/internal/query"
	"github.com/shenikar/civic_incident_tracker/internal/service"
)

const incidentColumns = `
	id,
	title,
	description,
	category,
	city,
	latitude,
	longitude,
	image_url,
	reporter_id,
	status,
	created_at,
	updated_at`

// DB - часть pgxpool.Pool, которой пользуется репозиторий
type DB interface {
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type IncidentRepository struct {
	db DB
}

func NewIncidentRepository(db DB) service.IncidentRepository {
	return &IncidentRepository{db: db}
}

// inTx выполняет fn в транзакции. Ошибка fn откатывает транзакцию,
// иначе транзакция фиксируется; Rollback после Commit не вызывается.
func inTx(ctx context.Context, db DB, opts pgx.TxOptions, fn func(tx pgx.Tx) error) error {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// scanIncident читает строку с колонками incidentColumns
func scanIncident(row pgx.Row) (*models.Incident, error) {
	incident := &models.Incident{}
	err := row.Scan(
		&incident.ID,
		&incident.Title,
		&incident.Description,
		&incident.Category,
		&incident.City,
		&incident.Latitude,
		&incident.Longitude,
		&incident.ImageURL,
		&incident.ReporterID,
		&incident.Status,
		&incident.CreatedAt,
		&incident.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return incident, nil
}

// Create создает новую запись об инциденте в бд
func (r *IncidentRepository) Create(ctx context.Context, incident *models.Incident) error {
	query := `
		INSERT INTO incidents (title, description, category, city, latitude, longitude, image_url, reporter_id, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at;
	`
	err := r.db.QueryRow(ctx, query,
		incident.Title,
		incident.Description,
		string(incident.Category),
		incident.City,
		incident.Latitude,
		incident.Longitude,
		incident.ImageURL,
		incident.ReporterID,
		string(incident.Status),
	).Scan(&incident.ID, &incident.CreatedAt, &incident.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create incident: %w", err)
	}
	return nil
}

// GetByID возвращает инцидент по его UUID
func (r *IncidentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Incident, error) {
	query := `SELECT ` + incidentColumns + ` FROM incidents WHERE id = $1;`
	incident, err := scanIncident(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("incident with id %s: %w", id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get incident by id: %w", err)
	}
	return incident, nil
}

// ListIncidents возвращает страницу инцидентов, удовлетворяющих фильтру
func (r *IncidentRepository) ListIncidents(ctx context.Context, filter query.Filter, limit, offset int) ([]*models.Incident, error) {
	stmt := query.Build(filter)
	sql := `SELECT ` + incidentColumns + ` FROM incidents` + stmt.Where +
		` ORDER BY ` + stmt.OrderBy +
		fmt.Sprintf(` LIMIT $%d OFFSET $%d;`, stmt.NextArg(), stmt.NextArg()+1)
	args := append(stmt.Args, limit, offset)

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list incidents: %w", err)
	}
	defer rows.Close()

	incidents := make([]*models.Incident, 0)
	for rows.Next() {
		incident, err := scanIncident(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan incident row: %w", err)
		}
		incidents = append(incidents, incident)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error list iteration: %w", err)
	}
	return incidents, nil
}

// CountIncidents возвращает количество инцидентов, удовлетворяющих фильтру
func (r *IncidentRepository) CountIncidents(ctx context.Context, filter query.Filter) (int, error) {
	stmt := query.Build(filter)
	var count int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM incidents`+stmt.Where+`;`, stmt.Args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count incidents: %w", err)
	}
	return count, nil
}

// TransitionStatus меняет статус и добавляет запись журнала в одной транзакции.
// Строка инцидента блокируется до конца транзакции, поэтому конкурентные
// переходы выполняются последовательно и old_status всегда совпадает с замененным статусом.
func (r *IncidentRepository) TransitionStatus(ctx context.Context, id uuid.UUID, status models.Status, comment string, changedBy *int64) (*models.Incident, *models.StatusHistory, error) {
	var (
		incident *models.Incident
		entry    *models.StatusHistory
	)

	err := inTx(ctx, r.db, pgx.TxOptions{}, func(tx pgx.Tx) error {
		var oldStatus string
		err := tx.QueryRow(ctx, `SELECT status FROM incidents WHERE id = $1 FOR UPDATE;`, id).Scan(&oldStatus)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("incident with id %s: %w", id, models.ErrNotFound)
			}
			return fmt.Errorf("failed to lock incident: %w", err)
		}

		incident, err = scanIncident(tx.QueryRow(ctx, `
			UPDATE incidents SET
				status = $1,
				updated_at = clock_timestamp()
			WHERE id = $2
			RETURNING `+incidentColumns+`;`,
			string(status), id,
		))
		if err != nil {
			return fmt.Errorf("failed to update incident status: %w", err)
		}

		entry = &models.StatusHistory{
			IncidentID: id,
			OldStatus:  models.Status(oldStatus),
			NewStatus:  status,
			Comment:    comment,
			ChangedBy:  changedBy,
		}
		err = tx.QueryRow(ctx, `
			INSERT INTO status_history (incident_id, old_status, new_status, comment, changed_by, changed_at)
			VALUES ($1, $2, $3, $4, $5, clock_timestamp())
			RETURNING id, changed_at;`,
			id, oldStatus, string(status), comment, changedBy,
		).Scan(&entry.ID, &entry.ChangedAt)
		if err != nil {
			return fmt.Errorf("failed to append status history: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return incident, entry, nil
}

// ListHistory возвращает журнал статусов инцидента, новые записи первыми
func (r *IncidentRepository) ListHistory(ctx context.Context, incidentID uuid.UUID) ([]*models.StatusHistory, error) {
	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM incidents WHERE id = $1);`, incidentID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("failed to check incident: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("incident with id %s: %w", incidentID, models.ErrNotFound)
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, incident_id, old_status, new_status, comment, changed_by, changed_at
		FROM status_history
		WHERE incident_id = $1
		ORDER BY changed_at DESC, id DESC;`, incidentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list status history: %w", err)
	}
	defer rows.Close()

	history := make([]*models.StatusHistory, 0)
	for rows.Next() {
		entry := &models.StatusHistory{}
		if err := rows.Scan(
			&entry.ID,
			&entry.IncidentID,
			&entry.OldStatus,
			&entry.NewStatus,
			&entry.Comment,
			&entry.ChangedBy,
			&entry.ChangedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan status history row: %w", err)
		}
		history = append(history, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error history iteration: %w", err)
	}
	return history, nil
}

// ClearUserReferences обнуляет ссылки на удаленного пользователя.
// Возвращает ID инцидентов, у которых был сброшен автор.
func (r *IncidentRepository) ClearUserReferences(ctx context.Context, userID int64) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0)
	err := inTx(ctx, r.db, pgx.TxOptions{}, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `
			UPDATE incidents SET
				reporter_id = NULL,
				updated_at = NOW()
			WHERE reporter_id = $1
			RETURNING id;`, userID)
		if err != nil {
			return fmt.Errorf("failed to clear incident reporters: %w", err)
		}
		for rows.Next() {
			var id uuid.UUID
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return fmt.Errorf("failed to scan incident id: %w", err)
			}
			ids = append(ids, id)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return fmt.Errorf("error reporter iteration: %w", err)
		}

		if _, err := tx.Exec(ctx, `UPDATE status_history SET changed_by = NULL WHERE changed_by = $1;`, userID); err != nil {
			return fmt.Errorf("failed to clear status history actors: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}
