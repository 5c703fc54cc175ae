package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shenikar/civic_incident_tracker/internal/models"
)

// Все счетчики дашборда читаются из одного снимка
var dashboardTxOptions = pgx.TxOptions{
	IsoLevel:   pgx.RepeatableRead,
	AccessMode: pgx.ReadOnly,
}

// DashboardCounts считает общее количество и группировки по статусу,
// категории и городу в одной read-only транзакции REPEATABLE READ,
// поэтому суммы групп всегда совпадают с total.
func (r *IncidentRepository) DashboardCounts(ctx context.Context) (*models.Dashboard, error) {
	dashboard := &models.Dashboard{}
	err := inTx(ctx, r.db, dashboardTxOptions, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM incidents;`).Scan(&dashboard.Total); err != nil {
			return fmt.Errorf("failed to count incidents: %w", err)
		}

		var err error
		if dashboard.ByStatus, err = countByStatus(ctx, tx); err != nil {
			return err
		}
		if dashboard.ByCategory, err = countByCategory(ctx, tx); err != nil {
			return err
		}
		if dashboard.ByCity, err = countByCity(ctx, tx); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dashboard, nil
}

// countByStatus группирует инциденты по статусу. Отсутствующие статусы не попадают в результат.
func countByStatus(ctx context.Context, tx pgx.Tx) (map[models.Status]int, error) {
	rows, err := tx.Query(ctx, `SELECT status, COUNT(*) FROM incidents GROUP BY status;`)
	if err != nil {
		return nil, fmt.Errorf("failed to group incidents by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.Status]int)
	for rows.Next() {
		var (
			status string
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan status count: %w", err)
		}
		counts[models.Status(status)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error status count iteration: %w", err)
	}
	return counts, nil
}

func countByCategory(ctx context.Context, tx pgx.Tx) (map[models.Category]int, error) {
	rows, err := tx.Query(ctx, `SELECT category, COUNT(*) FROM incidents GROUP BY category;`)
	if err != nil {
		return nil, fmt.Errorf("failed to group incidents by category: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.Category]int)
	for rows.Next() {
		var (
			category string
			count    int
		)
		if err := rows.Scan(&category, &count); err != nil {
			return nil, fmt.Errorf("failed to scan category count: %w", err)
		}
		counts[models.Category(category)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error category count iteration: %w", err)
	}
	return counts, nil
}

// countByCity группирует инциденты по городу без пустого города,
// по убыванию количества
func countByCity(ctx context.Context, tx pgx.Tx) (models.CityCounts, error) {
	rows, err := tx.Query(ctx, `
		SELECT city, COUNT(*) AS cnt
		FROM incidents
		WHERE city <> ''
		GROUP BY city
		ORDER BY cnt DESC, city ASC;`)
	if err != nil {
		return nil, fmt.Errorf("failed to group incidents by city: %w", err)
	}
	defer rows.Close()

	counts := make(models.CityCounts, 0)
	for rows.Next() {
		var c models.CityCount
		if err := rows.Scan(&c.City, &c.Count); err != nil {
			return nil, fmt.Errorf("failed to scan city count: %w", err)
		}
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error city count iteration: %w", err)
	}
	return counts, nil
}
