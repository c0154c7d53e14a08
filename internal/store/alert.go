package store

import (
	"context"
	"fmt"
	"time"

	"lifelink/internal/utils"
	"lifelink/pkg/types"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgxpool"
)

var alertColumns = utils.StructTagValues(types.Alert{})

type AlertRepository struct {
	pool *pgxpool.Pool
}

func NewAlertRepository(pool *pgxpool.Pool) *AlertRepository {
	return &AlertRepository{pool: pool}
}

func (r *AlertRepository) CreateAlert(ctx context.Context, alert *types.Alert) error {
	alert.ID = utils.NanoID()
	alert.CreatedAt = time.Now()

	query, args, err := psql().
		Insert(alertTableName).
		SetMap(utils.StructToMap(alert)).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate insert alert query: %w", err)
	}

	_, err = r.pool.Exec(ctx, query, args...)
	return utils.ErrorWrapOrNil(err, "failed to record alert")
}

func (r *AlertRepository) AlertsByPatient(ctx context.Context, patientID string) ([]*types.Alert, error) {
	query, args, err := psql().
		Select(alertColumns...).
		From(alertTableName).
		Where(sq.Eq{"patient_id": patientID}).
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate alerts query: %w", err)
	}

	alerts := make([]*types.Alert, 0)
	err = pgxscan.Select(ctx, r.pool, &alerts, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch alerts: %w", err)
	}

	return alerts, nil
}
