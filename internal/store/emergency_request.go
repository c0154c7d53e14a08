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

var emergencyRequestColumns = utils.StructTagValues(types.EmergencyRequest{})

type EmergencyRequestRepository struct {
	pool *pgxpool.Pool
}

func NewEmergencyRequestRepository(pool *pgxpool.Pool) *EmergencyRequestRepository {
	return &EmergencyRequestRepository{pool: pool}
}

func (r *EmergencyRequestRepository) CreateRequest(ctx context.Context, request *types.EmergencyRequest) error {
	now := time.Now()
	request.ID = utils.NanoID()
	request.CreatedAt = now
	request.UpdatedAt = now

	query, args, err := psql().
		Insert(emergencyRequestTableName).
		SetMap(utils.StructToMap(request)).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate insert emergency request query: %w", err)
	}

	_, err = r.pool.Exec(ctx, query, args...)
	return utils.ErrorWrapOrNil(err, "failed to create emergency request")
}

func (r *EmergencyRequestRepository) Request(ctx context.Context, requestID string) (*types.EmergencyRequest, error) {
	query, args, err := psql().
		Select(emergencyRequestColumns...).
		From(emergencyRequestTableName).
		Where(sq.Eq{"id": requestID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate emergency request query: %w", err)
	}

	var request types.EmergencyRequest
	err = pgxscan.Get(ctx, r.pool, &request, query, args...)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, types.ErrRequestNotFound
		}
		return nil, fmt.Errorf("failed to fetch emergency request: %w", err)
	}

	return &request, nil
}

// Requests returns the requests matching filter, oldest first. Status must
// already be resolved by the caller.
func (r *EmergencyRequestRepository) Requests(ctx context.Context, filter types.RequestFilter) ([]*types.EmergencyRequest, error) {
	builder := psql().
		Select(emergencyRequestColumns...).
		From(emergencyRequestTableName).
		Where(sq.Eq{"status": string(filter.Status)})

	if filter.BloodType != "" {
		builder = builder.Where(sq.Eq{"required_blood_type": string(filter.BloodType)})
	}
	if filter.Urgency != "" {
		builder = builder.Where(sq.Eq{"urgency": string(filter.Urgency)})
	}
	if filter.Geo != nil {
		builder = builder.Where(withinRadius(filter.Geo.Origin, filter.Geo.RadiusMeters))
	}

	query, args, err := builder.
		OrderBy("created_at ASC", "id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate emergency requests query: %w", err)
	}

	requests := make([]*types.EmergencyRequest, 0)
	err = pgxscan.Select(ctx, r.pool, &requests, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch emergency requests: %w", err)
	}

	return requests, nil
}

// TransitionRequest is a compare-and-set on status. Two concurrent calls for
// the same Pending request cannot both succeed.
func (r *EmergencyRequestRepository) TransitionRequest(ctx context.Context, requestID string, from, to types.RequestStatus) (*types.EmergencyRequest, error) {
	query, args, err := psql().
		Update(emergencyRequestTableName).
		Set("status", string(to)).
		Set("updated_at", time.Now()).
		Where(sq.Eq{"id": requestID, "status": string(from)}).
		Suffix("RETURNING " + joinColumns(emergencyRequestColumns)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate emergency request transition query: %w", err)
	}

	var request types.EmergencyRequest
	err = pgxscan.Get(ctx, r.pool, &request, query, args...)
	if err == nil {
		return &request, nil
	}
	if !pgxscan.NotFound(err) {
		return nil, fmt.Errorf("failed to transition emergency request: %w", err)
	}

	current, err := r.Request(ctx, requestID)
	if err != nil {
		return nil, err
	}

	return nil, fmt.Errorf("emergency request %s is %s, cannot move to %s: %w", requestID, current.Status, to, types.ErrInvalidTransition)
}
