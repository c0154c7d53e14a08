package store

import (
	"context"
	"fmt"
	"time"

	"lifelink/internal/matching"
	"lifelink/internal/utils"
	"lifelink/pkg/types"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/lo"
)

var (
	donorColumns        = utils.StructTagValues(types.Donor{})
	donorProfileColumns = utils.StructTagValues(types.DonorProfile{})
)

type DonorRepository struct {
	pool *pgxpool.Pool
}

func NewDonorRepository(pool *pgxpool.Pool) *DonorRepository {
	return &DonorRepository{pool: pool}
}

func (r *DonorRepository) Donor(ctx context.Context, donorID string) (*types.Donor, error) {
	query, args, err := psql().
		Select(donorColumns...).
		From(donorTableName).
		Where(sq.Eq{"id": donorID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate donor query: %w", err)
	}

	var donor types.Donor
	err = pgxscan.Get(ctx, r.pool, &donor, query, args...)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, types.ErrDonorNotFound
		}
		return nil, fmt.Errorf("failed to fetch donor: %w", err)
	}

	return &donor, nil
}

// DonorByEmailOrPhone returns the oldest donor whose email or phone matches.
func (r *DonorRepository) DonorByEmailOrPhone(ctx context.Context, email, phone string) (*types.Donor, error) {
	if email == "" && phone == "" {
		return nil, types.ErrDonorNotFound
	}

	query, args, err := psql().
		Select(donorColumns...).
		From(donorTableName).
		Where(emailOrPhone(email, phone)).
		OrderBy("created_at ASC", "id ASC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate donor by contact query: %w", err)
	}

	var donor types.Donor
	err = pgxscan.Get(ctx, r.pool, &donor, query, args...)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, types.ErrDonorNotFound
		}
		return nil, fmt.Errorf("failed to fetch donor by contact: %w", err)
	}

	return &donor, nil
}

// Donors lists every donor, newest first. Passcode columns are not selected.
func (r *DonorRepository) Donors(ctx context.Context) ([]*types.DonorProfile, error) {
	query, args, err := psql().
		Select(donorProfileColumns...).
		From(donorTableName).
		OrderBy("created_at DESC", "id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate donors query: %w", err)
	}

	donors := make([]*types.DonorProfile, 0)
	err = pgxscan.Select(ctx, r.pool, &donors, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch donors: %w", err)
	}

	return donors, nil
}

func (r *DonorRepository) CreateDonor(ctx context.Context, donor *types.Donor) error {
	now := time.Now()
	if donor.ID == "" {
		donor.ID = utils.NanoID()
	}
	if donor.CreatedAt.IsZero() {
		donor.CreatedAt = now
	}
	donor.UpdatedAt = now

	query, args, err := psql().
		Insert(donorTableName).
		SetMap(utils.StructToMap(donor)).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate insert donor query: %w", err)
	}

	_, err = r.pool.Exec(ctx, query, args...)
	if isUniqueViolation(err) {
		return types.ErrDuplicateDonor
	}

	return utils.ErrorWrapOrNil(err, "failed to create donor")
}

// UpdateDonor overwrites every column of an existing donor except id and
// created_at.
func (r *DonorRepository) UpdateDonor(ctx context.Context, donor *types.Donor) error {
	donor.UpdatedAt = time.Now()

	donorMap := utils.StructToMap(donor)
	delete(donorMap, "id")
	delete(donorMap, "created_at")

	query, args, err := psql().
		Update(donorTableName).
		SetMap(donorMap).
		Where(sq.Eq{"id": donor.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate update donor query for donor %s: %w", donor.ID, err)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if isUniqueViolation(err) {
		return types.ErrDuplicateDonor
	}
	if err != nil {
		return fmt.Errorf("failed to update donor: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrDonorNotFound
	}

	return nil
}

// MarkDonorVerified sets verified and otp_verified and clears the passcode,
// but only while the donor is not yet fully verified. When otp is non-nil the
// passcode must still be unconfirmed, equal to otp and unexpired at now. A
// write that matches no row returns ErrStaleWrite; the caller decides why.
func (r *DonorRepository) MarkDonorVerified(ctx context.Context, donorID string, otp *string, now time.Time) (*types.Donor, error) {
	conditions := sq.And{
		sq.Eq{"id": donorID},
		sq.Or{sq.Eq{"verified": false}, sq.Eq{"otp_verified": false}},
	}
	if otp != nil {
		conditions = append(conditions,
			sq.Eq{"otp_verified": false},
			sq.Eq{"otp": *otp},
			sq.Gt{"otp_expires": now},
		)
	}

	query, args, err := psql().
		Update(donorTableName).
		SetMap(map[string]any{
			"verified":     true,
			"otp_verified": true,
			"otp":          nil,
			"otp_expires":  nil,
			"updated_at":   now,
		}).
		Where(conditions).
		Suffix("RETURNING " + joinColumns(donorColumns)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate verify donor query: %w", err)
	}

	var donor types.Donor
	err = pgxscan.Get(ctx, r.pool, &donor, query, args...)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, types.ErrStaleWrite
		}
		return nil, fmt.Errorf("failed to verify donor: %w", err)
	}

	return &donor, nil
}

func (r *DonorRepository) SetDonorAvailability(ctx context.Context, donorID string, available bool) (*types.Donor, error) {
	query, args, err := psql().
		Update(donorTableName).
		Set("availability", available).
		Set("updated_at", time.Now()).
		Where(sq.Eq{"id": donorID}).
		Suffix("RETURNING " + joinColumns(donorColumns)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate donor availability query: %w", err)
	}

	var donor types.Donor
	err = pgxscan.Get(ctx, r.pool, &donor, query, args...)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, types.ErrDonorNotFound
		}
		return nil, fmt.Errorf("failed to update donor availability: %w", err)
	}

	return &donor, nil
}

// Nearest implements matching.GeoIndex on the PostGIS geography column.
// Equal distances are ordered by created_at then id.
func (r *DonorRepository) Nearest(ctx context.Context, origin types.Point, radiusMeters float64, predicate matching.DonorPredicate) ([]*types.DonorMatch, error) {
	builder := psql().
		Select(donorProfileColumns...).
		Column(sq.Alias(distanceFrom(origin), "distance_meters")).
		From(donorTableName).
		Where(withinRadius(origin, radiusMeters))

	if len(predicate.BloodTypes) > 0 {
		builder = builder.Where(sq.Eq{"blood_type": lo.Map(predicate.BloodTypes, func(bt types.BloodType, _ int) string {
			return bt.String()
		})})
	}

	if predicate.EligibleOnly {
		builder = builder.Where(sq.Eq{
			"verified":     true,
			"otp_verified": true,
			"availability": true,
		})
	}

	query, args, err := builder.
		OrderBy("distance_meters ASC", "created_at ASC", "id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate nearest donors query: %w", err)
	}

	matches := make([]*types.DonorMatch, 0)
	err = pgxscan.Select(ctx, r.pool, &matches, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch nearest donors: %w", err)
	}

	return matches, nil
}
