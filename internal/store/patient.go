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

var patientColumns = utils.StructTagValues(types.Patient{})

type PatientRepository struct {
	pool *pgxpool.Pool
}

func NewPatientRepository(pool *pgxpool.Pool) *PatientRepository {
	return &PatientRepository{pool: pool}
}

func (r *PatientRepository) Patient(ctx context.Context, patientID string) (*types.Patient, error) {
	query, args, err := psql().
		Select(patientColumns...).
		From(patientTableName).
		Where(sq.Eq{"id": patientID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate patient query: %w", err)
	}

	var patient types.Patient
	err = pgxscan.Get(ctx, r.pool, &patient, query, args...)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, types.ErrPatientNotFound
		}
		return nil, fmt.Errorf("failed to fetch patient: %w", err)
	}

	return &patient, nil
}

func (r *PatientRepository) PatientsByIDs(ctx context.Context, patientIDs []string) ([]*types.Patient, error) {
	if len(patientIDs) == 0 {
		return []*types.Patient{}, nil
	}

	query, args, err := psql().
		Select(patientColumns...).
		From(patientTableName).
		Where(sq.Eq{"id": patientIDs}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate patients-by-ids query: %w", err)
	}

	var patients []*types.Patient
	err = pgxscan.Select(ctx, r.pool, &patients, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch patients by ids: %w", err)
	}

	return patients, nil
}

// PatientByEmailOrPhone returns the oldest patient whose email or phone
// matches.
func (r *PatientRepository) PatientByEmailOrPhone(ctx context.Context, email, phone string) (*types.Patient, error) {
	if email == "" && phone == "" {
		return nil, types.ErrPatientNotFound
	}

	query, args, err := psql().
		Select(patientColumns...).
		From(patientTableName).
		Where(emailOrPhone(email, phone)).
		OrderBy("created_at ASC", "id ASC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate patient by contact query: %w", err)
	}

	var patient types.Patient
	err = pgxscan.Get(ctx, r.pool, &patient, query, args...)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, types.ErrPatientNotFound
		}
		return nil, fmt.Errorf("failed to fetch patient by contact: %w", err)
	}

	return &patient, nil
}

// Patients lists every patient, newest first.
func (r *PatientRepository) Patients(ctx context.Context) ([]*types.Patient, error) {
	query, args, err := psql().
		Select(patientColumns...).
		From(patientTableName).
		OrderBy("created_at DESC", "id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate patients query: %w", err)
	}

	patients := make([]*types.Patient, 0)
	err = pgxscan.Select(ctx, r.pool, &patients, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch patients: %w", err)
	}

	return patients, nil
}

func (r *PatientRepository) CreatePatient(ctx context.Context, patient *types.Patient) error {
	now := time.Now()
	if patient.ID == "" {
		patient.ID = utils.NanoID()
	}
	if patient.CreatedAt.IsZero() {
		patient.CreatedAt = now
	}
	patient.UpdatedAt = now

	query, args, err := psql().
		Insert(patientTableName).
		SetMap(utils.StructToMap(patient)).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate insert patient query: %w", err)
	}

	_, err = r.pool.Exec(ctx, query, args...)
	return utils.ErrorWrapOrNil(err, "failed to create patient")
}

// UpdatePatient overwrites every column of an existing patient except id and
// created_at. Only the import path edits patients.
func (r *PatientRepository) UpdatePatient(ctx context.Context, patient *types.Patient) error {
	patient.UpdatedAt = time.Now()

	patientMap := utils.StructToMap(patient)
	delete(patientMap, "id")
	delete(patientMap, "created_at")

	query, args, err := psql().
		Update(patientTableName).
		SetMap(patientMap).
		Where(sq.Eq{"id": patient.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate update patient query for patient %s: %w", patient.ID, err)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update patient: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrPatientNotFound
	}

	return nil
}
