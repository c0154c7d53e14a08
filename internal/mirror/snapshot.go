package mirror

import (
	"bytes"
	"context"
	"fmt"

	"lifelink/pkg/types"

	"github.com/xuri/excelize/v2"
)

// Snapshot is a parsed copy of a workbook. It can stand in for the patient
// store when matching offline.
type Snapshot struct {
	Donors   []*types.Donor
	Patients []*types.Patient
	Errors   []RowError

	patients map[string]*types.Patient
}

func ParseSnapshot(doc []byte) (*Snapshot, error) {
	f, err := excelize.OpenReader(bytes.NewReader(doc))
	if err != nil {
		return nil, fmt.Errorf("unreadable workbook: %w: %w", types.ErrInvalidInput, err)
	}
	defer f.Close()

	donorRecords, _, err := readSheet(f, DonorSheet)
	if err != nil {
		return nil, err
	}
	patientRecords, _, err := readSheet(f, PatientSheet)
	if err != nil {
		return nil, err
	}

	s := &Snapshot{
		Donors:   make([]*types.Donor, 0, len(donorRecords)),
		Patients: make([]*types.Patient, 0, len(patientRecords)),
		patients: make(map[string]*types.Patient, len(patientRecords)),
	}

	for _, rec := range donorRecords {
		d, err := parseDonor(rec)
		if err != nil {
			s.Errors = append(s.Errors, rowError(DonorSheet, rec.row, err))
			continue
		}
		s.Donors = append(s.Donors, d)
	}

	for _, rec := range patientRecords {
		p, err := parsePatient(rec)
		if err != nil {
			s.Errors = append(s.Errors, rowError(PatientSheet, rec.row, err))
			continue
		}
		s.Patients = append(s.Patients, p)
		if p.ID != "" {
			s.patients[p.ID] = p
		}
	}

	return s, nil
}

func (s *Snapshot) Patient(_ context.Context, patientID string) (*types.Patient, error) {
	p, ok := s.patients[patientID]
	if !ok {
		return nil, types.ErrPatientNotFound
	}
	return p, nil
}
