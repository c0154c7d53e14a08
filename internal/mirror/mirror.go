package mirror

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sync"
	"time"

	"lifelink/internal/metrics"
	"lifelink/pkg/types"

	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
)

var ErrNoMirror = fmt.Errorf("mirror file %w", types.ErrNotFound)

// Archiver keeps a copy of exported and imported documents.
type Archiver interface {
	Archive(ctx context.Context, name string, doc []byte) error
}

// Mirror keeps a two-sheet workbook on disk in step with the primary store.
// Every mutation rewrites the whole file through a temp file and rename,
// serialized by mu. Readers never take mu.
type Mirror struct {
	path     string
	mu       sync.Mutex
	logger   *logrus.Logger
	archiver Archiver
	metrics  *metrics.Metrics
	now      func() time.Time
}

func New(path string, logger *logrus.Logger, archiver Archiver, m *metrics.Metrics) *Mirror {
	return &Mirror{
		path:     path,
		logger:   logger,
		archiver: archiver,
		metrics:  m,
		now:      time.Now,
	}
}

func (m *Mirror) Path() string {
	return m.path
}

// AppendDonor adds one row to the Donors sheet of the live file, creating
// the file if needed.
func (m *Mirror) AppendDonor(donor *types.DonorProfile) error {
	err := m.append(DonorSheet, donorHeader, donorRow(donor))
	m.metrics.ObserveMirrorWrite("append_donor", err)
	return err
}

// AppendPatient adds one row to the Patients sheet of the live file.
func (m *Mirror) AppendPatient(patient *types.Patient) error {
	err := m.append(PatientSheet, patientHeader, patientRow(patient))
	m.metrics.ObserveMirrorWrite("append_patient", err)
	return err
}

func (m *Mirror) append(sheet string, header []string, row []any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	f, err := m.open()
	if err != nil {
		return err
	}
	defer f.Close()

	if err := appendRow(f, sheet, header, row); err != nil {
		return fmt.Errorf("append to %s sheet: %w: %w", sheet, types.ErrUpstream, err)
	}

	err = writeFileAtomic(m.path, func(w io.Writer) error {
		_, err := f.WriteTo(w)
		return err
	})
	if err != nil {
		return fmt.Errorf("%w: %w", types.ErrUpstream, err)
	}

	return nil
}

// open reads the live workbook or starts a new one when the file does not
// exist. An unreadable file is an error; it is never overwritten by append.
func (m *Mirror) open() (*excelize.File, error) {
	f, err := excelize.OpenFile(m.path)
	if err == nil {
		return f, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return newWorkbook()
	}
	return nil, fmt.Errorf("open mirror %s: %w: %w", m.path, types.ErrUpstream, err)
}

// Export builds a fresh workbook from the full primary collections. The live
// file is not touched.
func (m *Mirror) Export(ctx context.Context, donors []*types.DonorProfile, patients []*types.Patient) ([]byte, error) {
	f, err := newWorkbook()
	if err != nil {
		return nil, fmt.Errorf("create workbook: %w", err)
	}
	defer f.Close()

	for _, d := range donors {
		if err := appendRow(f, DonorSheet, donorHeader, donorRow(d)); err != nil {
			return nil, fmt.Errorf("write donor %s: %w", d.ID, err)
		}
	}
	for _, p := range patients {
		if err := appendRow(f, PatientSheet, patientHeader, patientRow(p)); err != nil {
			return nil, fmt.Errorf("write patient %s: %w", p.ID, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("encode workbook: %w", err)
	}

	doc := buf.Bytes()
	m.archive(ctx, "export", doc)

	return doc, nil
}

type ImportSummary struct {
	DonorsImported   int        `json:"donorsImported"`
	PatientsImported int        `json:"patientsImported"`
	Created          int        `json:"created"`
	Updated          int        `json:"updated"`
	Failed           int        `json:"failed"`
	Errors           []RowError `json:"errors,omitempty"`
}

// Import reconciles every row of doc into stores and then makes doc the new
// live file. A document that cannot be parsed is rejected before any write.
// Bad rows are counted in the summary and do not stop the import.
func (m *Mirror) Import(ctx context.Context, doc []byte, stores Stores) (*ImportSummary, error) {
	f, err := excelize.OpenReader(bytes.NewReader(doc))
	if err != nil {
		return nil, fmt.Errorf("unreadable workbook: %w: %w", types.ErrInvalidInput, err)
	}

	donorRecords, hasDonors, err := readSheet(f, DonorSheet)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%w: %w", types.ErrInvalidInput, err)
	}
	patientRecords, hasPatients, err := readSheet(f, PatientSheet)
	_ = f.Close()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", types.ErrInvalidInput, err)
	}
	if !hasDonors && !hasPatients {
		return nil, fmt.Errorf("workbook has neither a %s nor a %s sheet: %w", DonorSheet, PatientSheet, types.ErrInvalidInput)
	}

	summary := &ImportSummary{}
	fail := func(sheet string, row int, err error) {
		summary.Failed++
		summary.Errors = append(summary.Errors, rowError(sheet, row, err))
	}
	count := func(created bool) {
		if created {
			summary.Created++
		} else {
			summary.Updated++
		}
	}

	for _, rec := range donorRecords {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		donor, err := parseDonor(rec)
		if err != nil {
			fail(DonorSheet, rec.row, err)
			continue
		}

		created, err := reconcileDonor(ctx, stores.Donors, donor)
		if err != nil {
			fail(DonorSheet, rec.row, err)
			continue
		}
		count(created)
		summary.DonorsImported++
	}

	for _, rec := range patientRecords {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		patient, err := parsePatient(rec)
		if err != nil {
			fail(PatientSheet, rec.row, err)
			continue
		}

		created, err := reconcilePatient(ctx, stores.Patients, patient)
		if err != nil {
			fail(PatientSheet, rec.row, err)
			continue
		}
		count(created)
		summary.PatientsImported++
	}

	m.logger.WithFields(logrus.Fields{
		"donors":   summary.DonorsImported,
		"patients": summary.PatientsImported,
		"failed":   summary.Failed,
	}).Info("workbook imported")

	err = m.Replace(doc)
	if err != nil {
		return summary, err
	}

	m.archive(ctx, "import", doc)

	return summary, nil
}

// Replace makes doc the live file.
func (m *Mirror) Replace(doc []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	err := writeFileAtomic(m.path, func(w io.Writer) error {
		_, err := w.Write(doc)
		return err
	})
	m.metrics.ObserveMirrorWrite("replace", err)
	if err != nil {
		return fmt.Errorf("%w: %w", types.ErrUpstream, err)
	}

	return nil
}

// Download returns the raw bytes of the live file.
func (m *Mirror) Download() ([]byte, error) {
	doc, err := os.ReadFile(m.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNoMirror
	}
	if err != nil {
		return nil, fmt.Errorf("read mirror: %w: %w", types.ErrUpstream, err)
	}
	return doc, nil
}

// Snapshot parses the live file.
func (m *Mirror) Snapshot() (*Snapshot, error) {
	doc, err := m.Download()
	if err != nil {
		return nil, err
	}
	return ParseSnapshot(doc)
}

func (m *Mirror) archive(ctx context.Context, kind string, doc []byte) {
	if m.archiver == nil {
		return
	}

	name := fmt.Sprintf("%s-%s.xlsx", kind, m.now().UTC().Format("20060102T150405Z"))
	if err := m.archiver.Archive(ctx, name, doc); err != nil {
		m.logger.WithError(err).WithField("name", name).Error("failed to archive workbook")
	}
}
