package mirror

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"lifelink/pkg/types"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/xuri/excelize/v2"
)

// -- Mock Stores --

type mockDonorStore struct {
	mu     sync.Mutex
	donors []*types.Donor
}

func (m *mockDonorStore) DonorByEmailOrPhone(_ context.Context, email, phone string) (*types.Donor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.donors {
		if (email != "" && d.Email == email) || (phone != "" && d.Phone == phone) {
			cp := *d
			return &cp, nil
		}
	}
	return nil, types.ErrDonorNotFound
}

func (m *mockDonorStore) CreateDonor(_ context.Context, d *types.Donor) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d.ID == "" {
		d.ID = fmt.Sprintf("d-%d", len(m.donors)+1)
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now()
	}
	cp := *d
	m.donors = append(m.donors, &cp)
	return nil
}

func (m *mockDonorStore) UpdateDonor(_ context.Context, d *types.Donor) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, existing := range m.donors {
		if existing.ID == d.ID {
			cp := *d
			m.donors[i] = &cp
			return nil
		}
	}
	return types.ErrDonorNotFound
}

type mockPatientStore struct {
	patients []*types.Patient
	failOn   string
}

func (m *mockPatientStore) PatientByEmailOrPhone(_ context.Context, email, phone string) (*types.Patient, error) {
	for _, p := range m.patients {
		if (email != "" && p.Email == email) || (phone != "" && p.Phone == phone) {
			cp := *p
			return &cp, nil
		}
	}
	return nil, types.ErrPatientNotFound
}

func (m *mockPatientStore) CreatePatient(_ context.Context, p *types.Patient) error {
	if p.Email == m.failOn {
		return errors.New("connection refused")
	}
	p.ID = fmt.Sprintf("p-%d", len(m.patients)+1)
	cp := *p
	m.patients = append(m.patients, &cp)
	return nil
}

func (m *mockPatientStore) UpdatePatient(_ context.Context, p *types.Patient) error {
	for i, existing := range m.patients {
		if existing.ID == p.ID {
			cp := *p
			m.patients[i] = &cp
			return nil
		}
	}
	return types.ErrPatientNotFound
}

type recordingArchiver struct {
	mu    sync.Mutex
	names []string
}

func (r *recordingArchiver) Archive(_ context.Context, name string, _ []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.names = append(r.names, name)
	return nil
}

// -- Helpers --

func newTestMirror(t *testing.T) *Mirror {
	t.Helper()
	logger, _ := test.NewNullLogger()
	return New(filepath.Join(t.TempDir(), "data", "lifelink_db.xlsx"), logger, nil, nil)
}

func testDonor(id, email string) *types.DonorProfile {
	return &types.DonorProfile{
		ID:           id,
		Name:         "Donor " + id,
		Email:        email,
		Phone:        "98765" + fmt.Sprintf("%05d", len(id)),
		BloodType:    types.BloodTypeABNeg,
		Location:     types.Location{Point: types.Point{Longitude: 77.5946, Latitude: 12.9716}, Name: "Bengaluru"},
		Verified:     true,
		OTPVerified:  false,
		Availability: true,
		CreatedAt:    time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC),
	}
}

func buildWorkbook(t *testing.T, sheets map[string][][]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	for name, rows := range sheets {
		if _, err := f.NewSheet(name); err != nil {
			t.Fatalf("NewSheet: %v", err)
		}
		for i, row := range rows {
			cell, _ := excelize.CoordinatesToCellName(1, i+1)
			r := row
			if err := f.SetSheetRow(name, cell, &r); err != nil {
				t.Fatalf("SetSheetRow: %v", err)
			}
		}
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		t.Fatalf("DeleteSheet: %v", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("WriteToBuffer: %v", err)
	}
	return buf.Bytes()
}

func tempFiles(t *testing.T, dir string) []string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, ".tmp-*"))
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	return matches
}

// -- Append --

func TestAppendDonorThenSnapshot(t *testing.T) {
	m := newTestMirror(t)

	if _, err := m.Snapshot(); !errors.Is(err, ErrNoMirror) {
		t.Fatalf("expected ErrNoMirror before first append, got %v", err)
	}

	if err := m.AppendDonor(testDonor("a1", "a1@example.com")); err != nil {
		t.Fatalf("AppendDonor: %v", err)
	}
	before, err := m.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}

	src := testDonor("b22", "b22@example.com")
	if err := m.AppendDonor(src); err != nil {
		t.Fatalf("AppendDonor: %v", err)
	}
	after, err := m.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}

	if len(after.Donors) != len(before.Donors)+1 {
		t.Fatalf("expected exactly one more row, got %d -> %d", len(before.Donors), len(after.Donors))
	}

	got := after.Donors[len(after.Donors)-1]
	if got.ID != src.ID || got.Name != src.Name || got.Email != src.Email || got.Phone != src.Phone {
		t.Fatalf("identity fields differ: %+v", got.DonorProfile)
	}
	if got.BloodType != src.BloodType || got.Location != src.Location {
		t.Fatalf("blood type or location differ: %+v", got.DonorProfile)
	}
	if got.Verified != src.Verified || got.OTPVerified != src.OTPVerified || got.Availability != src.Availability {
		t.Fatalf("flags differ: %+v", got.DonorProfile)
	}
	if !got.CreatedAt.Equal(src.CreatedAt) {
		t.Fatalf("createdAt = %v, want %v", got.CreatedAt, src.CreatedAt)
	}
	if len(after.Errors) != 0 {
		t.Fatalf("unexpected row errors: %+v", after.Errors)
	}
}

func TestAppendPatientKeepsDonorSheet(t *testing.T) {
	m := newTestMirror(t)

	if err := m.AppendDonor(testDonor("d1", "d1@example.com")); err != nil {
		t.Fatalf("AppendDonor: %v", err)
	}
	err := m.AppendPatient(&types.Patient{
		ID:        "p1",
		Name:      "Asha",
		Email:     "asha@example.com",
		BloodType: types.BloodTypeOPos,
		Location:  types.Location{Point: types.Point{Longitude: 72.87, Latitude: 19.07}, Name: "Mumbai"},
		Urgency:   types.UrgencyCritical,
	})
	if err != nil {
		t.Fatalf("AppendPatient: %v", err)
	}

	snap, err := m.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if len(snap.Donors) != 1 || len(snap.Patients) != 1 {
		t.Fatalf("expected 1 donor and 1 patient, got %d/%d", len(snap.Donors), len(snap.Patients))
	}

	p, err := snap.Patient(context.Background(), "p1")
	if err != nil || p.Urgency != types.UrgencyCritical || p.Location.Name != "Mumbai" {
		t.Fatalf("patient lookup: %+v %v", p, err)
	}
	if _, err := snap.Patient(context.Background(), "nope"); !errors.Is(err, types.ErrPatientNotFound) {
		t.Fatalf("expected ErrPatientNotFound, got %v", err)
	}
}

func TestConcurrentAppendsLoseNothing(t *testing.T) {
	m := newTestMirror(t)

	const n = 16
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("c%02d", i)
			errs <- m.AppendDonor(testDonor(id, id+"@example.com"))
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("AppendDonor: %v", err)
		}
	}

	snap, err := m.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if len(snap.Donors) != n {
		t.Fatalf("expected %d rows, got %d", n, len(snap.Donors))
	}

	seen := make(map[string]bool)
	for _, d := range snap.Donors {
		seen[d.ID] = true
	}
	if len(seen) != n {
		t.Fatalf("expected %d distinct donors, got %d", n, len(seen))
	}

	if left := tempFiles(t, filepath.Dir(m.Path())); len(left) != 0 {
		t.Fatalf("temp files left behind: %v", left)
	}
}

func TestAppendRefusesToClobberUnreadableFile(t *testing.T) {
	m := newTestMirror(t)
	if err := os.MkdirAll(filepath.Dir(m.Path()), 0o755); err != nil {
		t.Fatal(err)
	}
	garbage := []byte("this is not a workbook")
	if err := os.WriteFile(m.Path(), garbage, 0o644); err != nil {
		t.Fatal(err)
	}

	err := m.AppendDonor(testDonor("x", "x@example.com"))
	if !errors.Is(err, types.ErrUpstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}

	got, _ := os.ReadFile(m.Path())
	if !bytes.Equal(got, garbage) {
		t.Fatalf("unreadable mirror was overwritten")
	}
}

// -- Export --

func TestExportDoesNotTouchLiveFile(t *testing.T) {
	m := newTestMirror(t)
	archiver := &recordingArchiver{}
	m.archiver = archiver

	donors := []*types.DonorProfile{testDonor("e1", "e1@example.com"), testDonor("e2", "e2@example.com")}
	patients := []*types.Patient{{ID: "p1", Name: "Ravi", Phone: "9000000000", BloodType: types.BloodTypeBPos, Urgency: types.UrgencyLow}}

	doc, err := m.Export(context.Background(), donors, patients)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}

	if _, err := os.Stat(m.Path()); !os.IsNotExist(err) {
		t.Fatalf("export created the live file: %v", err)
	}

	snap, err := ParseSnapshot(doc)
	if err != nil {
		t.Fatalf("ParseSnapshot: %v", err)
	}
	if len(snap.Donors) != 2 || len(snap.Patients) != 1 {
		t.Fatalf("export has %d donors / %d patients", len(snap.Donors), len(snap.Patients))
	}
	if len(archiver.names) != 1 || !strings.HasPrefix(archiver.names[0], "export-") {
		t.Fatalf("expected one export archive, got %v", archiver.names)
	}
}

func TestExportHeaders(t *testing.T) {
	m := newTestMirror(t)
	doc, err := m.Export(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(doc))
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()

	if got := f.GetSheetList(); len(got) != 2 || got[0] != DonorSheet || got[1] != PatientSheet {
		t.Fatalf("sheets = %v", got)
	}

	rows, _ := f.GetRows(DonorSheet)
	if len(rows) != 1 || strings.Join(rows[0], ",") != strings.Join(donorHeader, ",") {
		t.Fatalf("donor header = %v", rows)
	}
	rows, _ = f.GetRows(PatientSheet)
	if len(rows) != 1 || strings.Join(rows[0], ",") != strings.Join(patientHeader, ",") {
		t.Fatalf("patient header = %v", rows)
	}
}

// -- Import --

func TestImportUpdatesByEmailAndCreatesNovel(t *testing.T) {
	m := newTestMirror(t)
	archiver := &recordingArchiver{}
	m.archiver = archiver
	otp := "123456"
	donors := &mockDonorStore{donors: []*types.Donor{{
		DonorProfile: types.DonorProfile{
			ID:        "existing",
			Name:      "Old Name",
			Email:     "known@example.com",
			Phone:     "9111111111",
			BloodType: types.BloodTypeAPos,
			CreatedAt: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		},
		OTP: &otp,
	}}}
	patients := &mockPatientStore{}

	doc := buildWorkbook(t, map[string][][]any{
		DonorSheet: {
			headerRow(donorHeader),
			{"ignored", "New Name", "known@example.com", "9111111111", "O-", "Pune", 73.85, 18.52, true, true, false, ""},
			{"", "Fresh", "fresh@example.com", "9222222222", "b+", "", "", "", false, "", "", ""},
		},
	})

	summary, err := m.Import(context.Background(), doc, Stores{Donors: donors, Patients: patients})
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if summary.DonorsImported != 2 || summary.Created != 1 || summary.Updated != 1 || summary.Failed != 0 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if len(donors.donors) != 2 {
		t.Fatalf("expected 2 donors, got %d", len(donors.donors))
	}

	updated := donors.donors[0]
	if updated.ID != "existing" || updated.Name != "New Name" || updated.BloodType != types.BloodTypeONeg {
		t.Fatalf("existing donor not updated in place: %+v", updated.DonorProfile)
	}
	if updated.Availability || !updated.Verified || !updated.OTPVerified || updated.OTP != nil {
		t.Fatalf("flags or passcode not applied: %+v", updated)
	}
	if !updated.CreatedAt.Equal(time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("createdAt changed on update")
	}

	fresh := donors.donors[1]
	if fresh.ID == "" || fresh.ID == "ignored" || fresh.BloodType != types.BloodTypeBPos {
		t.Fatalf("unexpected new donor: %+v", fresh.DonorProfile)
	}
	if fresh.Location.Name != importedLocationName || fresh.Longitude != 0 || fresh.Latitude != 0 {
		t.Fatalf("location defaults not applied: %+v", fresh.Location)
	}
	if !fresh.Availability || fresh.Verified || fresh.OTPVerified {
		t.Fatalf("flag defaults not applied: %+v", fresh.DonorProfile)
	}

	live, err := m.Download()
	if err != nil || !bytes.Equal(live, doc) {
		t.Fatalf("live file is not the imported document (err=%v)", err)
	}
	if len(archiver.names) != 1 || !strings.HasPrefix(archiver.names[0], "import-") {
		t.Fatalf("expected one import archive, got %v", archiver.names)
	}
}

func TestImportMatchesByPhone(t *testing.T) {
	m := newTestMirror(t)
	patients := &mockPatientStore{patients: []*types.Patient{{ID: "p-1", Name: "Old", Email: "old@example.com", Phone: "9333333333", BloodType: types.BloodTypeAPos, Urgency: types.UrgencyLow}}}

	doc := buildWorkbook(t, map[string][][]any{
		PatientSheet: {
			{"mongoId", "name", "email", "phone", "bloodType", "locationName", "lng", "lat", "urgency", "createdAt"},
			{"abc", "Renamed", "new@example.com", "9333333333", "A-", "Delhi", 77.2, 28.6, "critical", ""},
		},
	})

	summary, err := m.Import(context.Background(), doc, Stores{Donors: &mockDonorStore{}, Patients: patients})
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if summary.PatientsImported != 1 || summary.Updated != 1 || len(patients.patients) != 1 {
		t.Fatalf("unexpected result: %+v, %d patients", summary, len(patients.patients))
	}
	p := patients.patients[0]
	if p.Name != "Renamed" || p.Email != "new@example.com" || p.Urgency != types.UrgencyCritical || p.BloodType != types.BloodTypeANeg {
		t.Fatalf("patient not overwritten: %+v", p)
	}
}

func TestAppendAfterImportFollowsSheetColumns(t *testing.T) {
	m := newTestMirror(t)

	doc := buildWorkbook(t, map[string][][]any{
		DonorSheet: {
			{"email", "name", "phone", "bloodType", "lat", "lng", "verified", "availability", "mongoId", "notes"},
			{"first@example.com", "First", "9444444444", "A+", 12.9, 77.6, true, true, "x1", "walk-in"},
		},
	})
	if _, err := m.Import(context.Background(), doc, Stores{Donors: &mockDonorStore{}, Patients: &mockPatientStore{}}); err != nil {
		t.Fatalf("Import: %v", err)
	}

	src := testDonor("d9", "d9@example.com")
	if err := m.AppendDonor(src); err != nil {
		t.Fatalf("AppendDonor: %v", err)
	}

	snap, err := m.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if len(snap.Errors) != 0 {
		t.Fatalf("unexpected row errors: %+v", snap.Errors)
	}
	if len(snap.Donors) != 2 {
		t.Fatalf("expected 2 donors, got %d", len(snap.Donors))
	}

	got := snap.Donors[1]
	if got.ID != src.ID || got.Name != src.Name || got.Email != src.Email || got.Phone != src.Phone {
		t.Fatalf("identity fields differ: %+v", got.DonorProfile)
	}
	if got.BloodType != src.BloodType || got.Location != src.Location {
		t.Fatalf("blood type or location differ: %+v", got.DonorProfile)
	}
	if got.Verified != src.Verified || got.OTPVerified != src.OTPVerified || got.Availability != src.Availability {
		t.Fatalf("flags differ: %+v", got.DonorProfile)
	}
	if !got.CreatedAt.Equal(src.CreatedAt) {
		t.Fatalf("createdAt = %v, want %v", got.CreatedAt, src.CreatedAt)
	}

	first := snap.Donors[0]
	if first.ID != "x1" || first.Email != "first@example.com" || first.BloodType != types.BloodTypeAPos {
		t.Fatalf("imported row changed: %+v", first.DonorProfile)
	}

	live, err := m.Download()
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(live))
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(DonorSheet)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	want := []string{"email", "name", "phone", "bloodType", "lat", "lng", "verified", "availability", "mongoId", "notes", "locationName", "otpVerified", "createdAt"}
	if strings.Join(rows[0], ",") != strings.Join(want, ",") {
		t.Fatalf("header = %v, want %v", rows[0], want)
	}
	if rows[1][9] != "walk-in" {
		t.Fatalf("notes column lost: %v", rows[1])
	}
}

func TestImportCountsBadRows(t *testing.T) {
	m := newTestMirror(t)
	donors := &mockDonorStore{}
	patients := &mockPatientStore{failOn: "down@example.com"}

	doc := buildWorkbook(t, map[string][][]any{
		DonorSheet: {
			headerRow(donorHeader),
			{"", "Bad Type", "bad@example.com", "", "Z+", "", 1, 1, true, true, true, ""},
			{"", "", "noname@example.com", "", "O+", "", 1, 1, true, true, true, ""},
			{"", "No Contact", "", "", "O+", "", 1, 1, true, true, true, ""},
			{"", "Bad Lat", "lat@example.com", "", "O+", "", 1, 123, true, true, true, ""},
			{"", "Good", "good@example.com", "", "O+", "", 1, 1, true, true, true, ""},
		},
		PatientSheet: {
			headerRow(patientHeader),
			{"", "Bad Urgency", "u@example.com", "", "A+", "", 0, 0, "someday", ""},
			{"", "Store Down", "down@example.com", "", "A+", "", 0, 0, "High", ""},
			{"", "Fine", "fine@example.com", "", "A+", "", 0, 0, "", ""},
		},
	})

	summary, err := m.Import(context.Background(), doc, Stores{Donors: donors, Patients: patients})
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if summary.DonorsImported != 1 || summary.PatientsImported != 1 || summary.Failed != 6 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if summary.Errors[0].Sheet != DonorSheet || summary.Errors[0].Row != 2 {
		t.Fatalf("first error should point at Donors row 2: %+v", summary.Errors[0])
	}
	if patients.patients[0].Urgency != types.UrgencyMedium {
		t.Fatalf("blank urgency should default to Medium, got %s", patients.patients[0].Urgency)
	}

	if _, err := os.Stat(m.Path()); err != nil {
		t.Fatalf("live file should be replaced despite row failures: %v", err)
	}
}

func TestImportRejectsUnparseableDocument(t *testing.T) {
	m := newTestMirror(t)
	if err := m.AppendDonor(testDonor("keep", "keep@example.com")); err != nil {
		t.Fatalf("AppendDonor: %v", err)
	}
	before, _ := os.ReadFile(m.Path())

	donors := &mockDonorStore{}
	tests := map[string][]byte{
		"garbage":     []byte("definitely not xlsx"),
		"wrong sheet": buildWorkbook(t, map[string][][]any{"Other": {{"a"}, {"b"}}}),
	}

	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := m.Import(context.Background(), doc, Stores{Donors: donors, Patients: &mockPatientStore{}})
			if !errors.Is(err, types.ErrInvalidInput) {
				t.Fatalf("expected InvalidInput, got %v", err)
			}

			after, _ := os.ReadFile(m.Path())
			if !bytes.Equal(before, after) {
				t.Fatalf("live file changed after rejected import")
			}
			if len(donors.donors) != 0 {
				t.Fatalf("rejected import wrote to the store")
			}
		})
	}

	if left := tempFiles(t, filepath.Dir(m.Path())); len(left) != 0 {
		t.Fatalf("temp files left behind: %v", left)
	}
}

func TestDownloadMissing(t *testing.T) {
	m := newTestMirror(t)
	_, err := m.Download()
	if !errors.Is(err, types.ErrNotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

// -- Row parsing --

func TestParseDonorOTPVerifiedDefaultsToVerified(t *testing.T) {
	rec := record{row: 2, values: map[string]string{
		colName: "A", colEmail: "A@Example.com", colBloodType: "ab-", colVerified: "TRUE",
	}}

	d, err := parseDonor(rec)
	if err != nil {
		t.Fatalf("parseDonor: %v", err)
	}
	if !d.Verified || !d.OTPVerified || !d.Eligible() {
		t.Fatalf("expected verified import to be eligible: %+v", d.DonorProfile)
	}
	if d.Email != "a@example.com" || d.BloodType != types.BloodTypeABNeg {
		t.Fatalf("normalization failed: %+v", d.DonorProfile)
	}
}

func TestParseTime(t *testing.T) {
	got, err := parseTime("2024-03-01T10:30:00Z")
	if err != nil || !got.Equal(time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)) {
		t.Fatalf("RFC3339: %v %v", got, err)
	}

	got, err = parseTime("45352")
	if err != nil || got.Year() != 2024 || got.Month() != time.March || got.Day() != 1 {
		t.Fatalf("serial: %v %v", got, err)
	}

	if _, err := parseTime("yesterday"); err == nil {
		t.Fatalf("expected error for free text")
	}
}
