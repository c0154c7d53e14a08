package mirror

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"lifelink/pkg/types"

	"github.com/xuri/excelize/v2"
)

const (
	DonorSheet   = "Donors"
	PatientSheet = "Patients"

	// ContentType is the media type of the workbook documents.
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	importedLocationName = "Imported Location"
)

var (
	donorHeader = []string{
		"id", "name", "email", "phone", "bloodType", "locationName",
		"lng", "lat", "verified", "otpVerified", "availability", "createdAt",
	}
	patientHeader = []string{
		"id", "name", "email", "phone", "bloodType", "locationName",
		"lng", "lat", "urgency", "createdAt",
	}

	// Older workbooks keyed rows by the document id column.
	headerAliases = map[string]string{
		"mongoid": "id",
		"_id":     "id",
	}
)

func donorRow(d *types.DonorProfile) []any {
	return []any{
		d.ID, d.Name, d.Email, d.Phone, d.BloodType.String(), d.Location.Name,
		d.Longitude, d.Latitude, d.Verified, d.OTPVerified, d.Availability,
		formatTime(d.CreatedAt),
	}
}

func patientRow(p *types.Patient) []any {
	return []any{
		p.ID, p.Name, p.Email, p.Phone, p.BloodType.String(), p.Location.Name,
		p.Longitude, p.Latitude, string(p.Urgency), formatTime(p.CreatedAt),
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func headerRow(header []string) []any {
	row := make([]any, len(header))
	for i, h := range header {
		row[i] = h
	}
	return row
}

// newWorkbook returns an empty workbook with both sheets and their headers.
func newWorkbook() (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", DonorSheet); err != nil {
		_ = f.Close()
		return nil, err
	}
	if err := ensureSheet(f, DonorSheet, donorHeader); err != nil {
		_ = f.Close()
		return nil, err
	}
	if err := ensureSheet(f, PatientSheet, patientHeader); err != nil {
		_ = f.Close()
		return nil, err
	}
	return f, nil
}

// ensureSheet creates the sheet if missing and writes the header into an
// empty sheet.
func ensureSheet(f *excelize.File, sheet string, header []string) error {
	idx, err := f.GetSheetIndex(sheet)
	if err != nil {
		return err
	}
	if idx == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("create sheet %s: %w", sheet, err)
		}
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	if len(rows) > 0 {
		return nil
	}

	row := headerRow(header)
	return f.SetSheetRow(sheet, "A1", &row)
}

// appendRow writes row after the last non-empty row of sheet. Each value
// lands under the column whose header names it, so a sheet with reordered
// or extra columns keeps its layout. Header cells the sheet lacks are added
// after its last header.
func appendRow(f *excelize.File, sheet string, header []string, row []any) error {
	if err := ensureSheet(f, sheet, header); err != nil {
		return err
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return fmt.Errorf("read sheet %s: %w", sheet, err)
	}

	var existing []string
	if len(rows) > 0 {
		existing = rows[0]
	}
	columns, err := headerColumns(f, sheet, existing, header)
	if err != nil {
		return err
	}

	next := max(len(rows), 1) + 1
	for i, v := range row {
		cell, err := excelize.CoordinatesToCellName(columns[i], next)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return fmt.Errorf("write %s %s: %w", sheet, cell, err)
		}
	}

	return nil
}

// headerColumns maps each name in header to its 1-based column in the
// sheet's existing header row, appending header cells for names not found.
func headerColumns(f *excelize.File, sheet string, existing, header []string) ([]int, error) {
	index := make(map[string]int, len(existing))
	for i, h := range existing {
		key := headerKey(h)
		if key == "" {
			continue
		}
		if _, seen := index[key]; !seen {
			index[key] = i + 1
		}
	}

	last := len(existing)
	columns := make([]int, len(header))
	for i, h := range header {
		key := headerKey(h)
		col, ok := index[key]
		if !ok {
			last++
			col = last
			cell, err := excelize.CoordinatesToCellName(col, 1)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheet, cell, h); err != nil {
				return nil, fmt.Errorf("write %s header %s: %w", sheet, h, err)
			}
			index[key] = col
		}
		columns[i] = col
	}

	return columns, nil
}

// headerKey normalizes a header cell for matching.
func headerKey(h string) string {
	key := strings.ToLower(strings.TrimSpace(h))
	if alias, ok := headerAliases[key]; ok {
		return alias
	}
	return key
}

// record is one sheet row keyed by normalized header name.
type record struct {
	row    int
	values map[string]string
}

func (r record) get(key string) string {
	return strings.TrimSpace(r.values[key])
}

// readSheet returns the data rows of sheet keyed by its header row. A
// missing sheet yields no records and ok=false.
func readSheet(f *excelize.File, sheet string) (records []record, ok bool, err error) {
	idx, err := f.GetSheetIndex(sheet)
	if err != nil {
		return nil, false, err
	}
	if idx == -1 {
		return nil, false, nil
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, true, fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, true, nil
	}

	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = headerKey(h)
	}

	for i, cells := range rows[1:] {
		values := make(map[string]string, len(header))
		empty := true
		for c, v := range cells {
			if c >= len(header) || header[c] == "" {
				continue
			}
			if strings.TrimSpace(v) != "" {
				empty = false
			}
			values[header[c]] = v
		}
		if empty {
			continue
		}
		records = append(records, record{row: i + 2, values: values})
	}

	return records, true, nil
}

// Header keys are matched case-insensitively.
const (
	colID           = "id"
	colName         = "name"
	colEmail        = "email"
	colPhone        = "phone"
	colBloodType    = "bloodtype"
	colLocationName = "locationname"
	colLng          = "lng"
	colLat          = "lat"
	colVerified     = "verified"
	colOTPVerified  = "otpverified"
	colAvailability = "availability"
	colUrgency      = "urgency"
	colCreatedAt    = "createdat"
)

func parseContact(rec record) (name, email, phone string, err error) {
	name = rec.get(colName)
	if name == "" {
		return "", "", "", types.NewFieldError("name", "is required")
	}
	email = strings.ToLower(rec.get(colEmail))
	phone = rec.get(colPhone)
	if email == "" && phone == "" {
		return "", "", "", types.NewFieldError("email", "email or phone is required")
	}
	return name, email, phone, nil
}

// parseLocation defaults blank coordinates to 0 and a blank name to
// "Imported Location".
func parseLocation(rec record) (types.Location, error) {
	lng, err := parseFloat(rec.get(colLng))
	if err != nil {
		return types.Location{}, types.NewFieldError("lng", err.Error())
	}
	lat, err := parseFloat(rec.get(colLat))
	if err != nil {
		return types.Location{}, types.NewFieldError("lat", err.Error())
	}

	loc := types.Location{
		Point: types.Point{Longitude: lng, Latitude: lat},
		Name:  rec.get(colLocationName),
	}
	if !loc.Valid() {
		return types.Location{}, types.NewFieldError("lng", "coordinates out of range")
	}
	if loc.Name == "" {
		loc.Name = importedLocationName
	}

	return loc, nil
}

func parseFloat(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", s)
	}
	return v, nil
}

func parseBool(s string, fallback bool) (bool, error) {
	switch strings.ToLower(s) {
	case "":
		return fallback, nil
	case "yes", "y":
		return true, nil
	case "no", "n":
		return false, nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("%q is not a boolean", s)
	}
	return v, nil
}

// parseTime accepts RFC3339 text or an Excel date serial.
func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		return excelize.ExcelDateToTime(serial, false)
	}
	return time.Time{}, fmt.Errorf("%q is not a timestamp", s)
}

func parseDonor(rec record) (*types.Donor, error) {
	name, email, phone, err := parseContact(rec)
	if err != nil {
		return nil, err
	}

	bloodType, err := types.ParseBloodType(rec.get(colBloodType))
	if err != nil {
		return nil, err
	}

	loc, err := parseLocation(rec)
	if err != nil {
		return nil, err
	}

	verified, err := parseBool(rec.get(colVerified), false)
	if err != nil {
		return nil, types.NewFieldError("verified", err.Error())
	}
	otpVerified, err := parseBool(rec.get(colOTPVerified), verified)
	if err != nil {
		return nil, types.NewFieldError("otpVerified", err.Error())
	}
	availability, err := parseBool(rec.get(colAvailability), true)
	if err != nil {
		return nil, types.NewFieldError("availability", err.Error())
	}
	createdAt, err := parseTime(rec.get(colCreatedAt))
	if err != nil {
		return nil, types.NewFieldError("createdAt", err.Error())
	}

	return &types.Donor{DonorProfile: types.DonorProfile{
		ID:           rec.get(colID),
		Name:         name,
		Email:        email,
		Phone:        phone,
		BloodType:    bloodType,
		Location:     loc,
		Verified:     verified,
		OTPVerified:  otpVerified,
		Availability: availability,
		CreatedAt:    createdAt,
	}}, nil
}

func parsePatient(rec record) (*types.Patient, error) {
	name, email, phone, err := parseContact(rec)
	if err != nil {
		return nil, err
	}

	bloodType, err := types.ParseBloodType(rec.get(colBloodType))
	if err != nil {
		return nil, err
	}

	urgency, err := types.ParseUrgency(rec.get(colUrgency))
	if err != nil {
		return nil, err
	}

	loc, err := parseLocation(rec)
	if err != nil {
		return nil, err
	}

	createdAt, err := parseTime(rec.get(colCreatedAt))
	if err != nil {
		return nil, types.NewFieldError("createdAt", err.Error())
	}

	return &types.Patient{
		ID:        rec.get(colID),
		Name:      name,
		Email:     email,
		Phone:     phone,
		BloodType: bloodType,
		Location:  loc,
		Urgency:   urgency,
		CreatedAt: createdAt,
	}, nil
}

// RowError reports one rejected row.
type RowError struct {
	Sheet   string `json:"sheet"`
	Row     int    `json:"row"`
	Message string `json:"message"`
}

func rowError(sheet string, row int, err error) RowError {
	return RowError{Sheet: sheet, Row: row, Message: err.Error()}
}
