package store

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"lifelink/pkg/types"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestDonorProfileColumnsExcludePasscode(t *testing.T) {
	for _, c := range donorProfileColumns {
		if c == "otp" || c == "otp_expires" {
			t.Fatalf("profile columns include passcode column %q", c)
		}
	}
	if len(donorColumns) != len(donorProfileColumns)+2 {
		t.Fatalf("donor columns = %v", donorColumns)
	}
}

func TestEmergencyRequestColumnsSkipPatient(t *testing.T) {
	for _, c := range emergencyRequestColumns {
		if c == "patient" || c == "-" {
			t.Fatalf("unexpected column %q", c)
		}
	}
}

func TestDistanceExpressions(t *testing.T) {
	origin := types.Point{Longitude: 77.5, Latitude: 12.9}

	query, args, err := psql().
		Select("id").
		Column(sq.Alias(distanceFrom(origin), "distance_meters")).
		From(donorTableName).
		Where(withinRadius(origin, 5000)).
		ToSql()
	if err != nil {
		t.Fatalf("ToSql: %v", err)
	}

	want := "SELECT id, (ST_Distance(geog, ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography, false)) AS distance_meters " +
		"FROM donors WHERE ST_DWithin(geog, ST_SetSRID(ST_MakePoint($3, $4), 4326)::geography, $5, false)"
	if query != want {
		t.Fatalf("query:\n got %s\nwant %s", query, want)
	}
	if fmt.Sprint(args) != "[77.5 12.9 77.5 12.9 5000]" {
		t.Fatalf("args = %v", args)
	}
}

func TestEmailOrPhone(t *testing.T) {
	tests := []struct {
		email, phone string
		want         string
	}{
		{"a@b.c", "", "(email = ?)"},
		{"", "9876543210", "(phone = ?)"},
		{"a@b.c", "9876543210", "(email = ? OR phone = ?)"},
	}
	for _, tt := range tests {
		got, _, err := emailOrPhone(tt.email, tt.phone).ToSql()
		if err != nil {
			t.Fatalf("ToSql: %v", err)
		}
		if got != tt.want {
			t.Fatalf("emailOrPhone(%q, %q) = %q, want %q", tt.email, tt.phone, got, tt.want)
		}
	}
}

func TestIsUniqueViolation(t *testing.T) {
	if !isUniqueViolation(fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})) {
		t.Fatalf("expected wrapped 23505 to be a unique violation")
	}
	if isUniqueViolation(&pgconn.PgError{Code: "23503"}) {
		t.Fatalf("foreign key violation reported as unique")
	}
	if isUniqueViolation(errors.New("boom")) || isUniqueViolation(nil) {
		t.Fatalf("plain errors are not unique violations")
	}
}

func TestJoinColumns(t *testing.T) {
	got := joinColumns([]string{"id", "status"})
	if got != "id, status" {
		t.Fatalf("joinColumns = %q", got)
	}
	if !strings.HasPrefix(joinColumns(emergencyRequestColumns), "id, patient_id") {
		t.Fatalf("unexpected column order: %s", joinColumns(emergencyRequestColumns))
	}
}
