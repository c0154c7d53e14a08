package store

import (
	"errors"
	"strings"

	"lifelink/pkg/types"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	donorTableName            = "donors"
	patientTableName          = "patients"
	emergencyRequestTableName = "emergency_requests"
	alertTableName            = "alerts"
)

const pgUniqueViolation = "23505"

func psql() sq.StatementBuilderType {
	return sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// Spherical (not spheroidal) distance in meters between the row's geog
// column and a point.
const geogOrigin = "ST_SetSRID(ST_MakePoint(?, ?), 4326)::geography"

func distanceFrom(origin types.Point) sq.Sqlizer {
	return sq.Expr("ST_Distance(geog, "+geogOrigin+", false)", origin.Longitude, origin.Latitude)
}

func withinRadius(origin types.Point, radiusMeters float64) sq.Sqlizer {
	return sq.Expr("ST_DWithin(geog, "+geogOrigin+", ?, false)", origin.Longitude, origin.Latitude, radiusMeters)
}

func emailOrPhone(email, phone string) sq.Sqlizer {
	or := sq.Or{}
	if email != "" {
		or = append(or, sq.Eq{"email": email})
	}
	if phone != "" {
		or = append(or, sq.Eq{"phone": phone})
	}
	return or
}

func joinColumns(columns []string) string {
	return strings.Join(columns, ", ")
}
