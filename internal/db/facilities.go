// internal/db/facilities.go
package db

import (
	"context"
	"database/sql"
)

const facilityColumns = "id, name, sport, is_indoor, open_time, close_time, latitude, longitude, is_active, created_at"

func scanFacility(row interface{ Scan(...any) error }) (Facility, error) {
	var f Facility
	err := row.Scan(&f.ID, &f.Name, &f.Sport, &f.IsIndoor, &f.OpenTime, &f.CloseTime,
		&f.Latitude, &f.Longitude, &f.IsActive, &f.CreatedAt)
	return f, err
}

type CreateFacilityParams struct {
	Name      string
	Sport     string
	IsIndoor  bool
	OpenTime  sql.NullString
	CloseTime sql.NullString
	Latitude  sql.NullFloat64
	Longitude sql.NullFloat64
}

func (q *Queries) CreateFacility(ctx context.Context, arg CreateFacilityParams) (Facility, error) {
	row := q.db.QueryRowContext(ctx, `
		INSERT INTO facilities (name, sport, is_indoor, open_time, close_time, latitude, longitude)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING `+facilityColumns,
		arg.Name, arg.Sport, arg.IsIndoor, arg.OpenTime, arg.CloseTime, arg.Latitude, arg.Longitude,
	)
	return scanFacility(row)
}

type UpdateFacilityParams struct {
	ID        int64
	Name      string
	Sport     string
	IsIndoor  bool
	OpenTime  sql.NullString
	CloseTime sql.NullString
	Latitude  sql.NullFloat64
	Longitude sql.NullFloat64
	IsActive  bool
}

func (q *Queries) UpdateFacility(ctx context.Context, arg UpdateFacilityParams) (Facility, error) {
	row := q.db.QueryRowContext(ctx, `
		UPDATE facilities
		SET name = ?, sport = ?, is_indoor = ?, open_time = ?, close_time = ?,
		    latitude = ?, longitude = ?, is_active = ?
		WHERE id = ?
		RETURNING `+facilityColumns,
		arg.Name, arg.Sport, arg.IsIndoor, arg.OpenTime, arg.CloseTime,
		arg.Latitude, arg.Longitude, arg.IsActive, arg.ID,
	)
	return scanFacility(row)
}

func (q *Queries) GetFacilityByID(ctx context.Context, id int64) (Facility, error) {
	row := q.db.QueryRowContext(ctx,
		"SELECT "+facilityColumns+" FROM facilities WHERE id = ?", id)
	return scanFacility(row)
}

func (q *Queries) ListFacilities(ctx context.Context) ([]Facility, error) {
	rows, err := q.db.QueryContext(ctx,
		"SELECT "+facilityColumns+" FROM facilities ORDER BY name ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var facilities []Facility
	for rows.Next() {
		f, err := scanFacility(rows)
		if err != nil {
			return nil, err
		}
		facilities = append(facilities, f)
	}
	return facilities, rows.Err()
}

// ListActiveOutdoorFacilities returns active outdoor facilities with
// coordinates, the only ones the weather sweep can evaluate.
func (q *Queries) ListActiveOutdoorFacilities(ctx context.Context) ([]Facility, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+facilityColumns+` FROM facilities
		WHERE is_active = 1 AND is_indoor = 0
		  AND latitude IS NOT NULL AND longitude IS NOT NULL
		ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var facilities []Facility
	for rows.Next() {
		f, err := scanFacility(rows)
		if err != nil {
			return nil, err
		}
		facilities = append(facilities, f)
	}
	return facilities, rows.Err()
}

const courtColumns = "id, facility_id, name, is_active, created_at"

func scanCourt(row interface{ Scan(...any) error }) (Court, error) {
	var c Court
	err := row.Scan(&c.ID, &c.FacilityID, &c.Name, &c.IsActive, &c.CreatedAt)
	return c, err
}

type CreateCourtParams struct {
	FacilityID int64
	Name       string
}

func (q *Queries) CreateCourt(ctx context.Context, arg CreateCourtParams) (Court, error) {
	row := q.db.QueryRowContext(ctx, `
		INSERT INTO courts (facility_id, name)
		VALUES (?, ?)
		RETURNING `+courtColumns,
		arg.FacilityID, arg.Name,
	)
	return scanCourt(row)
}

type UpdateCourtParams struct {
	ID       int64
	Name     string
	IsActive bool
}

func (q *Queries) UpdateCourt(ctx context.Context, arg UpdateCourtParams) (Court, error) {
	row := q.db.QueryRowContext(ctx, `
		UPDATE courts SET name = ?, is_active = ? WHERE id = ?
		RETURNING `+courtColumns,
		arg.Name, arg.IsActive, arg.ID,
	)
	return scanCourt(row)
}

func (q *Queries) GetCourtByID(ctx context.Context, id int64) (Court, error) {
	row := q.db.QueryRowContext(ctx,
		"SELECT "+courtColumns+" FROM courts WHERE id = ?", id)
	return scanCourt(row)
}

func (q *Queries) ListCourts(ctx context.Context, facilityID int64) ([]Court, error) {
	return q.listCourts(ctx, facilityID, false)
}

// ListActiveCourts returns active courts for a facility ordered by name so
// "any available court" selection scans in a stable, reproducible order.
func (q *Queries) ListActiveCourts(ctx context.Context, facilityID int64) ([]Court, error) {
	return q.listCourts(ctx, facilityID, true)
}

func (q *Queries) listCourts(ctx context.Context, facilityID int64, activeOnly bool) ([]Court, error) {
	query := "SELECT " + courtColumns + " FROM courts WHERE facility_id = ?"
	if activeOnly {
		query += " AND is_active = 1"
	}
	query += " ORDER BY name ASC"

	rows, err := q.db.QueryContext(ctx, query, facilityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var courts []Court
	for rows.Next() {
		c, err := scanCourt(rows)
		if err != nil {
			return nil, err
		}
		courts = append(courts, c)
	}
	return courts, rows.Err()
}
