// internal/db/queries.go
package db

import (
	"context"
	"database/sql"
	"time"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx so the same queries can run
// inside and outside a transaction.
type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

// Queries bundles all hand-written SQL against a DBTX.
type Queries struct {
	db DBTX
}

func NewQueries(db DBTX) *Queries {
	return &Queries{db: db}
}

type User struct {
	ID           int64
	Email        string
	Name         string
	Phone        sql.NullString
	PasswordHash sql.NullString
	IsAdmin      bool
	CreatedAt    time.Time
}

type Facility struct {
	ID        int64
	Name      string
	Sport     string
	IsIndoor  bool
	OpenTime  sql.NullString
	CloseTime sql.NullString
	Latitude  sql.NullFloat64
	Longitude sql.NullFloat64
	IsActive  bool
	CreatedAt time.Time
}

type Court struct {
	ID         int64
	FacilityID int64
	Name       string
	IsActive   bool
	CreatedAt  time.Time
}

type Booking struct {
	ID         int64
	UserID     int64
	FacilityID int64
	CourtID    int64
	StartTime  time.Time
	EndTime    time.Time
	Status     string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type Equipment struct {
	ID                int64
	FacilityID        int64
	Name              string
	TotalQuantity     int64
	AvailableQuantity int64
	CreatedAt         time.Time
}

type EquipmentRequest struct {
	ID        int64
	BookingID int64
	Status    string
	CreatedAt time.Time
}

type EquipmentRequestItem struct {
	RequestID   int64
	EquipmentID int64
	Quantity    int64
}

type BookingEvent struct {
	ID           string
	BookingID    int64
	EventType    string
	FacilityID   int64
	CourtID      int64
	StartTime    time.Time
	EndTime      time.Time
	CreatedAt    time.Time
	DispatchedAt sql.NullTime
}

type WeatherAlert struct {
	ID              int64
	FacilityID      int64
	AlertDate       string
	RainProbability float64
	Message         string
	CreatedAt       time.Time
}
