// internal/db/equipment.go
package db

import "context"

const equipmentColumns = "id, facility_id, name, total_quantity, available_quantity, created_at"

func scanEquipment(row interface{ Scan(...any) error }) (Equipment, error) {
	var e Equipment
	err := row.Scan(&e.ID, &e.FacilityID, &e.Name, &e.TotalQuantity, &e.AvailableQuantity, &e.CreatedAt)
	return e, err
}

type CreateEquipmentParams struct {
	FacilityID        int64
	Name              string
	TotalQuantity     int64
	AvailableQuantity int64
}

func (q *Queries) CreateEquipment(ctx context.Context, arg CreateEquipmentParams) (Equipment, error) {
	row := q.db.QueryRowContext(ctx, `
		INSERT INTO equipment (facility_id, name, total_quantity, available_quantity)
		VALUES (?, ?, ?, ?)
		RETURNING `+equipmentColumns,
		arg.FacilityID, arg.Name, arg.TotalQuantity, arg.AvailableQuantity,
	)
	return scanEquipment(row)
}

type UpdateEquipmentParams struct {
	ID                int64
	Name              string
	TotalQuantity     int64
	AvailableQuantity int64
}

func (q *Queries) UpdateEquipment(ctx context.Context, arg UpdateEquipmentParams) (Equipment, error) {
	row := q.db.QueryRowContext(ctx, `
		UPDATE equipment
		SET name = ?, total_quantity = ?, available_quantity = ?
		WHERE id = ?
		RETURNING `+equipmentColumns,
		arg.Name, arg.TotalQuantity, arg.AvailableQuantity, arg.ID,
	)
	return scanEquipment(row)
}

func (q *Queries) GetEquipmentByID(ctx context.Context, id int64) (Equipment, error) {
	row := q.db.QueryRowContext(ctx,
		"SELECT "+equipmentColumns+" FROM equipment WHERE id = ?", id)
	return scanEquipment(row)
}

func (q *Queries) ListEquipmentByFacility(ctx context.Context, facilityID int64) ([]Equipment, error) {
	rows, err := q.db.QueryContext(ctx,
		"SELECT "+equipmentColumns+" FROM equipment WHERE facility_id = ? ORDER BY name ASC",
		facilityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Equipment
	for rows.Next() {
		e, err := scanEquipment(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	return items, rows.Err()
}

func (q *Queries) CreateEquipmentRequest(ctx context.Context, bookingID int64) (EquipmentRequest, error) {
	var req EquipmentRequest
	err := q.db.QueryRowContext(ctx, `
		INSERT INTO equipment_requests (booking_id)
		VALUES (?)
		RETURNING id, booking_id, status, created_at`,
		bookingID,
	).Scan(&req.ID, &req.BookingID, &req.Status, &req.CreatedAt)
	return req, err
}

type AddEquipmentRequestItemParams struct {
	RequestID   int64
	EquipmentID int64
	Quantity    int64
}

func (q *Queries) AddEquipmentRequestItem(ctx context.Context, arg AddEquipmentRequestItemParams) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO equipment_request_items (request_id, equipment_id, quantity)
		VALUES (?, ?, ?)`,
		arg.RequestID, arg.EquipmentID, arg.Quantity,
	)
	return err
}

func (q *Queries) ListEquipmentRequestItems(ctx context.Context, requestID int64) ([]EquipmentRequestItem, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT request_id, equipment_id, quantity
		FROM equipment_request_items
		WHERE request_id = ?
		ORDER BY equipment_id ASC`,
		requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []EquipmentRequestItem
	for rows.Next() {
		var item EquipmentRequestItem
		if err := rows.Scan(&item.RequestID, &item.EquipmentID, &item.Quantity); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (q *Queries) GetEquipmentRequestForBooking(ctx context.Context, bookingID int64) (EquipmentRequest, error) {
	var req EquipmentRequest
	err := q.db.QueryRowContext(ctx, `
		SELECT id, booking_id, status, created_at
		FROM equipment_requests
		WHERE booking_id = ?`,
		bookingID,
	).Scan(&req.ID, &req.BookingID, &req.Status, &req.CreatedAt)
	return req, err
}
