package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"taxiservice/storage"
)

const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

var uniqueFields = map[string]string{
	"manufacturers_name_key":     "name",
	"drivers_username_key":       "username",
	"drivers_license_number_key": "license_number",
}

var referenceFields = map[string]string{
	"cars_manufacturer_id_fkey":  "manufacturer",
	"car_drivers_driver_id_fkey": "drivers",
}

// mapError translates driver errors into storage sentinels.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return storage.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case codeUniqueViolation:
		if field, ok := uniqueFields[pgErr.ConstraintName]; ok {
			return &storage.AlreadyExistsError{Field: field}
		}
	case codeForeignKeyViolation:
		if pgErr.ConstraintName == "car_drivers_car_id_fkey" {
			return storage.ErrNotFound
		}
		if field, ok := referenceFields[pgErr.ConstraintName]; ok {
			return &storage.InvalidReferenceError{Field: field}
		}
	}
	return err
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == codeForeignKeyViolation
}
