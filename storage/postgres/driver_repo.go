package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"taxiservice/pkg/logger"
	"taxiservice/pkg/models"
	"taxiservice/storage"
)

const driverColumns = `id, username, password_hash, email, first_name, last_name, license_number,
	is_staff, is_superuser, is_active, date_joined, last_login, session_version`

var driverSearchColumns = map[string]string{
	"username":       "username",
	"first_name":     "first_name",
	"last_name":      "last_name",
	"email":          "email",
	"license_number": "license_number",
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDriver(row rowScanner) (*models.Driver, error) {
	var d models.Driver
	err := row.Scan(
		&d.ID, &d.Username, &d.PasswordHash, &d.Email, &d.FirstName, &d.LastName, &d.LicenseNumber,
		&d.IsStaff, &d.IsSuperuser, &d.IsActive, &d.DateJoined, &d.LastLogin, &d.SessionVersion,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

type driverRepo struct {
	db  *pgxpool.Pool
	log logger.ILogger
}

func NewDriverRepo(db *pgxpool.Pool, log logger.ILogger) storage.IDriverStorage {
	return &driverRepo{db: db, log: log}
}

func (r *driverRepo) List(ctx context.Context, filter storage.DriverFilter) ([]*models.Driver, error) {
	var where whereClause
	if err := where.search(filter.Search, driverSearchColumns); err != nil {
		return nil, err
	}
	if filter.CarID != 0 {
		where.and("id IN (SELECT driver_id FROM car_drivers WHERE car_id = " + where.arg(filter.CarID) + ")")
	}

	query := "SELECT " + driverColumns + " FROM drivers" + where.String() + " ORDER BY lower(username) COLLATE \"C\", username COLLATE \"C\""
	rows, err := r.db.Query(ctx, query, where.args...)
	if err != nil {
		r.log.Error("failed to list drivers", logger.Error(err))
		return nil, err
	}
	defer rows.Close()

	var drivers []*models.Driver
	for rows.Next() {
		d, err := scanDriver(rows)
		if err != nil {
			return nil, err
		}
		drivers = append(drivers, d)
	}
	return drivers, rows.Err()
}

func (r *driverRepo) GetByID(ctx context.Context, id int64) (*models.Driver, error) {
	d, err := scanDriver(r.db.QueryRow(ctx, "SELECT "+driverColumns+" FROM drivers WHERE id = $1", id))
	if err != nil {
		return nil, mapError(err)
	}
	return d, nil
}

func (r *driverRepo) GetByUsername(ctx context.Context, username string) (*models.Driver, error) {
	d, err := scanDriver(r.db.QueryRow(ctx, "SELECT "+driverColumns+" FROM drivers WHERE username = $1", username))
	if err != nil {
		return nil, mapError(err)
	}
	return d, nil
}

func (r *driverRepo) Create(ctx context.Context, d *models.Driver) (*models.Driver, error) {
	query := `
		INSERT INTO drivers (username, password_hash, email, first_name, last_name, license_number,
			is_staff, is_superuser, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + driverColumns
	created, err := scanDriver(r.db.QueryRow(ctx, query,
		d.Username, d.PasswordHash, d.Email, d.FirstName, d.LastName, d.LicenseNumber,
		d.IsStaff, d.IsSuperuser, d.IsActive,
	))
	if err != nil {
		r.log.Error("failed to create driver", logger.Error(err), logger.String("username", d.Username))
		return nil, mapError(err)
	}
	return created, nil
}

func (r *driverRepo) UpdateLicense(ctx context.Context, id int64, licenseNumber string) error {
	tag, err := r.db.Exec(ctx, "UPDATE drivers SET license_number = $1 WHERE id = $2", licenseNumber, id)
	if err != nil {
		r.log.Error("failed to update license number", logger.Error(err), logger.Int64("id", id))
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (r *driverRepo) UpdateLastLogin(ctx context.Context, id int64, at time.Time) error {
	_, err := r.db.Exec(ctx, "UPDATE drivers SET last_login = $1 WHERE id = $2", at, id)
	return err
}

func (r *driverRepo) BumpSessionVersion(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, "UPDATE drivers SET session_version = session_version + 1 WHERE id = $1", id)
	if err != nil {
		r.log.Error("failed to bump session version", logger.Error(err), logger.Int64("id", id))
		return err
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// Delete removes the driver and, through the join table cascade, its car assignments.
func (r *driverRepo) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, "DELETE FROM drivers WHERE id = $1", id)
	if err != nil {
		r.log.Error("failed to delete driver", logger.Error(err), logger.Int64("id", id))
		return err
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (r *driverRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, "SELECT count(*) FROM drivers").Scan(&count)
	return count, err
}
