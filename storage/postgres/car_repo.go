package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"taxiservice/pkg/logger"
	"taxiservice/pkg/models"
	"taxiservice/storage"
)

const carSelect = `
	SELECT c.id, c.model, c.manufacturer_id, m.name, m.country,
		COALESCE(array_agg(cd.driver_id ORDER BY cd.driver_id) FILTER (WHERE cd.driver_id IS NOT NULL), '{}')
	FROM cars c
	JOIN manufacturers m ON m.id = c.manufacturer_id
	LEFT JOIN car_drivers cd ON cd.car_id = c.id`

const carGroupBy = " GROUP BY c.id, m.id"

var carSearchColumns = map[string]string{
	"model": "c.model",
}

func scanCar(row rowScanner) (*models.Car, error) {
	var (
		c models.Car
		m models.Manufacturer
	)
	if err := row.Scan(&c.ID, &c.Model, &c.ManufacturerID, &m.Name, &m.Country, &c.DriverIDs); err != nil {
		return nil, err
	}
	m.ID = c.ManufacturerID
	c.Manufacturer = &m
	return &c, nil
}

type carRepo struct {
	db  *pgxpool.Pool
	log logger.ILogger
}

func NewCarRepo(db *pgxpool.Pool, log logger.ILogger) storage.ICarStorage {
	return &carRepo{db: db, log: log}
}

func (r *carRepo) List(ctx context.Context, filter storage.CarFilter) ([]*models.Car, error) {
	var where whereClause
	if err := where.search(filter.Search, carSearchColumns); err != nil {
		return nil, err
	}
	if filter.ManufacturerID != 0 {
		where.and("c.manufacturer_id = " + where.arg(filter.ManufacturerID))
	}
	if filter.DriverID != 0 {
		where.and("c.id IN (SELECT car_id FROM car_drivers WHERE driver_id = " + where.arg(filter.DriverID) + ")")
	}

	query := carSelect + where.String() + carGroupBy + " ORDER BY c.id"
	rows, err := r.db.Query(ctx, query, where.args...)
	if err != nil {
		r.log.Error("failed to list cars", logger.Error(err))
		return nil, err
	}
	defer rows.Close()

	var cars []*models.Car
	for rows.Next() {
		c, err := scanCar(rows)
		if err != nil {
			return nil, err
		}
		cars = append(cars, c)
	}
	return cars, rows.Err()
}

func (r *carRepo) GetByID(ctx context.Context, id int64) (*models.Car, error) {
	c, err := scanCar(r.db.QueryRow(ctx, carSelect+" WHERE c.id = $1"+carGroupBy, id))
	if err != nil {
		return nil, mapError(err)
	}
	return c, nil
}

func (r *carRepo) Create(ctx context.Context, c *models.Car) (*models.Car, error) {
	created := *c
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		query := `INSERT INTO cars (model, manufacturer_id) VALUES ($1, $2) RETURNING id`
		if err := tx.QueryRow(ctx, query, c.Model, c.ManufacturerID).Scan(&created.ID); err != nil {
			return err
		}
		return replaceDrivers(ctx, tx, created.ID, c.DriverIDs)
	})
	if err != nil {
		r.log.Error("failed to create car", logger.Error(err), logger.String("model", c.Model))
		return nil, mapError(err)
	}
	created.DriverIDs = append([]int64(nil), c.DriverIDs...)
	return &created, nil
}

func (r *carRepo) Update(ctx context.Context, c *models.Car) error {
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `UPDATE cars SET model = $1, manufacturer_id = $2 WHERE id = $3`,
			c.Model, c.ManufacturerID, c.ID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return storage.ErrNotFound
		}
		return replaceDrivers(ctx, tx, c.ID, c.DriverIDs)
	})
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			r.log.Error("failed to update car", logger.Error(err), logger.Int64("id", c.ID))
		}
		return mapError(err)
	}
	return nil
}

// replaceDrivers makes driverIDs the complete driver set of the car.
func replaceDrivers(ctx context.Context, tx pgx.Tx, carID int64, driverIDs []int64) error {
	if _, err := tx.Exec(ctx, `DELETE FROM car_drivers WHERE car_id = $1`, carID); err != nil {
		return err
	}
	if len(driverIDs) == 0 {
		return nil
	}
	_, err := tx.Exec(ctx,
		`INSERT INTO car_drivers (car_id, driver_id) SELECT $1, unnest($2::bigint[]) ON CONFLICT DO NOTHING`,
		carID, driverIDs)
	return err
}

// Delete removes the car and its assignments; manufacturer and drivers stay.
func (r *carRepo) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM cars WHERE id = $1`, id)
	if err != nil {
		r.log.Error("failed to delete car", logger.Error(err), logger.Int64("id", id))
		return err
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (r *carRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, "SELECT count(*) FROM cars").Scan(&count)
	return count, err
}

func (r *carRepo) ToggleDriver(ctx context.Context, carID, driverID int64) (bool, error) {
	var assigned bool
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, "DELETE FROM car_drivers WHERE car_id = $1 AND driver_id = $2", carID, driverID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() > 0 {
			assigned = false
			return nil
		}
		if _, err := tx.Exec(ctx, "INSERT INTO car_drivers (car_id, driver_id) VALUES ($1, $2)", carID, driverID); err != nil {
			return err
		}
		assigned = true
		return nil
	})
	if err != nil {
		return false, mapError(err)
	}
	return assigned, nil
}
