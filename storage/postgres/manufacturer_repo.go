package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"taxiservice/pkg/logger"
	"taxiservice/pkg/models"
	"taxiservice/storage"
)

var manufacturerSearchColumns = map[string]string{
	"name":    "name",
	"country": "country",
}

type manufacturerRepo struct {
	db  *pgxpool.Pool
	log logger.ILogger
}

func NewManufacturerRepo(db *pgxpool.Pool, log logger.ILogger) storage.IManufacturerStorage {
	return &manufacturerRepo{db: db, log: log}
}

func (r *manufacturerRepo) List(ctx context.Context, filter storage.ManufacturerFilter) ([]*models.Manufacturer, error) {
	var where whereClause
	if err := where.search(filter.Search, manufacturerSearchColumns); err != nil {
		return nil, err
	}

	query := "SELECT id, name, country FROM manufacturers" + where.String() + " ORDER BY name, id"
	rows, err := r.db.Query(ctx, query, where.args...)
	if err != nil {
		r.log.Error("failed to list manufacturers", logger.Error(err))
		return nil, err
	}
	defer rows.Close()

	var manufacturers []*models.Manufacturer
	for rows.Next() {
		var m models.Manufacturer
		if err := rows.Scan(&m.ID, &m.Name, &m.Country); err != nil {
			return nil, err
		}
		manufacturers = append(manufacturers, &m)
	}
	return manufacturers, rows.Err()
}

func (r *manufacturerRepo) GetByID(ctx context.Context, id int64) (*models.Manufacturer, error) {
	var m models.Manufacturer
	query := `SELECT id, name, country FROM manufacturers WHERE id = $1`
	if err := r.db.QueryRow(ctx, query, id).Scan(&m.ID, &m.Name, &m.Country); err != nil {
		return nil, mapError(err)
	}
	return &m, nil
}

func (r *manufacturerRepo) Create(ctx context.Context, m *models.Manufacturer) (*models.Manufacturer, error) {
	created := *m
	query := `INSERT INTO manufacturers (name, country) VALUES ($1, $2) RETURNING id`
	if err := r.db.QueryRow(ctx, query, m.Name, m.Country).Scan(&created.ID); err != nil {
		r.log.Error("failed to create manufacturer", logger.Error(err))
		return nil, mapError(err)
	}
	return &created, nil
}

func (r *manufacturerRepo) Update(ctx context.Context, m *models.Manufacturer) error {
	tag, err := r.db.Exec(ctx, `UPDATE manufacturers SET name = $1, country = $2 WHERE id = $3`, m.Name, m.Country, m.ID)
	if err != nil {
		r.log.Error("failed to update manufacturer", logger.Error(err), logger.Int64("id", m.ID))
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// Delete refuses to remove a manufacturer that still has cars.
func (r *manufacturerRepo) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM manufacturers WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return storage.ErrInUse
		}
		r.log.Error("failed to delete manufacturer", logger.Error(err), logger.Int64("id", id))
		return err
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (r *manufacturerRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, "SELECT count(*) FROM manufacturers").Scan(&count)
	return count, err
}
