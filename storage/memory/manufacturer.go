package memory

import (
	"context"
	"sort"

	"taxiservice/pkg/models"
	"taxiservice/storage"
)

type manufacturerRepo struct {
	s *Store
}

func manufacturerField(m models.Manufacturer) func(string) string {
	return func(field string) string {
		switch field {
		case "name":
			return m.Name
		case "country":
			return m.Country
		}
		return ""
	}
}

func (r manufacturerRepo) List(_ context.Context, filter storage.ManufacturerFilter) ([]*models.Manufacturer, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []*models.Manufacturer
	for _, m := range r.s.manufacturers {
		if !filter.Search.Match(manufacturerField(m)) {
			continue
		}
		m := m
		out = append(out, &m)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r manufacturerRepo) GetByID(_ context.Context, id int64) (*models.Manufacturer, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	m, ok := r.s.manufacturers[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &m, nil
}

func (r manufacturerRepo) Create(_ context.Context, m *models.Manufacturer) (*models.Manufacturer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.nameTaken(m.Name, 0) {
		return nil, &storage.AlreadyExistsError{Field: "name"}
	}
	created := *m
	created.ID = r.s.newID()
	r.s.manufacturers[created.ID] = created
	return &created, nil
}

func (r manufacturerRepo) Update(_ context.Context, m *models.Manufacturer) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.manufacturers[m.ID]; !ok {
		return storage.ErrNotFound
	}
	if r.nameTaken(m.Name, m.ID) {
		return &storage.AlreadyExistsError{Field: "name"}
	}
	r.s.manufacturers[m.ID] = *m
	return nil
}

func (r manufacturerRepo) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.manufacturers[id]; !ok {
		return storage.ErrNotFound
	}
	for _, c := range r.s.cars {
		if c.ManufacturerID == id {
			return storage.ErrInUse
		}
	}
	delete(r.s.manufacturers, id)
	return nil
}

func (r manufacturerRepo) Count(_ context.Context) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return len(r.s.manufacturers), nil
}

func (r manufacturerRepo) nameTaken(name string, except int64) bool {
	for id, m := range r.s.manufacturers {
		if id != except && m.Name == name {
			return true
		}
	}
	return false
}
