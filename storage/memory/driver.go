package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"taxiservice/pkg/models"
	"taxiservice/storage"
)

type driverRepo struct {
	s *Store
}

func driverField(d models.Driver) func(string) string {
	return func(field string) string {
		switch field {
		case "username":
			return d.Username
		case "first_name":
			return d.FirstName
		case "last_name":
			return d.LastName
		case "email":
			return d.Email
		case "license_number":
			return d.LicenseNumber
		}
		return ""
	}
}

func (r driverRepo) List(_ context.Context, filter storage.DriverFilter) ([]*models.Driver, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []*models.Driver
	for _, d := range r.s.drivers {
		if !filter.Search.Match(driverField(d)) {
			continue
		}
		if filter.CarID != 0 {
			if _, ok := r.s.carDrivers[filter.CarID][d.ID]; !ok {
				continue
			}
		}
		d := d
		out = append(out, &d)
	}
	sort.Slice(out, func(i, j int) bool { return usernameLess(out[i].Username, out[j].Username) })
	return out, nil
}

func (r driverRepo) GetByID(_ context.Context, id int64) (*models.Driver, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	d, ok := r.s.drivers[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &d, nil
}

func (r driverRepo) GetByUsername(_ context.Context, username string) (*models.Driver, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, d := range r.s.drivers {
		if d.Username == username {
			return &d, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (r driverRepo) Create(_ context.Context, d *models.Driver) (*models.Driver, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.drivers {
		if existing.Username == d.Username {
			return nil, &storage.AlreadyExistsError{Field: "username"}
		}
		if existing.LicenseNumber == d.LicenseNumber {
			return nil, &storage.AlreadyExistsError{Field: "license_number"}
		}
	}
	created := *d
	created.ID = r.s.newID()
	created.DateJoined = r.s.now()
	created.LastLogin = nil
	created.SessionVersion = 0
	created.Cars = nil
	r.s.drivers[created.ID] = created
	return &created, nil
}

func (r driverRepo) UpdateLicense(_ context.Context, id int64, licenseNumber string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	d, ok := r.s.drivers[id]
	if !ok {
		return storage.ErrNotFound
	}
	for otherID, other := range r.s.drivers {
		if otherID != id && other.LicenseNumber == licenseNumber {
			return &storage.AlreadyExistsError{Field: "license_number"}
		}
	}
	d.LicenseNumber = licenseNumber
	r.s.drivers[id] = d
	return nil
}

func (r driverRepo) UpdateLastLogin(_ context.Context, id int64, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	d, ok := r.s.drivers[id]
	if !ok {
		return storage.ErrNotFound
	}
	d.LastLogin = &at
	r.s.drivers[id] = d
	return nil
}

func (r driverRepo) BumpSessionVersion(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	d, ok := r.s.drivers[id]
	if !ok {
		return storage.ErrNotFound
	}
	d.SessionVersion++
	r.s.drivers[id] = d
	return nil
}

func (r driverRepo) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.drivers[id]; !ok {
		return storage.ErrNotFound
	}
	delete(r.s.drivers, id)
	for _, set := range r.s.carDrivers {
		delete(set, id)
	}
	return nil
}

func (r driverRepo) Count(_ context.Context) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return len(r.s.drivers), nil
}

// usernameLess orders case-insensitively with a byte-wise tie break, the same
// order as the postgres store's lower(username) COLLATE "C", username COLLATE "C".
func usernameLess(a, b string) bool {
	la, lb := strings.ToLower(a), strings.ToLower(b)
	if la != lb {
		return la < lb
	}
	return a < b
}
