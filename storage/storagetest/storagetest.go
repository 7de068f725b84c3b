// Package storagetest holds the behaviour every storage.IStorage
// implementation must share.
package storagetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"taxiservice/pkg/models"
	"taxiservice/pkg/search"
	"taxiservice/storage"
)

// Factory returns an empty store.
type Factory func(t *testing.T) storage.IStorage

// Run executes the shared suite against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	suite.Run(t, &Suite{newStore: newStore})
}

type Suite struct {
	suite.Suite
	newStore Factory
	stg      storage.IStorage
	ctx      context.Context
}

func (s *Suite) SetupTest() {
	s.ctx = context.Background()
	s.stg = s.newStore(s.T())
}

func (s *Suite) TearDownTest() {
	s.stg.Close()
}

func (s *Suite) manufacturer(name, country string) *models.Manufacturer {
	m, err := s.stg.Manufacturer().Create(s.ctx, &models.Manufacturer{Name: name, Country: country})
	s.Require().NoError(err)
	return m
}

func (s *Suite) driver(username, license string) *models.Driver {
	d, err := s.stg.Driver().Create(s.ctx, &models.Driver{
		Username:      username,
		PasswordHash:  "hash",
		LicenseNumber: license,
		FirstName:     "F",
		LastName:      "L",
		IsActive:      true,
	})
	s.Require().NoError(err)
	return d
}

func (s *Suite) car(model string, manufacturerID int64, driverIDs ...int64) *models.Car {
	c, err := s.stg.Car().Create(s.ctx, &models.Car{Model: model, ManufacturerID: manufacturerID, DriverIDs: driverIDs})
	s.Require().NoError(err)
	return c
}

func (s *Suite) TestManufacturerSearchAndOrder() {
	second := s.manufacturer("SecondTestManufacturer", "SecondTestCountry")
	first := s.manufacturer("FirstTestManufacturer", "FirstTestCountry")

	all, err := s.stg.Manufacturer().List(s.ctx, storage.ManufacturerFilter{})
	s.Require().NoError(err)
	s.Require().Len(all, 2)
	s.Equal(first.ID, all[0].ID, "ordered by name")
	s.Equal(second.ID, all[1].ID)

	found, err := s.stg.Manufacturer().List(s.ctx, storage.ManufacturerFilter{
		Search: search.Single(search.New("name", "firsttest")),
	})
	s.Require().NoError(err)
	s.Require().Len(found, 1)
	s.Equal("FirstTestManufacturer", found[0].Name)
}

func (s *Suite) TestManufacturerUniqueName() {
	s.manufacturer("Toyota", "Japan")
	_, err := s.stg.Manufacturer().Create(s.ctx, &models.Manufacturer{Name: "Toyota", Country: "Elsewhere"})
	var exists *storage.AlreadyExistsError
	s.Require().ErrorAs(err, &exists)
	s.Equal("name", exists.Field)
}

func (s *Suite) TestManufacturerDeleteRestrictedByCars() {
	m := s.manufacturer("Toyota", "Japan")
	c := s.car("Corolla", m.ID)

	s.ErrorIs(s.stg.Manufacturer().Delete(s.ctx, m.ID), storage.ErrInUse)

	s.Require().NoError(s.stg.Car().Delete(s.ctx, c.ID))
	s.Require().NoError(s.stg.Manufacturer().Delete(s.ctx, m.ID))
	s.ErrorIs(s.stg.Manufacturer().Delete(s.ctx, m.ID), storage.ErrNotFound)
}

func (s *Suite) TestManufacturerUpdate() {
	m := s.manufacturer("Toyota", "Japan")
	m.Country = "JP"
	s.Require().NoError(s.stg.Manufacturer().Update(s.ctx, m))

	got, err := s.stg.Manufacturer().GetByID(s.ctx, m.ID)
	s.Require().NoError(err)
	s.Equal("JP", got.Country)

	s.ErrorIs(s.stg.Manufacturer().Update(s.ctx, &models.Manufacturer{ID: m.ID + 100, Name: "x", Country: "y"}), storage.ErrNotFound)
}

func (s *Suite) TestDriverUniqueness() {
	s.driver("testuser", "AAA11111")

	_, err := s.stg.Driver().Create(s.ctx, &models.Driver{Username: "testuser", PasswordHash: "h", LicenseNumber: "BBB22222"})
	var exists *storage.AlreadyExistsError
	s.Require().ErrorAs(err, &exists)
	s.Equal("username", exists.Field)

	_, err = s.stg.Driver().Create(s.ctx, &models.Driver{Username: "other", PasswordHash: "h", LicenseNumber: "AAA11111"})
	s.Require().ErrorAs(err, &exists)
	s.Equal("license_number", exists.Field)
}

func (s *Suite) TestDriverLookupsAndLicenseUpdate() {
	d := s.driver("testuser", "ABC12345")
	other := s.driver("other", "XYZ99999")

	byName, err := s.stg.Driver().GetByUsername(s.ctx, "testuser")
	s.Require().NoError(err)
	s.Equal(d.ID, byName.ID)
	s.Equal("hash", byName.PasswordHash)
	s.False(byName.DateJoined.IsZero())

	_, err = s.stg.Driver().GetByUsername(s.ctx, "missing")
	s.ErrorIs(err, storage.ErrNotFound)

	s.Require().NoError(s.stg.Driver().UpdateLicense(s.ctx, d.ID, "AAA11111"))
	got, err := s.stg.Driver().GetByID(s.ctx, d.ID)
	s.Require().NoError(err)
	s.Equal("AAA11111", got.LicenseNumber)
	s.Equal("testuser", got.Username, "identity untouched")
	s.Equal("hash", got.PasswordHash, "password untouched")

	var exists *storage.AlreadyExistsError
	s.ErrorAs(s.stg.Driver().UpdateLicense(s.ctx, d.ID, other.LicenseNumber), &exists)
	s.ErrorIs(s.stg.Driver().UpdateLicense(s.ctx, 999999, "QQQ11111"), storage.ErrNotFound)

	at := time.Now().UTC().Truncate(time.Second)
	s.Require().NoError(s.stg.Driver().UpdateLastLogin(s.ctx, d.ID, at))
	got, err = s.stg.Driver().GetByID(s.ctx, d.ID)
	s.Require().NoError(err)
	s.Require().NotNil(got.LastLogin)
	s.True(at.Equal(*got.LastLogin))
}

func (s *Suite) TestDriverSessionVersion() {
	d := s.driver("testuser", "ABC12345")
	s.Equal(0, d.SessionVersion)

	s.Require().NoError(s.stg.Driver().BumpSessionVersion(s.ctx, d.ID))
	s.Require().NoError(s.stg.Driver().BumpSessionVersion(s.ctx, d.ID))
	got, err := s.stg.Driver().GetByID(s.ctx, d.ID)
	s.Require().NoError(err)
	s.Equal(2, got.SessionVersion)

	s.ErrorIs(s.stg.Driver().BumpSessionVersion(s.ctx, 999999), storage.ErrNotFound)
}

func (s *Suite) TestDriverOrderIgnoresCase() {
	s.driver("bob", "BBB22222")
	s.driver("Alice", "AAA11111")
	s.driver("carol", "CCC33333")
	s.driver("Bob", "BBB44444")

	all, err := s.stg.Driver().List(s.ctx, storage.DriverFilter{})
	s.Require().NoError(err)
	names := make([]string, 0, len(all))
	for _, d := range all {
		names = append(names, d.Username)
	}
	s.Equal([]string{"Alice", "Bob", "bob", "carol"}, names)
}

func (s *Suite) TestDriverSearch() {
	s.driver("alice", "AAA11111")
	s.driver("bob", "BBB22222")

	found, err := s.stg.Driver().List(s.ctx, storage.DriverFilter{Search: search.Single(search.New("username", "ALI"))})
	s.Require().NoError(err)
	s.Require().Len(found, 1)
	s.Equal("alice", found[0].Username)

	all, err := s.stg.Driver().List(s.ctx, storage.DriverFilter{Search: search.Single(search.New("username", ""))})
	s.Require().NoError(err)
	s.Len(all, 2)
}

func (s *Suite) TestCarSearchAndManufacturerFilter() {
	m1 := s.manufacturer("First Manufacturer", "First Country")
	m2 := s.manufacturer("Second Manufacturer", "Second Country")
	first := s.car("FirstTestModel", m1.ID)
	s.car("SecondTestModel", m2.ID)

	found, err := s.stg.Car().List(s.ctx, storage.CarFilter{Search: search.Single(search.New("model", "FirstTestModel"))})
	s.Require().NoError(err)
	s.Require().Len(found, 1)
	s.Equal(first.ID, found[0].ID)
	s.Require().NotNil(found[0].Manufacturer)
	s.Equal("First Manufacturer", found[0].Manufacturer.Name)

	byMaker, err := s.stg.Car().List(s.ctx, storage.CarFilter{ManufacturerID: m1.ID})
	s.Require().NoError(err)
	s.Require().Len(byMaker, 1)
	s.Equal("FirstTestModel", byMaker[0].Model)

	all, err := s.stg.Car().List(s.ctx, storage.CarFilter{})
	s.Require().NoError(err)
	s.Require().Len(all, 2)
	s.Less(all[0].ID, all[1].ID)
}

func (s *Suite) TestCarDriverSetIsReplaced() {
	m := s.manufacturer("Toyota", "Japan")
	d1 := s.driver("d1", "AAA11111")
	d2 := s.driver("d2", "BBB22222")

	c := s.car("Corolla", m.ID, d1.ID)
	s.Equal([]int64{d1.ID}, c.DriverIDs)

	c.DriverIDs = []int64{d2.ID}
	s.Require().NoError(s.stg.Car().Update(s.ctx, c))

	got, err := s.stg.Car().GetByID(s.ctx, c.ID)
	s.Require().NoError(err)
	s.Equal([]int64{d2.ID}, got.DriverIDs)

	c.DriverIDs = nil
	s.Require().NoError(s.stg.Car().Update(s.ctx, c))
	got, err = s.stg.Car().GetByID(s.ctx, c.ID)
	s.Require().NoError(err)
	s.Empty(got.DriverIDs)
}

func (s *Suite) TestCarSaveIsAtomic() {
	m := s.manufacturer("Toyota", "Japan")
	d1 := s.driver("d1", "AAA11111")
	c := s.car("Corolla", m.ID, d1.ID)

	c.Model = "Camry"
	c.DriverIDs = []int64{d1.ID, 987654}
	var ref *storage.InvalidReferenceError
	s.Require().ErrorAs(s.stg.Car().Update(s.ctx, c), &ref)
	s.Equal("drivers", ref.Field)

	got, err := s.stg.Car().GetByID(s.ctx, c.ID)
	s.Require().NoError(err)
	s.Equal("Corolla", got.Model, "failed update leaves the car untouched")
	s.Equal([]int64{d1.ID}, got.DriverIDs)

	_, err = s.stg.Car().Create(s.ctx, &models.Car{Model: "Ghost", ManufacturerID: 987654})
	s.Require().ErrorAs(err, &ref)
	s.Equal("manufacturer", ref.Field)
	count, err := s.stg.Car().Count(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, count)
}

func (s *Suite) TestCarDeleteKeepsRelatedRecords() {
	m := s.manufacturer("Toyota", "Japan")
	d := s.driver("d1", "AAA11111")
	c := s.car("Corolla", m.ID, d.ID)

	s.Require().NoError(s.stg.Car().Delete(s.ctx, c.ID))
	_, err := s.stg.Car().GetByID(s.ctx, c.ID)
	s.ErrorIs(err, storage.ErrNotFound)

	_, err = s.stg.Manufacturer().GetByID(s.ctx, m.ID)
	s.NoError(err)
	_, err = s.stg.Driver().GetByID(s.ctx, d.ID)
	s.NoError(err)
}

func (s *Suite) TestDriverDeleteDropsAssignments() {
	m := s.manufacturer("Toyota", "Japan")
	d := s.driver("d1", "AAA11111")
	c := s.car("Corolla", m.ID, d.ID)

	s.Require().NoError(s.stg.Driver().Delete(s.ctx, d.ID))
	got, err := s.stg.Car().GetByID(s.ctx, c.ID)
	s.Require().NoError(err)
	s.Empty(got.DriverIDs)
}

func (s *Suite) TestToggleDriverAndRelations() {
	m := s.manufacturer("Toyota", "Japan")
	d := s.driver("d1", "AAA11111")
	c := s.car("Corolla", m.ID)

	assigned, err := s.stg.Car().ToggleDriver(s.ctx, c.ID, d.ID)
	s.Require().NoError(err)
	s.True(assigned)

	cars, err := s.stg.Car().List(s.ctx, storage.CarFilter{DriverID: d.ID})
	s.Require().NoError(err)
	s.Require().Len(cars, 1)
	drivers, err := s.stg.Driver().List(s.ctx, storage.DriverFilter{CarID: c.ID})
	s.Require().NoError(err)
	s.Require().Len(drivers, 1)
	s.Equal(d.ID, drivers[0].ID)

	assigned, err = s.stg.Car().ToggleDriver(s.ctx, c.ID, d.ID)
	s.Require().NoError(err)
	s.False(assigned)

	_, err = s.stg.Car().ToggleDriver(s.ctx, c.ID+1000, d.ID)
	s.ErrorIs(err, storage.ErrNotFound)
}

func (s *Suite) TestCounts() {
	m := s.manufacturer("Toyota", "Japan")
	s.driver("d1", "AAA11111")
	s.car("Corolla", m.ID)
	s.car("Camry", m.ID)

	drivers, err := s.stg.Driver().Count(s.ctx)
	s.Require().NoError(err)
	cars, err := s.stg.Car().Count(s.ctx)
	s.Require().NoError(err)
	makers, err := s.stg.Manufacturer().Count(s.ctx)
	s.Require().NoError(err)
	assert.Equal(s.T(), []int{1, 2, 1}, []int{drivers, cars, makers})
}

// RequireEmpty fails the test when the store already has rows.
func RequireEmpty(t *testing.T, stg storage.IStorage) {
	n, err := stg.Car().Count(context.Background())
	require.NoError(t, err)
	require.Zero(t, n)
}
