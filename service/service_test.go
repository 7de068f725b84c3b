package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"taxiservice/pkg/auth"
	"taxiservice/pkg/forms"
	"taxiservice/pkg/logger"
	"taxiservice/pkg/models"
	"taxiservice/pkg/search"
	"taxiservice/storage"
	"taxiservice/storage/memory"
)

const testPassword = "Xk9vmPq2vLw"

func newTestManager(t *testing.T, stg storage.IStorage) IServiceManager {
	t.Helper()
	a := auth.NewService("test-secret", time.Hour).WithCost(bcrypt.MinCost)
	return New(stg, a, logger.NewNop())
}

func registerForm(username, license string) forms.DriverCreationForm {
	return forms.DriverCreationForm{
		Username:      username,
		Password1:     testPassword,
		Password2:     testPassword,
		LicenseNumber: license,
		FirstName:     "Test",
		LastName:      "Driver",
	}
}

func mustRegister(t *testing.T, svc IServiceManager, username, license string) *models.Driver {
	t.Helper()
	d, errs, err := svc.Driver().Register(context.Background(), registerForm(username, license))
	require.NoError(t, err)
	require.True(t, errs.Valid(), "form errors: %v", errs)
	return d
}

func mustManufacturer(t *testing.T, svc IServiceManager, name, country string) *models.Manufacturer {
	t.Helper()
	m, errs, err := svc.Manufacturer().Create(context.Background(), forms.ManufacturerForm{Name: name, Country: country})
	require.NoError(t, err)
	require.True(t, errs.Valid(), "form errors: %v", errs)
	return m
}

func TestManufacturerLifecycle(t *testing.T) {
	ctx := context.Background()
	svc := newTestManager(t, memory.New())

	_, errs, err := svc.Manufacturer().Create(ctx, forms.ManufacturerForm{Name: "Toyota"})
	require.NoError(t, err)
	assert.Equal(t, "This field is required.", errs.Get("country"))

	m := mustManufacturer(t, svc, "Toyota", "Japan")

	_, errs, err = svc.Manufacturer().Create(ctx, forms.ManufacturerForm{Name: "Toyota", Country: "Japan"})
	require.NoError(t, err)
	assert.Equal(t, msgManufacturerNameTaken, errs.Get("name"))

	updated, errs, err := svc.Manufacturer().Update(ctx, m.ID, forms.ManufacturerForm{Name: "Toyota", Country: "JP"})
	require.NoError(t, err)
	assert.True(t, errs.Valid())
	assert.Equal(t, "JP", updated.Country)

	_, _, err = svc.Manufacturer().Update(ctx, 999, forms.ManufacturerForm{Name: "x", Country: "y"})
	assert.ErrorIs(t, err, storage.ErrNotFound)

	found, err := svc.Manufacturer().List(ctx, search.Single(search.New("name", "toy")))
	require.NoError(t, err)
	assert.Len(t, found, 1)
}

func TestManufacturerDeleteInUse(t *testing.T) {
	ctx := context.Background()
	svc := newTestManager(t, memory.New())
	m := mustManufacturer(t, svc, "Toyota", "Japan")

	_, errs, err := svc.Car().Create(ctx, forms.CarForm{Model: "Corolla", ManufacturerID: m.ID})
	require.NoError(t, err)
	require.True(t, errs.Valid())

	errs, err = svc.Manufacturer().Delete(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, msgManufacturerInUse, errs.Get(forms.NonField))

	_, err = svc.Manufacturer().Delete(ctx, 12345)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestCarDriverSetIsReplacedNotMerged(t *testing.T) {
	ctx := context.Background()
	svc := newTestManager(t, memory.New())
	m := mustManufacturer(t, svc, "Toyota", "Japan")
	d1 := mustRegister(t, svc, "driver1", "AAA11111")
	d2 := mustRegister(t, svc, "driver2", "BBB22222")

	car, errs, err := svc.Car().Create(ctx, forms.CarForm{Model: "Corolla", ManufacturerID: m.ID, DriverIDs: []int64{d1.ID}})
	require.NoError(t, err)
	require.True(t, errs.Valid())

	_, errs, err = svc.Car().Update(ctx, car.ID, forms.CarForm{Model: "Corolla", ManufacturerID: m.ID, DriverIDs: []int64{d2.ID}})
	require.NoError(t, err)
	require.True(t, errs.Valid())

	got, err := svc.Car().Get(ctx, car.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{d2.ID}, got.DriverIDs)
	require.Len(t, got.Drivers, 1)
	assert.Equal(t, "driver2", got.Drivers[0].Username)
	require.NotNil(t, got.Manufacturer)
	assert.Equal(t, "Toyota", got.Manufacturer.Name)

	withCars, err := svc.Driver().Get(ctx, d1.ID)
	require.NoError(t, err)
	assert.Empty(t, withCars.Cars)
}

func TestCarUpdateReturnsSavedCar(t *testing.T) {
	ctx := context.Background()
	svc := newTestManager(t, memory.New())
	toyota := mustManufacturer(t, svc, "Toyota", "Japan")
	honda := mustManufacturer(t, svc, "Honda", "Japan")
	d := mustRegister(t, svc, "driver1", "AAA11111")

	car, errs, err := svc.Car().Create(ctx, forms.CarForm{Model: "Corolla", ManufacturerID: toyota.ID})
	require.NoError(t, err)
	require.True(t, errs.Valid())

	updated, errs, err := svc.Car().Update(ctx, car.ID, forms.CarForm{Model: "Civic", ManufacturerID: honda.ID, DriverIDs: []int64{d.ID}})
	require.NoError(t, err)
	require.True(t, errs.Valid())
	assert.Equal(t, "Civic", updated.Model)
	require.NotNil(t, updated.Manufacturer)
	assert.Equal(t, honda.ID, updated.Manufacturer.ID)
	assert.Equal(t, "Honda", updated.Manufacturer.Name)
	require.Len(t, updated.Drivers, 1)
	assert.Equal(t, "driver1", updated.Drivers[0].Username)
}

func TestCarInvalidReferences(t *testing.T) {
	ctx := context.Background()
	svc := newTestManager(t, memory.New())
	m := mustManufacturer(t, svc, "Toyota", "Japan")
	d := mustRegister(t, svc, "driver1", "AAA11111")

	_, errs, err := svc.Car().Create(ctx, forms.CarForm{Model: "Ghost", ManufacturerID: m.ID + 100, DriverIDs: []int64{d.ID, 777}})
	require.NoError(t, err)

	want := forms.Errors{
		"manufacturer": {forms.InvalidChoice()},
		"drivers":      {forms.InvalidChoiceValue("777")},
	}
	if diff := cmp.Diff(want, errs); diff != "" {
		t.Errorf("form errors mismatch (-want +got):\n%s", diff)
	}

	stats, err := svc.Driver().Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.Stats{Drivers: 1, Cars: 0, Manufacturers: 1}, stats)
}

func TestToggleAssign(t *testing.T) {
	ctx := context.Background()
	svc := newTestManager(t, memory.New())
	m := mustManufacturer(t, svc, "Toyota", "Japan")
	d := mustRegister(t, svc, "driver1", "AAA11111")
	car, _, err := svc.Car().Create(ctx, forms.CarForm{Model: "Corolla", ManufacturerID: m.ID})
	require.NoError(t, err)

	who := models.Identity{DriverID: d.ID, Username: d.Username}
	assigned, err := svc.Car().ToggleAssign(ctx, who, car.ID)
	require.NoError(t, err)
	assert.True(t, assigned)

	got, err := svc.Car().Get(ctx, car.ID)
	require.NoError(t, err)
	assert.True(t, got.HasDriver(d.ID))

	assigned, err = svc.Car().ToggleAssign(ctx, who, car.ID)
	require.NoError(t, err)
	assert.False(t, assigned)

	_, err = svc.Car().ToggleAssign(ctx, who, car.ID+50)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = svc.Car().ToggleAssign(ctx, models.Identity{DriverID: 4242}, car.ID)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestRegisterUniqueness(t *testing.T) {
	ctx := context.Background()
	svc := newTestManager(t, memory.New())
	d := mustRegister(t, svc, "testuser", "ABC12345")
	assert.NotEqual(t, testPassword, d.PasswordHash)
	assert.True(t, d.IsActive)
	assert.False(t, d.IsStaff)

	_, errs, err := svc.Driver().Register(ctx, registerForm("testuser", "XYZ12345"))
	require.NoError(t, err)
	assert.Equal(t, forms.MsgUsernameTaken, errs.Get("username"))

	_, errs, err = svc.Driver().Register(ctx, registerForm("another", "ABC12345"))
	require.NoError(t, err)
	assert.Equal(t, forms.MsgLicenseTaken, errs.Get("license_number"))

	_, errs, err = svc.Driver().Register(ctx, registerForm("third", "abc12345"))
	require.NoError(t, err)
	assert.Equal(t, "First 3 characters should be uppercase letters", errs.Get("license_number"))
}

func TestUpdateLicense(t *testing.T) {
	ctx := context.Background()
	svc := newTestManager(t, memory.New())
	d := mustRegister(t, svc, "testuser", "ABC12345")
	other := mustRegister(t, svc, "other", "QWE12345")

	updated, errs, err := svc.Driver().UpdateLicense(ctx, d.ID, forms.DriverLicenseUpdateForm{LicenseNumber: "ZZZ00000"})
	require.NoError(t, err)
	assert.True(t, errs.Valid())
	assert.Equal(t, "ZZZ00000", updated.LicenseNumber)

	_, errs, err = svc.Driver().UpdateLicense(ctx, d.ID, forms.DriverLicenseUpdateForm{LicenseNumber: other.LicenseNumber})
	require.NoError(t, err)
	assert.Equal(t, forms.MsgLicenseTaken, errs.Get("license_number"))

	_, errs, err = svc.Driver().UpdateLicense(ctx, d.ID, forms.DriverLicenseUpdateForm{LicenseNumber: "ABC1234"})
	require.NoError(t, err)
	assert.Equal(t, "License number should consist of 8 characters", errs.Get("license_number"))

	_, _, err = svc.Driver().UpdateLicense(ctx, 999, forms.DriverLicenseUpdateForm{LicenseNumber: "ZZZ00001"})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()
	stg := memory.New()
	svc := newTestManager(t, stg)
	d := mustRegister(t, svc, "testuser", "ABC12345")

	who, errs, err := svc.Driver().Authenticate(ctx, forms.LoginForm{Username: "testuser", Password: testPassword})
	require.NoError(t, err)
	assert.True(t, errs.Valid())
	assert.Equal(t, models.Identity{DriverID: d.ID, Username: "testuser"}, who)

	stored, err := stg.Driver().GetByID(ctx, d.ID)
	require.NoError(t, err)
	assert.NotNil(t, stored.LastLogin)

	for _, form := range []forms.LoginForm{
		{Username: "testuser", Password: "wrong"},
		{Username: "nobody", Password: testPassword},
	} {
		_, errs, err := svc.Driver().Authenticate(ctx, form)
		require.NoError(t, err)
		assert.Equal(t, forms.MsgInvalidLogin, errs.Get(forms.NonField))
	}

	_, errs, err = svc.Driver().Authenticate(ctx, forms.LoginForm{})
	require.NoError(t, err)
	assert.True(t, errs.Has("username"))
	assert.True(t, errs.Has("password"))
}

func TestAuthenticateInactive(t *testing.T) {
	ctx := context.Background()
	stg := memory.New()
	svc := newTestManager(t, stg)

	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)
	_, err = stg.Driver().Create(ctx, &models.Driver{Username: "sleepy", PasswordHash: string(hash), LicenseNumber: "SLP12345"})
	require.NoError(t, err)

	_, errs, err := svc.Driver().Authenticate(ctx, forms.LoginForm{Username: "sleepy", Password: testPassword})
	require.NoError(t, err)
	assert.Equal(t, forms.MsgInactiveLogin, errs.Get(forms.NonField))
}

func TestSessionResolve(t *testing.T) {
	ctx := context.Background()
	svc := newTestManager(t, memory.New())
	admin, errs, err := svc.Driver().CreateSuperuser(ctx, registerForm("admin", "ADM00001"))
	require.NoError(t, err)
	require.True(t, errs.Valid())
	assert.True(t, admin.IsSuperuser)

	token, err := svc.Auth().IssueSession(models.Identity{DriverID: admin.ID, Username: admin.Username})
	require.NoError(t, err)

	who, err := svc.Auth().Resolve(ctx, token)
	require.NoError(t, err)
	assert.True(t, who.IsStaff, "staff flag comes from the store")

	_, err = svc.Auth().Resolve(ctx, "garbage")
	assert.ErrorIs(t, err, ErrUnauthenticated)

	require.NoError(t, svc.Driver().Delete(ctx, admin.ID))
	_, err = svc.Auth().Resolve(ctx, token)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestRevokeEndsEverySession(t *testing.T) {
	ctx := context.Background()
	svc := newTestManager(t, memory.New())
	mustRegister(t, svc, "testuser", "ABC12345")

	login := func() string {
		who, errs, err := svc.Driver().Authenticate(ctx, forms.LoginForm{Username: "testuser", Password: testPassword})
		require.NoError(t, err)
		require.True(t, errs.Valid())
		token, err := svc.Auth().IssueSession(who)
		require.NoError(t, err)
		return token
	}
	laptop, phone := login(), login()

	require.NoError(t, svc.Auth().Revoke(ctx, laptop))
	for _, token := range []string{laptop, phone} {
		_, err := svc.Auth().Resolve(ctx, token)
		assert.ErrorIs(t, err, ErrUnauthenticated)
	}

	// revoking a dead token is a no-op
	require.NoError(t, svc.Auth().Revoke(ctx, laptop))
	require.NoError(t, svc.Auth().Revoke(ctx, "garbage"))

	fresh := login()
	who, err := svc.Auth().Resolve(ctx, fresh)
	require.NoError(t, err)
	assert.Equal(t, 1, who.Version)
}

type mockDriverStorage struct {
	storage.IDriverStorage
	mock.Mock
}

func (m *mockDriverStorage) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *mockDriverStorage) GetByUsername(ctx context.Context, username string) (*models.Driver, error) {
	args := m.Called(ctx, username)
	d, _ := args.Get(0).(*models.Driver)
	return d, args.Error(1)
}

type mockStorage struct {
	storage.IStorage
	drivers *mockDriverStorage
}

func (m mockStorage) Driver() storage.IDriverStorage {
	return m.drivers
}

func TestInfrastructureErrorsPropagate(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("connection refused")
	drivers := &mockDriverStorage{}
	drivers.On("Count", mock.Anything).Return(0, boom)
	drivers.On("GetByUsername", mock.Anything, "testuser").Return(nil, boom)

	svc := newTestManager(t, mockStorage{IStorage: memory.New(), drivers: drivers})

	_, err := svc.Driver().Stats(ctx)
	assert.ErrorIs(t, err, boom)

	_, errs, err := svc.Driver().Authenticate(ctx, forms.LoginForm{Username: "testuser", Password: "x"})
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, errs)

	_, errs, err = svc.Driver().Register(ctx, registerForm("testuser", "ABC12345"))
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, errs)

	drivers.AssertExpectations(t)
}
