package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"taxiservice/pkg/admin"
	"taxiservice/pkg/auth"
	"taxiservice/pkg/forms"
	"taxiservice/pkg/logger"
	"taxiservice/pkg/models"
	"taxiservice/service"
	"taxiservice/storage"
	"taxiservice/storage/memory"
)

const testPassword = "Xk9vmPq2vLw"

type testApp struct {
	t      *testing.T
	router *gin.Engine
	svc    service.IServiceManager
	stg    storage.IStorage
}

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	stg := memory.New()
	svc := service.New(stg, auth.NewService("test-secret", time.Hour).WithCost(bcrypt.MinCost), logger.NewNop())
	router, err := NewRouter(svc, admin.NewDefaultSite(svc), Options{SessionTTL: time.Hour}, logger.NewNop())
	require.NoError(t, err)
	return &testApp{t: t, router: router, svc: svc, stg: stg}
}

func (a *testApp) driver(username, license string, staff bool) *models.Driver {
	a.t.Helper()
	form := forms.DriverCreationForm{
		Username:      username,
		Password1:     testPassword,
		Password2:     testPassword,
		LicenseNumber: license,
		FirstName:     "Test",
		LastName:      "User",
	}
	register := a.svc.Driver().Register
	if staff {
		register = a.svc.Driver().CreateSuperuser
	}
	d, errs, err := register(context.Background(), form)
	require.NoError(a.t, err)
	require.True(a.t, errs.Valid(), "form errors: %v", errs)
	return d
}

func (a *testApp) manufacturer(name, country string) *models.Manufacturer {
	a.t.Helper()
	m, errs, err := a.svc.Manufacturer().Create(context.Background(), forms.ManufacturerForm{Name: name, Country: country})
	require.NoError(a.t, err)
	require.True(a.t, errs.Valid())
	return m
}

func (a *testApp) car(model string, manufacturerID int64, drivers ...int64) *models.Car {
	a.t.Helper()
	c, errs, err := a.svc.Car().Create(context.Background(), forms.CarForm{Model: model, ManufacturerID: manufacturerID, DriverIDs: drivers})
	require.NoError(a.t, err)
	require.True(a.t, errs.Valid(), "form errors: %v", errs)
	return c
}

func (a *testApp) session(d *models.Driver) *http.Cookie {
	a.t.Helper()
	token, err := a.svc.Auth().IssueSession(models.Identity{DriverID: d.ID, Username: d.Username})
	require.NoError(a.t, err)
	return &http.Cookie{Name: sessionCookie, Value: token}
}

func (a *testApp) get(path string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func (a *testApp) post(path string, values url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func TestHealthz(t *testing.T) {
	app := newTestApp(t)
	w := app.get("/healthz")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestLoginRequired(t *testing.T) {
	app := newTestApp(t)
	for _, path := range []string{
		"/",
		"/manufacturers/",
		"/manufacturers/create/",
		"/cars/",
		"/cars/1/",
		"/drivers/",
		"/drivers/1/",
		"/admin/",
		"/admin/car/",
	} {
		t.Run(path, func(t *testing.T) {
			w := app.get(path)
			assert.Equal(t, http.StatusFound, w.Code)
			assert.Equal(t, "/accounts/login/?next="+url.QueryEscape(path), w.Header().Get("Location"))
		})
	}

	w := app.post("/cars/1/toggle-assign/", nil)
	assert.Equal(t, http.StatusFound, w.Code)

	w = app.get("/cars/", &http.Cookie{Name: sessionCookie, Value: "forged"})
	assert.Equal(t, http.StatusFound, w.Code)
}

func TestLoginFlow(t *testing.T) {
	app := newTestApp(t)
	app.driver("testUser", "AAA55555", false)

	w := app.get("/accounts/login/?next=/cars/")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `value="/cars/"`)

	w = app.post("/accounts/login/", url.Values{"username": {"testUser"}, "password": {"wrong"}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Please enter a correct username and password.")

	w = app.post("/accounts/login/", url.Values{
		"username": {"testUser"},
		"password": {testPassword},
		"next":     {"/cars/"},
	})
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/cars/", w.Header().Get("Location"))

	var session *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == sessionCookie {
			session = c
		}
	}
	require.NotNil(t, session)
	assert.True(t, session.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, session.SameSite)

	w = app.get("/cars/", session)
	assert.Equal(t, http.StatusOK, w.Code)

	w = app.post("/accounts/logout/", nil, session)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, loginURL, w.Header().Get("Location"))
}

func TestLoginRejectsForeignNext(t *testing.T) {
	app := newTestApp(t)
	app.driver("testUser", "AAA55555", false)

	w := app.post("/accounts/login/", url.Values{
		"username": {"testUser"},
		"password": {testPassword},
		"next":     {"//evil.example.com/"},
	})
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
}

func TestHomeCountsAndVisits(t *testing.T) {
	app := newTestApp(t)
	d := app.driver("testUser", "AAA55555", false)
	m := app.manufacturer("Toyota", "Japan")
	app.car("Corolla", m.ID)

	w := app.get("/", app.session(d))
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "<strong>Drivers:</strong> 1")
	assert.Contains(t, body, "<strong>Cars:</strong> 1")
	assert.Contains(t, body, "You have visited this page 1 time.")

	w = app.get("/", app.session(d), &http.Cookie{Name: visitsCookie, Value: "4"})
	assert.Contains(t, w.Body.String(), "You have visited this page 5 times.")
}

func TestManufacturerListAndSearch(t *testing.T) {
	app := newTestApp(t)
	session := app.session(app.driver("testUser", "AAA55555", false))
	app.manufacturer("FirstTestManufacturer", "FirstTestCountry")
	app.manufacturer("SecondTestManufacturer", "SecondTestCountry")

	w := app.get("/manufacturers/", session)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Less(t, strings.Index(body, "FirstTestManufacturer"), strings.Index(body, "SecondTestManufacturer"))
	assert.Contains(t, body, `placeholder="search by name"`)

	w = app.get("/manufacturers/?name=FirstTestManufacturer", session)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "FirstTestManufacturer")
	assert.NotContains(t, w.Body.String(), "SecondTestManufacturer")
}

func TestManufacturerCreateUpdateDelete(t *testing.T) {
	app := newTestApp(t)
	session := app.session(app.driver("testUser", "AAA55555", false))

	w := app.post("/manufacturers/create/", url.Values{"name": {"Toyota"}}, session)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "This field is required.")

	w = app.post("/manufacturers/create/", url.Values{"name": {"Toyota"}, "country": {"Japan"}}, session)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/manufacturers/", w.Header().Get("Location"))

	list, err := app.svc.Manufacturer().List(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, list, 1)
	id := itoa(list[0].ID)

	w = app.post("/manufacturers/"+id+"/update/", url.Values{"name": {"Toyota"}, "country": {"JP"}}, session)
	require.Equal(t, http.StatusFound, w.Code)

	app.car("Corolla", list[0].ID)
	w = app.post("/manufacturers/"+id+"/delete/", nil, session)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "cars still reference it")

	w = app.get("/manufacturers/999/update/", session)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = app.get("/manufacturers/abc/update/", session)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCarListAndSearch(t *testing.T) {
	app := newTestApp(t)
	d := app.driver("testUser", "AAA55555", false)
	session := app.session(d)
	m := app.manufacturer("TestManufacturer", "TestCountry")
	app.car("FirstTestModel", m.ID, d.ID)
	app.car("SecondTestModel", m.ID, d.ID)

	w := app.get("/cars/", session)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "FirstTestModel")
	assert.Contains(t, w.Body.String(), "SecondTestModel")

	w = app.get("/cars/?model=FirstTestModel", session)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "FirstTestModel")
	assert.NotContains(t, w.Body.String(), "SecondTestModel")

	w = app.get("/cars/?model=First%20", session)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "FirstTestModel")
	assert.NotContains(t, w.Body.String(), "SecondTestModel")

	w = app.get("/cars/?model=%20", session)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "FirstTestModel")
	assert.Contains(t, w.Body.String(), "SecondTestModel")
}

func TestCarDetailAndToggleAssign(t *testing.T) {
	app := newTestApp(t)
	d := app.driver("testUser", "AAA55555", false)
	session := app.session(d)
	m := app.manufacturer("Toyota", "Japan")
	c := app.car("Corolla", m.ID)
	path := "/cars/" + itoa(c.ID) + "/"

	w := app.get(path, session)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Assign me to this car")

	w = app.post(path+"toggle-assign/", nil, session)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, path, w.Header().Get("Location"))

	w = app.get(path, session)
	assert.Contains(t, w.Body.String(), "Delete me from this car")
	assert.Contains(t, w.Body.String(), "testUser (Test User)")

	w = app.get("/cars/999/", session)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCarUpdateReplacesDrivers(t *testing.T) {
	app := newTestApp(t)
	d1 := app.driver("driver1", "AAA11111", false)
	d2 := app.driver("driver2", "BBB22222", false)
	session := app.session(d1)
	m := app.manufacturer("Toyota", "Japan")
	c := app.car("Corolla", m.ID, d1.ID)

	w := app.post("/cars/"+itoa(c.ID)+"/update/", url.Values{
		"model":        {"Corolla"},
		"manufacturer": {itoa(m.ID)},
		"drivers":      {itoa(d2.ID)},
	}, session)
	require.Equal(t, http.StatusFound, w.Code)

	got, err := app.svc.Car().Get(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{d2.ID}, got.DriverIDs)

	w = app.post("/cars/"+itoa(c.ID)+"/update/", url.Values{
		"model":        {"Corolla"},
		"manufacturer": {"9999"},
	}, session)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Select a valid choice. That choice is not one of the available choices.")
}

func TestCarCreateAndDelete(t *testing.T) {
	app := newTestApp(t)
	session := app.session(app.driver("testUser", "AAA55555", false))
	m := app.manufacturer("Toyota", "Japan")

	w := app.get("/cars/create/", session)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Toyota Japan")

	w = app.post("/cars/create/", url.Values{"model": {"Yaris"}, "manufacturer": {itoa(m.ID)}}, session)
	require.Equal(t, http.StatusFound, w.Code)

	cars, err := app.svc.Car().List(context.Background(), storage.CarFilter{})
	require.NoError(t, err)
	require.Len(t, cars, 1)

	w = app.post("/cars/"+itoa(cars[0].ID)+"/delete/", nil, session)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/cars/", w.Header().Get("Location"))

	_, err = app.svc.Manufacturer().Get(context.Background(), m.ID)
	assert.NoError(t, err, "deleting a car keeps its manufacturer")
}

func TestDriverListSearchAndDetail(t *testing.T) {
	app := newTestApp(t)
	d := app.driver("testUser", "AAA55555", false)
	app.driver("anotherDriver", "BBB55555", false)
	session := app.session(d)

	w := app.get("/drivers/?username=testU", session)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "testUser")
	assert.NotContains(t, w.Body.String(), "anotherDriver")

	w = app.get("/drivers/"+itoa(d.ID)+"/", session)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "AAA55555")
}

func TestDriverCreate(t *testing.T) {
	app := newTestApp(t)
	session := app.session(app.driver("testUser", "AAA55555", false))

	w := app.post("/drivers/create/", url.Values{
		"username":       {"newdriver"},
		"password1":      {testPassword},
		"password2":      {testPassword},
		"license_number": {"abc12345"},
	}, session)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "First 3 characters should be uppercase letters")
	assert.NotContains(t, w.Body.String(), testPassword)

	w = app.post("/drivers/create/", url.Values{
		"username":       {"newdriver"},
		"password1":      {testPassword},
		"password2":      {testPassword},
		"license_number": {"ABC12345"},
	}, session)
	require.Equal(t, http.StatusFound, w.Code)

	created, err := app.stg.Driver().GetByUsername(context.Background(), "newdriver")
	require.NoError(t, err)
	assert.Equal(t, "/drivers/"+itoa(created.ID)+"/", w.Header().Get("Location"))
}

func TestDriverLicenseUpdate(t *testing.T) {
	app := newTestApp(t)
	d := app.driver("testUser", "AAA55555", false)
	session := app.session(d)
	path := "/drivers/" + itoa(d.ID) + "/update/"

	w := app.post(path, url.Values{"license_number": {"AAA5555"}}, session)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "License number should consist of 8 characters")

	w = app.post(path, url.Values{"license_number": {"ZZZ00000"}, "username": {"renamed"}}, session)
	require.Equal(t, http.StatusFound, w.Code)

	got, err := app.stg.Driver().GetByID(context.Background(), d.ID)
	require.NoError(t, err)
	assert.Equal(t, "ZZZ00000", got.LicenseNumber)
	assert.Equal(t, "testUser", got.Username)
}

func TestDeletedDriverLosesSession(t *testing.T) {
	app := newTestApp(t)
	d := app.driver("testUser", "AAA55555", false)
	session := app.session(d)

	w := app.post("/drivers/"+itoa(d.ID)+"/delete/", nil, session)
	require.Equal(t, http.StatusFound, w.Code)

	w = app.get("/drivers/", session)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get("Location"), loginURL))
}

func TestLogoutInvalidatesSession(t *testing.T) {
	app := newTestApp(t)
	app.driver("testUser", "AAA55555", false)

	w := app.post("/accounts/login/", url.Values{"username": {"testUser"}, "password": {testPassword}})
	require.Equal(t, http.StatusFound, w.Code)
	var session *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == sessionCookie {
			session = c
		}
	}
	require.NotNil(t, session)

	w = app.get("/cars/", session)
	require.Equal(t, http.StatusOK, w.Code)

	w = app.post("/accounts/logout/", nil, session)
	require.Equal(t, http.StatusFound, w.Code)

	// a copy of the cookie kept past logout no longer works
	w = app.get("/cars/", session)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get("Location"), loginURL))

	w = app.post("/accounts/logout/", nil, session)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, loginURL, w.Header().Get("Location"))
}

type adminFixture struct {
	app    *testApp
	admin  *http.Cookie
	driver *models.Driver
	first  *models.Manufacturer
}

func newAdminFixture(t *testing.T) adminFixture {
	app := newTestApp(t)
	f := adminFixture{app: app}
	f.admin = app.session(app.driver("adminuser", "ADM12345", true))
	f.driver = app.driver("testdriver", "AAA12345", false)
	f.first = app.manufacturer("First Manufacturer", "First Country")
	second := app.manufacturer("Second Manufacturer", "Second Country")
	app.car("FirstModel", f.first.ID)
	app.car("SecondModel", second.ID)
	return f
}

func TestAdminRequiresStaff(t *testing.T) {
	f := newAdminFixture(t)
	w := f.app.get("/admin/", f.app.session(f.driver))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = f.app.get("/admin/", f.admin)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `href="/admin/car/"`)
}

func TestAdminDriverLicenseListed(t *testing.T) {
	f := newAdminFixture(t)

	w := f.app.get("/admin/driver/", f.admin)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "AAA12345")

	w = f.app.get("/admin/driver/"+itoa(f.driver.ID)+"/change/", f.admin)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Additional info")
	assert.Contains(t, w.Body.String(), "AAA12345")
}

func TestAdminCarSearchAndFilter(t *testing.T) {
	f := newAdminFixture(t)

	w := f.app.get("/admin/car/?q=FirstModel", f.admin)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "FirstModel")
	assert.NotContains(t, w.Body.String(), "SecondModel")

	w = f.app.get("/admin/car/?manufacturer__id="+itoa(f.first.ID), f.admin)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "FirstModel")
	assert.NotContains(t, w.Body.String(), "SecondModel")

	for _, raw := range []string{"x", "0", "-1"} {
		w = f.app.get("/admin/car/?manufacturer__id="+raw, f.admin)
		assert.Equal(t, http.StatusBadRequest, w.Code, raw)
		assert.NotContains(t, w.Body.String(), "FirstModel")
	}

	w = f.app.get("/admin/order/", f.admin)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminChangeSavesLicense(t *testing.T) {
	f := newAdminFixture(t)
	path := "/admin/driver/" + itoa(f.driver.ID) + "/change/"

	w := f.app.post(path, url.Values{"license_number": {"bad"}}, f.admin)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "License number should consist of 8 characters")

	w = f.app.post(path, url.Values{"license_number": {"NEW54321"}}, f.admin)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/admin/driver/", w.Header().Get("Location"))

	got, err := f.app.stg.Driver().GetByID(context.Background(), f.driver.ID)
	require.NoError(t, err)
	assert.Equal(t, "NEW54321", got.LicenseNumber)
}

func TestUnknownRoute(t *testing.T) {
	app := newTestApp(t)
	w := app.get("/nowhere")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
