package handlers_test

import (
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/markethub/internal/models"
)

func TestGetProfile(t *testing.T) {
	app, db, cfg := newTestApp(t)
	business := createUser(t, db, "seller", models.RoleBusiness)
	viewer := createUser(t, db, "viewer", models.RoleCustomer)

	var body map[string]interface{}
	resp := doRequest(t, app, fiber.MethodGet, "/api/profile/"+business.ID.String(),
		authToken(t, cfg, viewer), nil, &body)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, business.ID.String(), body["user"])
	assert.Equal(t, "seller", body["username"])
	assert.Equal(t, "business", body["type"])
	assert.Nil(t, body["uploaded_at"])
}

func TestGetProfileErrors(t *testing.T) {
	app, db, cfg := newTestApp(t)
	viewer := createUser(t, db, "viewer", models.RoleCustomer)

	resp := doRequest(t, app, fiber.MethodGet, "/api/profile/"+viewer.ID.String(), "", nil, nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	var body map[string]interface{}
	resp = doRequest(t, app, fiber.MethodGet, "/api/profile/9e107d9d-0000-1111-2222-333344445555",
		authToken(t, cfg, viewer), nil, &body)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Profile not found.", body["detail"])
}

func TestUpdateProfilePropagatesToUser(t *testing.T) {
	app, db, cfg := newTestApp(t)
	business := createUser(t, db, "seller", models.RoleBusiness)
	token := authToken(t, cfg, business)

	patch := fiber.Map{
		"first_name": "Max",
		"last_name":  "Mustermann",
		"email":      "max@business.de",
		"location":   "Berlin",
		"tel":        "123456789",
	}

	var body map[string]interface{}
	resp := doRequest(t, app, fiber.MethodPatch, "/api/profile/"+business.ID.String(), token, patch, &body)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "Max", body["first_name"])
	assert.Equal(t, "Berlin", body["location"])
	assert.Equal(t, "max@business.de", body["email"])

	var user models.User
	require.NoError(t, db.First(&user, "id = ?", business.ID).Error)
	assert.Equal(t, "Max", user.FirstName)
	assert.Equal(t, "Mustermann", user.LastName)
	assert.Equal(t, "max@business.de", user.Email)
}

func TestUpdateProfileUploadedAtOnFileChange(t *testing.T) {
	app, db, cfg := newTestApp(t)
	business := createUser(t, db, "seller", models.RoleBusiness)
	token := authToken(t, cfg, business)
	path := "/api/profile/" + business.ID.String()

	var body map[string]interface{}
	resp := doRequest(t, app, fiber.MethodPatch, path, token, fiber.Map{"file": "avatar.png"}, &body)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.NotNil(t, body["uploaded_at"])
	firstUpload := body["uploaded_at"]

	// Same file reference again: the timestamp must stay put.
	resp = doRequest(t, app, fiber.MethodPatch, path, token, fiber.Map{"file": "avatar.png", "tel": "999"}, &body)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, firstUpload, body["uploaded_at"])

	resp = doRequest(t, app, fiber.MethodPatch, path, token, fiber.Map{"file": "avatar2.png"}, &body)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.NotEqual(t, firstUpload, body["uploaded_at"])
}

func TestUpdateProfileOwnershipAndStaff(t *testing.T) {
	app, db, cfg := newTestApp(t)
	business := createUser(t, db, "seller", models.RoleBusiness)
	intruder := createUser(t, db, "intruder", models.RoleCustomer)
	staff := createUser(t, db, "admin", models.RoleCustomer, asStaff())
	path := "/api/profile/" + business.ID.String()

	resp := doRequest(t, app, fiber.MethodPatch, path, authToken(t, cfg, intruder),
		fiber.Map{"location": "Hamburg"}, nil)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp = doRequest(t, app, fiber.MethodPatch, path, authToken(t, cfg, staff),
		fiber.Map{"location": "Hamburg"}, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestProfilePutNotAllowed(t *testing.T) {
	app, db, cfg := newTestApp(t)
	business := createUser(t, db, "seller", models.RoleBusiness)
	token := authToken(t, cfg, business)

	var body map[string]interface{}
	resp := doRequest(t, app, fiber.MethodPut, "/api/profile/"+business.ID.String(), token,
		fiber.Map{"location": "Berlin"}, &body)
	require.Equal(t, fiber.StatusMethodNotAllowed, resp.StatusCode)
	assert.Equal(t, "PUT is not allowed. Use PATCH instead.", body["detail"])
}

func TestProfileLists(t *testing.T) {
	app, db, cfg := newTestApp(t)
	createUser(t, db, "seller", models.RoleBusiness)
	createUser(t, db, "othershop", models.RoleBusiness)
	customer := createUser(t, db, "buyer", models.RoleCustomer)
	token := authToken(t, cfg, customer)

	var businesses []map[string]interface{}
	resp := doRequest(t, app, fiber.MethodGet, "/api/profiles/business", token, nil, &businesses)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Len(t, businesses, 2)
	assert.Contains(t, businesses[0], "working_hours")
	assert.NotContains(t, businesses[0], "email")

	var customers []map[string]interface{}
	resp = doRequest(t, app, fiber.MethodGet, "/api/profiles/customer", token, nil, &customers)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Len(t, customers, 1)
	assert.Equal(t, "buyer", customers[0]["username"])
	assert.Contains(t, customers[0], "uploaded_at")
	assert.NotContains(t, customers[0], "location")

	resp = doRequest(t, app, fiber.MethodGet, "/api/profiles/business", "", nil, nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
