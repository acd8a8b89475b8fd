package handlers_test

import (
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/markethub/internal/models"
)

func TestBaseInfoEmpty(t *testing.T) {
	app, _, _ := newTestApp(t)

	var body map[string]interface{}
	resp := doRequest(t, app, fiber.MethodGet, "/api/base-info", "", nil, &body)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, 0.0, body["review_count"])
	assert.Equal(t, 0.0, body["average_rating"])
	assert.Equal(t, 0.0, body["business_profile_count"])
	assert.Equal(t, 0.0, body["offer_count"])
}

func TestBaseInfoAggregates(t *testing.T) {
	app, db, cfg := newTestApp(t)
	business := createUser(t, db, "seller", models.RoleBusiness)
	createUser(t, db, "othershop", models.RoleBusiness)
	buyerA := createUser(t, db, "buyera", models.RoleCustomer)
	buyerB := createUser(t, db, "buyerb", models.RoleCustomer)

	createOffer(t, app, authToken(t, cfg, business), "Counted")
	postReview(t, app, authToken(t, cfg, buyerA), business.ID.String(), 4)
	postReview(t, app, authToken(t, cfg, buyerB), business.ID.String(), 2)

	var body map[string]interface{}
	resp := doRequest(t, app, fiber.MethodGet, "/api/base-info", "", nil, &body)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, 2.0, body["review_count"])
	assert.Equal(t, 3.0, body["average_rating"])
	assert.Equal(t, 2.0, body["business_profile_count"])
	assert.Equal(t, 1.0, body["offer_count"])
}

func TestBaseInfoRoundsAverage(t *testing.T) {
	app, db, cfg := newTestApp(t)
	business := createUser(t, db, "seller", models.RoleBusiness)
	buyerA := createUser(t, db, "buyera", models.RoleCustomer)
	buyerB := createUser(t, db, "buyerb", models.RoleCustomer)
	buyerC := createUser(t, db, "buyerc", models.RoleCustomer)

	postReview(t, app, authToken(t, cfg, buyerA), business.ID.String(), 5)
	postReview(t, app, authToken(t, cfg, buyerB), business.ID.String(), 5)
	postReview(t, app, authToken(t, cfg, buyerC), business.ID.String(), 4)

	var body map[string]interface{}
	resp := doRequest(t, app, fiber.MethodGet, "/api/base-info", "", nil, &body)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	// 14/3 = 4.666..., rounded to one decimal place.
	assert.Equal(t, 4.7, body["average_rating"])
}
