package routes

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/markethub/internal/apperr"
	"github.com/example/markethub/internal/config"
	"github.com/example/markethub/internal/handlers"
	"github.com/example/markethub/internal/middleware"
)

// Register wires up all HTTP routes.
func Register(app *fiber.App, db *gorm.DB, cfg *config.Config) {
	authHandler := handlers.NewAuthHandler(db, cfg)
	offerHandler := handlers.NewOfferHandler(db)
	orderHandler := handlers.NewOrderHandler(db)
	reviewHandler := handlers.NewReviewHandler(db)
	profileHandler := handlers.NewProfileHandler(db)
	infoHandler := handlers.NewInfoHandler(db)

	optionalAuth := middleware.AuthOptional(cfg, db)
	requiredAuth := middleware.AuthRequired(cfg, db)

	api := app.Group("/api")

	api.Post("/register", authHandler.Register)
	api.Post("/login", authHandler.Login)

	// Offers: reads are public, writes go through the permission
	// predicates with whatever identity the token carries.
	offers := api.Group("/offers", optionalAuth)
	offers.Get("/", offerHandler.ListOffers)
	offers.Post("/", offerHandler.CreateOffer)
	offers.Get("/:id", offerHandler.GetOffer)
	offers.Patch("/:id", offerHandler.UpdateOffer)
	offers.Delete("/:id", offerHandler.DeleteOffer)
	offers.Put("/:id", methodNotAllowed("PUT is not allowed. Use PATCH instead."))

	api.Get("/offerdetails", offerHandler.ListOfferDetails)
	api.Get("/offerdetails/:id", offerHandler.GetOfferDetail)

	orders := api.Group("/orders", optionalAuth)
	orders.Get("/", orderHandler.ListOrders)
	orders.Post("/", orderHandler.CreateOrder)
	orders.Get("/:id", methodNotAllowed("GET is not allowed in detail view."))
	orders.Put("/:id", methodNotAllowed("PUT is not allowed. Use PATCH instead."))
	orders.Patch("/:id", orderHandler.UpdateOrder)
	orders.Delete("/:id", orderHandler.DeleteOrder)

	api.Get("/order-count/:business_user_id", orderHandler.BusinessOrderCount)
	api.Get("/completed-order-count/:business_user_id", orderHandler.BusinessCompletedOrderCount)

	reviews := api.Group("/reviews", optionalAuth)
	reviews.Get("/", reviewHandler.ListReviews)
	reviews.Post("/", reviewHandler.CreateReview)
	reviews.Get("/:id", methodNotAllowed("GET is not allowed in detail view."))
	reviews.Put("/:id", methodNotAllowed("PUT is not allowed. Use PATCH instead."))
	reviews.Patch("/:id", reviewHandler.UpdateReview)
	reviews.Delete("/:id", reviewHandler.DeleteReview)

	api.Get("/profile/:user_id", requiredAuth, profileHandler.GetProfile)
	api.Patch("/profile/:user_id", requiredAuth, profileHandler.UpdateProfile)
	api.Put("/profile/:user_id", requiredAuth, methodNotAllowed("PUT is not allowed. Use PATCH instead."))

	api.Get("/profiles/customer", requiredAuth, profileHandler.ListCustomerProfiles)
	api.Get("/profiles/business", requiredAuth, profileHandler.ListBusinessProfiles)

	api.Get("/base-info", infoHandler.BaseInfo)
}

func methodNotAllowed(detail string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return apperr.MethodNotAllowed(detail)
	}
}
