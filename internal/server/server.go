package server

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"hayoungplace/app/comment"
	"hayoungplace/app/party"
	"hayoungplace/app/place"
	"hayoungplace/internal/middleware"
)

const healthTimeout = 2 * time.Second

// Dependencies are the services and health checks the HTTP API is built from.
type Dependencies struct {
	Places   *place.Service
	Comments *comment.Service
	Parties  *party.Service
	// Checks are run by /health, keyed by component name.
	Checks map[string]func(ctx context.Context) error
}

func New(deps Dependencies) *fiber.App {
	app := fiber.New(fiber.Config{
		IdleTimeout:  5 * time.Second,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		Concurrency:  256 * 1024,
		BodyLimit:    6 * 1024 * 1024,
		JSONDecoder:  strictJSONUnmarshal,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return writeError(c, err)
		},
	})

	app.Use(
		middleware.NewRequestContextMiddleware(),
		middleware.NewAccessLogMiddleware(),
		recover.New(recover.Config{EnableStackTrace: true}),
	)

	app.Get("/health", healthHandler(deps.Checks))

	registerPlaceRoutes(app, deps.Places)
	registerCommentRoutes(app, deps.Comments)
	registerPartyRoutes(app, deps.Parties)

	return app
}

func registerPlaceRoutes(app *fiber.App, service *place.Service) {
	getPlaces := place.NewGetPlacesHandler(service)
	searchPlaces := place.NewSearchPlacesHandler(service)
	nearbyPlaces := place.NewNearbyPlacesHandler(service)
	categoryPlaces := place.NewCategoryPlacesHandler(service)
	getCategories := place.NewGetCategoriesHandler(service)
	getSubCategories := place.NewGetSubCategoriesHandler(service)
	getPlace := place.NewGetPlaceHandler(service)
	createPlace := place.NewCreatePlaceHandler(service)
	updatePlace := place.NewUpdatePlaceHandler(service)
	deletePlace := place.NewDeletePlaceHandler(service)
	verifyPassword := place.NewVerifyPlacePasswordHandler(service)
	uploadImage := place.NewUploadPlaceImageHandler(service)

	places := app.Group("/api/places")
	places.Get("", handle[place.GetPlacesRequest, place.GetPlacesResponse](getPlaces))
	places.Post("", handle[place.CreatePlaceRequest, place.CreatePlaceResponse](createPlace))
	places.Get("/search", handle[place.SearchPlacesRequest, place.GetPlacesResponse](searchPlaces))
	places.Get("/nearby", handle[place.NearbyPlacesRequest, place.GetPlacesResponse](nearbyPlaces))
	places.Get("/categories", handle[place.GetCategoriesRequest, place.GetCategoriesResponse](getCategories))
	places.Get("/categories/:category/subcategories", handle[place.GetSubCategoriesRequest, place.GetSubCategoriesResponse](getSubCategories))
	places.Get("/category/:category", handle[place.CategoryPlacesRequest, place.GetPlacesResponse](categoryPlaces))
	places.Get("/category/:category/subcategory/:subCategory", handle[place.CategoryPlacesRequest, place.GetPlacesResponse](categoryPlaces))
	places.Get("/:id", handle[place.GetPlaceRequest, place.GetPlaceResponse](getPlace))
	places.Put("/:id", handle[place.UpdatePlaceRequest, place.UpdatePlaceResponse](updatePlace))
	places.Delete("/:id", handle[place.DeletePlaceRequest, place.DeletePlaceResponse](deletePlace))
	places.Post("/:id/verify-password", handle[place.VerifyPlacePasswordRequest, place.VerifyPlacePasswordResponse](verifyPassword))
	places.Post("/:id/images", handle[place.UploadPlaceImageRequest, place.UploadPlaceImageResponse](uploadImage))
}

func registerCommentRoutes(app *fiber.App, service *comment.Service) {
	getComments := comment.NewGetCommentsHandler(service)
	countComments := comment.NewCountCommentsHandler(service)
	createComment := comment.NewCreateCommentHandler(service)
	updateComment := comment.NewUpdateCommentHandler(service)
	deleteComment := comment.NewDeleteCommentHandler(service)

	comments := app.Group("/api/places/:placeId/comments")
	comments.Get("", handle[comment.GetCommentsRequest, comment.GetCommentsResponse](getComments))
	comments.Get("/count", handle[comment.CountCommentsRequest, comment.CountCommentsResponse](countComments))
	comments.Post("", handle[comment.CreateCommentRequest, comment.CreateCommentResponse](createComment))
	comments.Put("/:commentId", handle[comment.UpdateCommentRequest, comment.UpdateCommentResponse](updateComment))
	comments.Delete("/:commentId", handle[comment.DeleteCommentRequest, comment.DeleteCommentResponse](deleteComment))
}

func registerPartyRoutes(app *fiber.App, service *party.Service) {
	getParties := party.NewGetPartiesHandler(service)
	getParty := party.NewGetPartyHandler(service)
	createParty := party.NewCreatePartyHandler(service)
	updateParty := party.NewUpdatePartyHandler(service)
	deleteParty := party.NewDeletePartyHandler(service)
	joinParty := party.NewJoinPartyHandler(service)
	leaveParty := party.NewLeavePartyHandler(service)
	getMembers := party.NewGetPartyMembersHandler(service)

	parties := app.Group("/api/parties")
	parties.Get("", handle[party.GetPartiesRequest, party.GetPartiesResponse](getParties))
	parties.Post("", handle[party.CreatePartyRequest, party.CreatePartyResponse](createParty))
	parties.Get("/:id", handle[party.GetPartyRequest, party.GetPartyResponse](getParty))
	parties.Put("/:id", handle[party.UpdatePartyRequest, party.UpdatePartyResponse](updateParty))
	parties.Delete("/:id", handle[party.DeletePartyRequest, party.DeletePartyResponse](deleteParty))
	parties.Post("/:id/join", handle[party.JoinPartyRequest, party.JoinPartyResponse](joinParty))
	parties.Delete("/:id/leave", handle[party.LeavePartyRequest, party.LeavePartyResponse](leaveParty))
	parties.Get("/:id/members", handle[party.GetPartyMembersRequest, party.GetPartyMembersResponse](getMembers))
}

func healthHandler(checks map[string]func(ctx context.Context) error) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), healthTimeout)
		defer cancel()

		status := "UP"
		components := fiber.Map{}
		for name, check := range checks {
			if err := check(ctx); err != nil {
				zap.L().Warn("Health check failed", zap.String("component", name), zap.Error(err))
				components[name] = "DOWN"
				status = "DOWN"
				continue
			}
			components[name] = "UP"
		}

		code := fiber.StatusOK
		if status != "UP" {
			code = fiber.StatusServiceUnavailable
		}
		return c.Status(code).JSON(fiber.Map{"status": status, "components": components})
	}
}
