package handler

import (
	"database/sql"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"instainstru/internal/auth"
	"instainstru/internal/http/middleware"
	"instainstru/internal/model"
	"instainstru/internal/service"
)

// Deps carries everything the routes need. Nil Gatherer disables /metrics
// and nil RateLimiter disables limiting.
type Deps struct {
	DB           *sql.DB
	HealthChecks []Check
	Tokens       *auth.TokenIssuer
	Gatherer     prometheus.Gatherer
	RateLimiter  *middleware.RateLimiter
	Location     *time.Location
	Logger       zerolog.Logger
	Auth         service.AuthService
	Catalog      service.CatalogService
	Instructors  service.InstructorService
	Availability service.AvailabilityService
	Bookings     service.BookingService
	Messaging    service.MessagingService
	Referrals    service.ReferralService
	Search       service.SearchService
	Payments     service.PaymentService
}

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
func RegisterRoutes(app *fiber.App, d Deps) {
	loc := d.Location
	if loc == nil {
		loc = time.UTC
	}

	app.Get("/health", HealthCheck(append([]Check{DBCheck(d.DB)}, d.HealthChecks...)...))
	app.Get("/healthz", Liveness())
	if d.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	api := app.Group("/api/v1")
	if d.RateLimiter != nil {
		api.Use(d.RateLimiter.Handler())
	}
	authed := middleware.Auth(d.Tokens)
	instructor := []fiber.Handler{authed, middleware.RequireRole(model.RoleInstructor)}
	student := []fiber.Handler{authed, middleware.RequireRole(model.RoleStudent)}
	admin := []fiber.Handler{authed, middleware.RequireRole(model.RoleAdmin)}

	api.Post("/auth/register", Register(d.Auth))
	api.Post("/auth/login", Login(d.Auth))
	api.Get("/auth/me", authed, Me(d.Auth))

	api.Get("/catalog/categories", ListCategories(d.Catalog))
	api.Get("/catalog/services", ListCatalogServices(d.Catalog))
	api.Get("/catalog/services/popular", PopularServices(d.Catalog))
	api.Get("/catalog/services/:id", GetCatalogService(d.Catalog))

	me := api.Group("/instructors/me", instructor...)
	me.Put("/profile", UpsertProfile(d.Instructors))
	me.Post("/photo", UploadPhoto(d.Instructors))
	me.Post("/services", AddService(d.Instructors))
	me.Put("/services/:id", UpdateService(d.Instructors))
	me.Delete("/services/:id", RemoveService(d.Instructors))
	me.Post("/connect", ConnectPayouts(d.Instructors))
	me.Post("/connect/refresh", RefreshPayouts(d.Instructors))
	me.Get("/onboarding", Onboarding(d.Instructors))
	me.Post("/go-live", GoLive(d.Instructors))
	me.Get("/availability/week", GetWeek(d.Availability, loc))
	me.Put("/availability/week", SaveWeek(d.Availability, loc))
	me.Post("/availability/copy", CopyWeek(d.Availability, loc))

	api.Get("/instructors/:id", GetInstructor(d.Instructors))
	api.Get("/instructors/:id/availability/slots", OpenSlots(d.Availability, loc))

	api.Post("/bookings", append(student, CreateBooking(d.Bookings))...)
	api.Get("/bookings", authed, ListBookings(d.Bookings))
	api.Get("/bookings/:id", authed, GetBooking(d.Bookings))
	api.Post("/bookings/:id/confirm-payment", append(student, ConfirmPayment(d.Bookings))...)
	api.Post("/bookings/:id/cancel", authed, CancelBooking(d.Bookings))
	api.Post("/bookings/:id/reschedule", append(student, RescheduleBooking(d.Bookings))...)
	api.Post("/bookings/:id/complete", append(instructor, CompleteBooking(d.Bookings))...)
	api.Post("/bookings/:id/no-show", append(instructor, MarkNoShow(d.Bookings))...)

	api.Get("/conversations", authed, ListConversations(d.Messaging))
	api.Get("/conversations/:id/messages", authed, ListMessages(d.Messaging))
	api.Post("/conversations/:id/read", authed, MarkConversationRead(d.Messaging))
	api.Post("/messages", authed, SendMessage(d.Messaging))
	api.Get("/messages/stream", authed, StreamEvents(d.Messaging, d.Logger))

	api.Get("/referrals/me", authed, MyReferrals(d.Referrals))
	api.Get("/search", middleware.OptionalAuth(d.Tokens), Search(d.Search))
	api.Post("/webhooks/stripe", StripeWebhook(d.Payments))

	adm := api.Group("/admin", admin...)
	adm.Get("/bookings", AdminListBookings(d.Bookings, loc))
	adm.Post("/bookings/:id/cancel", AdminCancelBooking(d.Bookings))
	adm.Get("/referrals/held", AdminListHeldRewards(d.Referrals))
	adm.Post("/referrals/:id/approve", AdminApproveReward(d.Referrals))
	adm.Post("/referrals/:id/void", AdminVoidReward(d.Referrals))
}
