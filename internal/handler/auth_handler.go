package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/engtrack/internal/dto"
	"github.com/noah-isme/engtrack/internal/middleware"
	"github.com/noah-isme/engtrack/internal/service"
)

// AuthHandler serves the login and logout pages.
type AuthHandler struct {
	users  service.UserService
	logger zerolog.Logger
}

// NewAuthHandler constructs the authentication handler.
func NewAuthHandler(users service.UserService, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		users:  users,
		logger: logger.With().Str("component", "auth_handler").Logger(),
	}
}

// Register wires the public login routes. The limiter applies to login submissions.
func (h *AuthHandler) Register(router fiber.Router, limiter fiber.Handler) {
	router.Get("/login", h.showLogin)
	if limiter != nil {
		router.Post("/login", limiter, h.login)
		return
	}
	router.Post("/login", h.login)
}

// RegisterProtected wires routes that need a signed-in user.
func (h *AuthHandler) RegisterProtected(router fiber.Router) {
	router.Get("/logout", h.logout)
}

func (h *AuthHandler) showLogin(c *fiber.Ctx) error {
	if middleware.SessionLogin(c) != "" {
		return c.Redirect("/", fiber.StatusFound)
	}
	return render(c, fiber.StatusOK, "login", fiber.Map{"Title": "Sign in", "Next": c.Query("next")})
}

func (h *AuthHandler) login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		middleware.AddFlash(c, middleware.FlashDanger, "Invalid login or password.")
		return render(c, fiber.StatusBadRequest, "login", fiber.Map{"Title": "Sign in", "Next": c.Query("next")})
	}

	user, err := h.users.Authenticate(c.UserContext(), req.Login, req.Password)
	if err != nil {
		if !errors.Is(err, service.ErrInvalidCredentials) {
			reqLogger := middleware.RequestLogger(h.logger, c)
			reqLogger.Error().Err(err).Msg("login failed")
			return fiber.NewError(fiber.StatusInternalServerError, genericFailure)
		}
		middleware.AddFlash(c, middleware.FlashDanger, "Invalid login or password.")
		return render(c, fiber.StatusOK, "login", fiber.Map{"Title": "Sign in", "Next": c.Query("next"), "Login": req.Login})
	}

	if err := middleware.SignIn(c, user.Login); err != nil {
		reqLogger := middleware.RequestLogger(h.logger, c)
		reqLogger.Error().Err(err).Msg("failed to start session")
		return fiber.NewError(fiber.StatusInternalServerError, genericFailure)
	}
	reqLogger := middleware.RequestLogger(h.logger, c)
	reqLogger.Info().Str("login", user.Login).Msg("user signed in")

	return c.Redirect(middleware.SafeNext(c.Query("next")), fiber.StatusFound)
}

func (h *AuthHandler) logout(c *fiber.Ctx) error {
	if err := middleware.SignOut(c); err != nil {
		reqLogger := middleware.RequestLogger(h.logger, c)
		reqLogger.Error().Err(err).Msg("failed to end session")
		return fiber.NewError(fiber.StatusInternalServerError, genericFailure)
	}
	middleware.AddFlash(c, middleware.FlashSuccess, "You have been logged out.")
	return c.Redirect(middleware.LoginPath, fiber.StatusFound)
}
