package handler_test

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/noah-isme/engtrack/internal/config"
	"github.com/noah-isme/engtrack/internal/database"
	"github.com/noah-isme/engtrack/internal/handler"
	"github.com/noah-isme/engtrack/internal/middleware"
	"github.com/noah-isme/engtrack/internal/models"
	"github.com/noah-isme/engtrack/internal/repository"
	"github.com/noah-isme/engtrack/internal/router"
	"github.com/noah-isme/engtrack/internal/service"
	"github.com/noah-isme/engtrack/internal/session"
	"github.com/noah-isme/engtrack/internal/view"
	"github.com/noah-isme/engtrack/pkg/filestore"
)

const testPassword = "s3cret"

type testApp struct {
	app *fiber.App
	db  *gorm.DB
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	dsn := fmt.Sprintf("file:handler_%s?mode=memory&cache=shared&_foreign_keys=on", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.Migrate(db))

	hash, err := service.HashPassword(testPassword)
	require.NoError(t, err)
	userRepo := repository.NewUserRepository(db)
	require.NoError(t, userRepo.CreateBatch(context.Background(), []models.User{
		{Login: "ana", Name: "Ana Lima", PasswordHash: hash, IsAdmin: true},
		{Login: "bruno", Name: "Bruno Reis", PasswordHash: hash},
	}))

	log := zerolog.Nop()
	files, err := filestore.New(filestore.Config{Root: t.TempDir(), MaxBytes: 1 << 20}, log)
	require.NoError(t, err)

	cfg := config.Config{
		AppName:        "Engineering Activities",
		AppEnv:         "test",
		SessionTTL:     time.Hour,
		SessionCookie:  "engtrack_session",
		LoginRateLimit: 100,
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	userService := service.NewUserService(userRepo, log)
	activityService := service.NewActivityService(repository.NewActivityRepository(db), files, service.NewChangeNotifier(nil, "", log), validate, log)
	historyFeed := service.NewHistoryFeedService(repository.NewHistoryRepository(db), log)
	orderService := service.NewProductionOrderService(repository.NewProductionOrderRepository(db), files, validate, log)

	app := fiber.New(fiber.Config{Views: view.New(), ErrorHandler: handler.ErrorHandler(log)})
	middleware.Register(app, middleware.Config{Logger: &log})
	router.Register(app, cfg, router.Dependencies{
		AuthHandler:            handler.NewAuthHandler(userService, log),
		DashboardHandler:       handler.NewDashboardHandler(activityService, orderService, log),
		ActivityHandler:        handler.NewActivityHandler(activityService, log),
		ProductionOrderHandler: handler.NewProductionOrderHandler(orderService, log),
		AttachmentHandler:      handler.NewAttachmentHandler(files, log),
		HistoryFeedHandler:     handler.NewHistoryFeedHandler(historyFeed, log),
		Health:                 handler.HealthCheck(cfg, sqlDB),
		Sessions:               middleware.Sessions(session.NewStore(cfg, nil), log),
		RequireLogin:           middleware.RequireLogin(userService, log),
		LoginLimiter:           middleware.RateLimit("login", cfg.LoginRateLimit, time.Minute, fiber.MethodPost),
		AdminOnly:              middleware.RequireRole(models.RoleAdmin),
	})

	return &testApp{app: app, db: db}
}

// client keeps the session cookie between requests.
type client struct {
	t       *testing.T
	app     *fiber.App
	cookies map[string]*http.Cookie
}

func (a *testApp) client(t *testing.T) *client {
	return &client{t: t, app: a.app, cookies: map[string]*http.Cookie{}}
}

func (c *client) do(req *http.Request) *http.Response {
	c.t.Helper()
	for _, cookie := range c.cookies {
		req.AddCookie(cookie)
	}
	resp, err := c.app.Test(req, -1)
	require.NoError(c.t, err)
	for _, cookie := range resp.Cookies() {
		c.cookies[cookie.Name] = cookie
	}
	return resp
}

func (c *client) get(path string) *http.Response {
	return c.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (c *client) postForm(path string, values url.Values) *http.Response {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationForm)
	return c.do(req)
}

type upload struct {
	field    string
	filename string
	content  []byte
}

func (c *client) postMultipart(path string, values map[string]string, files ...upload) *http.Response {
	c.t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for key, value := range values {
		require.NoError(c.t, writer.WriteField(key, value))
	}
	for _, file := range files {
		part, err := writer.CreateFormFile(file.field, file.filename)
		require.NoError(c.t, err)
		_, err = part.Write(file.content)
		require.NoError(c.t, err)
	}
	require.NoError(c.t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set(fiber.HeaderContentType, writer.FormDataContentType())
	return c.do(req)
}

func (c *client) login(login string) {
	c.t.Helper()
	resp := c.postForm("/login", url.Values{"login": {login}, "password": {testPassword}})
	require.Equal(c.t, fiber.StatusFound, resp.StatusCode)
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(data)
}

func (a *testApp) latestActivity(t *testing.T) models.Activity {
	t.Helper()
	var activity models.Activity
	require.NoError(t, a.db.Order("id desc").First(&activity).Error)
	return activity
}
