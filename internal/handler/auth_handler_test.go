package handler_test

import (
	"net/url"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

func TestAnonymousRequestRedirectsToLogin(t *testing.T) {
	app := newTestApp(t)
	c := app.client(t)

	resp := c.get("/activities")
	require.Equal(t, fiber.StatusFound, resp.StatusCode)
	require.Equal(t, "/login?next=%2Factivities", resp.Header.Get(fiber.HeaderLocation))

	body := readBody(t, c.get("/login?next=%2Factivities"))
	require.Contains(t, body, "Please log in to access this page.")
}

func TestLoginRejectsBadPassword(t *testing.T) {
	app := newTestApp(t)
	c := app.client(t)

	resp := c.postForm("/login", url.Values{"login": {"ana"}, "password": {"wrong"}})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	body := readBody(t, resp)
	require.Contains(t, body, "Invalid login or password.")
	require.Contains(t, body, `value="ana"`)

	require.Equal(t, fiber.StatusFound, c.get("/").StatusCode)
}

func TestLoginRedirectsToLocalNextOnly(t *testing.T) {
	app := newTestApp(t)

	c := app.client(t)
	resp := c.postForm("/login?next=%2Forders", url.Values{"login": {"bruno"}, "password": {testPassword}})
	require.Equal(t, fiber.StatusFound, resp.StatusCode)
	require.Equal(t, "/orders", resp.Header.Get(fiber.HeaderLocation))

	other := app.client(t)
	resp = other.postForm("/login?next=https%3A%2F%2Fevil.example", url.Values{"login": {"bruno"}, "password": {testPassword}})
	require.Equal(t, fiber.StatusFound, resp.StatusCode)
	require.Equal(t, "/", resp.Header.Get(fiber.HeaderLocation))
}

func TestLogoutEndsSession(t *testing.T) {
	app := newTestApp(t)
	c := app.client(t)
	c.login("ana")

	resp := c.get("/")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Contains(t, readBody(t, resp), "Ana Lima")

	resp = c.get("/logout")
	require.Equal(t, fiber.StatusFound, resp.StatusCode)
	require.Equal(t, "/login", resp.Header.Get(fiber.HeaderLocation))
	require.Contains(t, readBody(t, c.get("/login")), "You have been logged out.")

	require.Equal(t, fiber.StatusFound, c.get("/activities").StatusCode)
}

func TestLoginPageRedirectsSignedInUser(t *testing.T) {
	app := newTestApp(t)
	c := app.client(t)
	c.login("bruno")

	resp := c.get("/login")
	require.Equal(t, fiber.StatusFound, resp.StatusCode)
	require.Equal(t, "/", resp.Header.Get(fiber.HeaderLocation))
}
