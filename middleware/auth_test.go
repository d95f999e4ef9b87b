package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Barrelito/sam-a-sub001/Models"
	"github.com/Barrelito/sam-a-sub001/testutil"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthApp(t *testing.T) (*fiber.App, *Auth, testutil.Fixture) {
	t.Helper()
	db := testutil.NewTestDB(t)
	f := testutil.Seed(t, db)
	auth := NewAuth(db, "secret")

	app := fiber.New()
	app.Get("/me", auth.Verify(Models.RoleEmployee), func(c *fiber.Ctx) error {
		caller, ok := CurrentCaller(c)
		if !ok {
			return c.SendStatus(fiber.StatusInternalServerError)
		}
		return c.JSON(fiber.Map{"user_id": caller.UserID, "role": caller.Role})
	})
	app.Get("/chief", auth.Verify(Models.RoleVOChief), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})
	return app, auth, f
}

func get(t *testing.T, app *fiber.App, path, token string) int {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.AddCookie(&http.Cookie{Name: CookieName, Value: token})
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp.StatusCode
}

func TestVerify(t *testing.T) {
	app, auth, f := newAuthApp(t)

	token, err := auth.IssueToken(f.Manager, time.Now())
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, get(t, app, "/me", token))
	assert.Equal(t, http.StatusForbidden, get(t, app, "/chief", token))

	chief, err := auth.IssueToken(f.Chief, time.Now())
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, get(t, app, "/chief", chief))
}

func TestVerifyRejects(t *testing.T) {
	app, auth, f := newAuthApp(t)

	assert.Equal(t, http.StatusUnauthorized, get(t, app, "/me", ""))

	expired, err := auth.IssueToken(f.Manager, time.Now().Add(-2*TokenTTL))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, get(t, app, "/me", expired))

	forged, err := NewAuth(auth.DB, "other-secret").IssueToken(f.Manager, time.Now())
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, get(t, app, "/me", forged))

	ghost, err := auth.IssueToken(Models.User{Model: f.Manager.Model, Role: Models.RoleAdmin}, time.Now())
	require.NoError(t, err)
	require.NoError(t, auth.DB.Delete(&Models.User{}, f.Manager.ID).Error)
	assert.Equal(t, http.StatusUnauthorized, get(t, app, "/me", ghost))
}

func TestServiceKey(t *testing.T) {
	app := fiber.New()
	app.Get("/locked", ServiceKey("k"), func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })
	app.Get("/open", ServiceKey(""), func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/locked", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req = httptest.NewRequest(http.MethodGet, "/locked", nil)
	req.Header.Set("X-Service-Key", "k")
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/open", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
