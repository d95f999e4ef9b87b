package middleware

import (
	"strconv"
	"strings"
	"time"

	"github.com/Barrelito/sam-a-sub001/Models"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

const (
	CookieName   = "jwt"
	TokenTTL     = 24 * time.Hour
	localsUser   = "user"
	localsCaller = "caller"
)

// Auth verifies session tokens and loads the calling user.
type Auth struct {
	DB     *gorm.DB
	Secret []byte
}

func NewAuth(db *gorm.DB, secret string) *Auth {
	return &Auth{DB: db, Secret: []byte(secret)}
}

// IssueToken signs a session token whose issuer is the user id.
func (a *Auth) IssueToken(user Models.User, now time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		Issuer:    strconv.FormatUint(uint64(user.ID), 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.Secret)
	if err != nil {
		return "", errors.Wrap(err, "sign token")
	}
	return token, nil
}

// Verify rejects requests without a valid session (401) or whose user
// ranks below minRole (403). On success the user and its Caller are
// stored in Locals.
func (a *Auth) Verify(minRole Models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := c.Cookies(CookieName)
		if raw == "" {
			raw = strings.TrimPrefix(c.Get(fiber.HeaderAuthorization), "Bearer ")
		}
		if raw == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Not Logged In.",
			})
		}

		token, err := jwt.ParseWithClaims(raw, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return a.Secret, nil
		})
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired token",
			})
		}

		claims, ok := token.Claims.(*jwt.RegisteredClaims)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid token claims",
			})
		}

		var user Models.User
		if err := a.DB.WithContext(c.UserContext()).Where("id = ?", claims.Issuer).First(&user).Error; err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "User not found",
			})
		}

		c.Locals(localsUser, user)
		c.Locals(localsCaller, user.Caller())

		if !user.Role.AtLeast(minRole) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Insufficient permissions to access this resource",
			})
		}
		return c.Next()
	}
}

// ServiceKey guards service-credential routes. An empty key leaves the
// route open.
func ServiceKey(key string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if key == "" || c.Get("X-Service-Key") == key {
			return c.Next()
		}
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid service key",
		})
	}
}

// CurrentCaller returns the Caller stored by Verify.
func CurrentCaller(c *fiber.Ctx) (Models.Caller, bool) {
	caller, ok := c.Locals(localsCaller).(Models.Caller)
	return caller, ok
}

// CurrentUser returns the user stored by Verify.
func CurrentUser(c *fiber.Ctx) (Models.User, bool) {
	user, ok := c.Locals(localsUser).(Models.User)
	return user, ok
}
