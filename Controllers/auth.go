package Controllers

import (
	"strings"
	"time"

	"github.com/Barrelito/sam-a-sub001/AppErrors"
	"github.com/Barrelito/sam-a-sub001/Models"
	"github.com/Barrelito/sam-a-sub001/middleware"
	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AuthController handles login and user administration
type AuthController struct {
	DB   *gorm.DB
	Auth *middleware.Auth
}

// NewAuthController creates a new AuthController
func NewAuthController(db *gorm.DB, auth *middleware.Auth) *AuthController {
	return &AuthController{DB: db, Auth: auth}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Login checks credentials and sets the session cookie
func (c *AuthController) Login(ctx *fiber.Ctx) error {
	var input loginRequest
	if err := parseBody(ctx, &input); err != nil {
		return respondError(ctx, err)
	}

	var user Models.User
	result := c.DB.WithContext(ctx.UserContext()).Where("email = ?", strings.ToLower(input.Email)).First(&user)
	if result.Error != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Incorrect email or password"})
	}
	if err := bcrypt.CompareHashAndPassword(user.Password, []byte(input.Password)); err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Incorrect email or password"})
	}

	now := time.Now()
	token, err := c.Auth.IssueToken(user, now)
	if err != nil {
		return respondError(ctx, err)
	}

	ctx.Cookie(&fiber.Cookie{
		Name:     middleware.CookieName,
		Value:    token,
		Expires:  now.Add(middleware.TokenTTL),
		HTTPOnly: true,
		SameSite: "Lax",
	})
	return ctx.JSON(fiber.Map{
		"message": "Logged in",
		"user":    user,
		"token":   token,
	})
}

// Logout clears the session cookie
func (c *AuthController) Logout(ctx *fiber.Ctx) error {
	ctx.Cookie(&fiber.Cookie{
		Name:     middleware.CookieName,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
	})
	return ctx.JSON(fiber.Map{"message": "Logged out"})
}

// User returns the caller's profile and stations
func (c *AuthController) User(ctx *fiber.Ctx) error {
	user, ok := middleware.CurrentUser(ctx)
	if !ok {
		return respondError(ctx, &AppErrors.AuthenticationError{})
	}

	links := []Models.UserStationLink{}
	result := c.DB.WithContext(ctx.UserContext()).
		Preload("Station").
		Where("user_id = ?", user.ID).
		Order("id ASC").
		Find(&links)
	if result.Error != nil {
		return respondError(ctx, AppErrors.Storage(result.Error))
	}

	stations := make([]Models.Station, 0, len(links))
	for _, l := range links {
		if l.Station != nil {
			stations = append(stations, *l.Station)
		}
	}
	return ctx.JSON(fiber.Map{"user": user, "stations": stations})
}

type registerRequest struct {
	Name                 string `json:"name" validate:"required"`
	Email                string `json:"email" validate:"required,email"`
	Password             string `json:"password" validate:"required,min=8"`
	Role                 string `json:"role" validate:"required,oneof=employee station_manager vo_chief admin"`
	OrganizationalUnitID *uint  `json:"organizational_unit_id"`
	StationIDs           []uint `json:"station_ids"`
}

// RegisterUser creates a user and its station links
func (c *AuthController) RegisterUser(ctx *fiber.Ctx) error {
	var input registerRequest
	if err := parseBody(ctx, &input); err != nil {
		return respondError(ctx, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return respondError(ctx, err)
	}

	user := Models.User{
		Name:                 input.Name,
		Email:                strings.ToLower(input.Email),
		Password:             hash,
		Role:                 Models.Role(input.Role),
		OrganizationalUnitID: input.OrganizationalUnitID,
	}

	err = c.DB.WithContext(ctx.UserContext()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		for _, stationID := range input.StationIDs {
			if err := tx.Create(&Models.UserStationLink{UserID: user.ID, StationID: stationID}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		// Check if it's a unique constraint error
		if strings.Contains(strings.ToLower(err.Error()), "unique") ||
			strings.Contains(err.Error(), "Duplicate entry") {
			return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "A user with this email already exists",
			})
		}
		return respondError(ctx, AppErrors.Storage(err))
	}

	return ctx.Status(fiber.StatusCreated).JSON(fiber.Map{"user": user})
}
