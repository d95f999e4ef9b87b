package Controllers

import (
	"strconv"
	"time"

	"github.com/Barrelito/sam-a-sub001/AppErrors"
	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
)

func parseUint(raw string) (uint, error) {
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, err
	}
	if v == 0 {
		return 0, errors.New("zero id")
	}
	return uint(v), nil
}

// queryYear reads ?year=, defaulting to the current year.
func queryYear(ctx *fiber.Ctx, now time.Time) (int, error) {
	raw := ctx.Query("year")
	if raw == "" {
		return now.Year(), nil
	}
	year, err := strconv.Atoi(raw)
	if err != nil || year <= 0 {
		return 0, AppErrors.Validation("year", "must be a positive integer")
	}
	return year, nil
}
