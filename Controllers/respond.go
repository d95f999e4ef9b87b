package Controllers

import (
	"reflect"
	"strings"

	"github.com/Barrelito/sam-a-sub001/AppErrors"
	"github.com/Barrelito/sam-a-sub001/Logging"
	"github.com/Barrelito/sam-a-sub001/Models"
	"github.com/Barrelito/sam-a-sub001/middleware"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
)

var (
	validate *validator.Validate
	trans    ut.Translator
)

func init() {
	validate = validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	english := en.New()
	uni := ut.New(english, english)
	trans, _ = uni.GetTranslator("en")
	if err := en_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		Logging.GetLogger().Errorf("register validator translations: %v", err)
	}
}

// parseBody decodes the request body into dst and validates its tags.
func parseBody(ctx *fiber.Ctx, dst interface{}) error {
	if err := ctx.BodyParser(dst); err != nil {
		return AppErrors.Validation("", "Invalid request body")
	}
	return validateStruct(dst)
}

func validateStruct(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return AppErrors.Validation(fe.Field(), fe.Translate(trans))
	}
	return AppErrors.Validation("", err.Error())
}

// callerOf returns the Caller placed by middleware.Verify.
func callerOf(ctx *fiber.Ctx) (Models.Caller, error) {
	caller, ok := middleware.CurrentCaller(ctx)
	if !ok {
		return Models.Caller{}, &AppErrors.AuthenticationError{}
	}
	return caller, nil
}

// respondError maps the error taxonomy onto status codes.
func respondError(ctx *fiber.Ctx, err error) error {
	var (
		authErr      *AppErrors.AuthenticationError
		validErr     *AppErrors.ValidationError
		forbiddenErr *AppErrors.ForbiddenError
		notFoundErr  *AppErrors.NotFoundError
	)
	switch {
	case errors.As(err, &authErr):
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": authErr.Error()})
	case errors.As(err, &validErr):
		body := fiber.Map{"error": validErr.Error()}
		if validErr.Field != "" {
			body["field"] = validErr.Field
		}
		return ctx.Status(fiber.StatusBadRequest).JSON(body)
	case errors.As(err, &forbiddenErr):
		return ctx.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": forbiddenErr.Error()})
	case errors.As(err, &notFoundErr):
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": notFoundErr.Error()})
	default:
		Logging.GetLogger().WithField("path", ctx.Path()).Errorf("request failed: %v", err)
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
}

// optionalUint reads a positive integer query parameter; empty means nil.
func optionalUint(ctx *fiber.Ctx, key string) (*uint, error) {
	raw := ctx.Query(key)
	if raw == "" {
		return nil, nil
	}
	v, err := parseUint(raw)
	if err != nil {
		return nil, AppErrors.Validation(key, "must be a positive integer")
	}
	return &v, nil
}

func paramID(ctx *fiber.Ctx, key string) (uint, error) {
	v, err := parseUint(ctx.Params(key))
	if err != nil {
		return 0, AppErrors.Validation(key, "must be a positive integer")
	}
	return v, nil
}
