package http

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// parseBody decodifica el JSON y valida los tags. Responde 400 y devuelve false si algo falla.
func parseBody(c *fiber.Ctx, in any) (bool, error) {
	if err := c.BodyParser(in); err != nil {
		return false, badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	return check(c, in)
}

// parseQuery igual que parseBody pero desde la query string.
func parseQuery(c *fiber.Ctx, in any) (bool, error) {
	if err := c.QueryParser(in); err != nil {
		return false, badRequest(c, "INVALID_QUERY", "parámetros inválidos")
	}
	if p, ok := in.(interface{ DefaultPage() }); ok {
		p.DefaultPage()
	}
	return check(c, in)
}

func check(c *fiber.Ctx, in any) (bool, error) {
	if err := validate.Struct(in); err != nil {
		return false, badRequest(c, "VALIDATION", validationMessage(err))
	}
	return true, nil
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s: %s=%s", fe.Namespace(), fe.Tag(), fe.Param()))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %s", fe.Namespace(), fe.Tag()))
	}
	return strings.Join(parts, "; ")
}
