package server

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/resumehero/interviewd/internal/apperr"
	"github.com/resumehero/interviewd/internal/config"
)

const operatorIDKey = "operatorID"

// AuthRequired validates a Bearer HS256 token and stores the subject claim
// as the operator id for downstream ownership checks.
func AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if !strings.HasPrefix(header, "Bearer ") {
			return apperr.New(apperr.KindAuthentication, "missing bearer token")
		}

		tokenString := strings.TrimPrefix(header, "Bearer ")

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}

			return []byte(config.Conf.JWTSecret), nil
		})
		if err != nil || !token.Valid {
			return apperr.New(apperr.KindAuthentication, "invalid token")
		}

		subject, err := token.Claims.GetSubject()
		if err != nil || subject == "" {
			return apperr.New(apperr.KindAuthentication, "invalid token subject")
		}

		c.Locals(operatorIDKey, subject)

		return c.Next()
	}
}

func operatorID(c *fiber.Ctx) string {
	id, _ := c.Locals(operatorIDKey).(string)
	return id
}
