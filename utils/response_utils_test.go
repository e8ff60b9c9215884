package utils

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondWithError(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return RespondWithError(c, fiber.StatusNotFound, "Video not found")
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"error":"Video not found"}`, string(body))
}

func TestFormatValidationErrors(t *testing.T) {
	type payload struct {
		Name  string `validate:"required"`
		Count int    `validate:"max=3"`
	}
	err := validator.New().Struct(payload{Count: 5})
	msgs := FormatValidationErrors(err)

	assert.Equal(t, []string{
		"Field 'Name' failed on the 'required' tag",
		"Field 'Count' failed on the 'max' tag (value: 3)",
	}, msgs)

	assert.Equal(t, []string{"plain"}, FormatValidationErrors(errors.New("plain")))
	assert.Empty(t, FormatValidationErrors(nil))
}
