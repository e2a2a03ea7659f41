package shared

import (
	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
)

var jsonAPI = sonic.Config{
	UseNumber:            true,
	EscapeHTML:           false,
	SortMapKeys:          false,
	CompactMarshaler:     true,
	NoQuoteTextMarshaler: true,
	NoNullSliceOrMap:     true,
}.Froze()

// ErrorBody is the wire shape for every error response. RetryAfter,
// Limit and Remaining are only populated on rate-limit rejections.
type ErrorBody struct {
	Error      string `json:"error"`
	Details    string `json:"details,omitempty"`
	RetryAfter int    `json:"retryAfter,omitempty"`
	Limit      int    `json:"limit,omitempty"`
	Remaining  *int `json:"remaining,omitempty"`
}

func ResponseJSON(c *fiber.Ctx, httpCode int, data interface{}) error {
	body, err := jsonAPI.Marshal(data)
	if err != nil {
		return err
	}

	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSONCharsetUTF8)
	return c.Status(httpCode).Send(body)
}

func ResponseError(c *fiber.Ctx, httpCode int, message string) error {
	return ResponseJSON(c, httpCode, ErrorBody{Error: message})
}

func ResponseInternalError(c *fiber.Ctx, err error) error {
	body := ErrorBody{Error: "Internal server error"}
	if err != nil {
		body.Details = err.Error()
	}
	return ResponseJSON(c, fiber.StatusInternalServerError, body)
}
