package httpserver

import (
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pscheid92/sportzlive/internal/domain"
	apperrors "github.com/pscheid92/sportzlive/internal/platform/errors"
)

func parseMatchID(c echo.Context) (domain.MatchID, error) {
	raw := c.Param("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.ValidationError("invalid match id").WithField("id", raw)
	}
	return domain.MatchID(id), nil
}

// parseLimit reads the optional limit query parameter. Values outside
// [1, maxLimit] are rejected rather than clamped.
func parseLimit(c echo.Context, defaultLimit, maxLimit int) (int, error) {
	raw := c.QueryParam("limit")
	if raw == "" {
		return defaultLimit, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 || limit > maxLimit {
		return 0, apperrors.ValidationError("invalid query parameters").
			WithField("limit", raw).
			WithField("max", maxLimit)
	}
	return limit, nil
}

func bindBody(c echo.Context, dst any) error {
	if err := (&echo.DefaultBinder{}).BindBody(c, dst); err != nil {
		return apperrors.ValidationError("invalid request body")
	}
	return nil
}

func requireField(value, field string) error {
	if value == "" {
		return apperrors.ValidationError(field+" is required").WithField("field", field)
	}
	return nil
}

func nonNegative(value *int, field string) error {
	if value != nil && *value < 0 {
		return apperrors.ValidationError(field+" must not be negative").WithField("field", field)
	}
	return nil
}
