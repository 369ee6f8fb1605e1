package handlers

import (
	"github.com/danielgtaylor/huma/v2"

	"github.com/jmylchreest/chrolisd/internal/errors"
)

// apiError maps an internal error onto the matching HTTP status.
func apiError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.IsNotFound(err):
		return huma.Error404NotFound(err.Error())
	case errors.IsOutOfRange(err), errors.IsInvalidInput(err):
		return huma.Error422UnprocessableEntity(err.Error())
	case errors.IsHubUnavailable(err), errors.IsDeviceUnavailable(err):
		return huma.Error503ServiceUnavailable(err.Error())
	case errors.IsInstrument(err):
		return huma.Error502BadGateway(err.Error())
	default:
		return huma.Error500InternalServerError(err.Error())
	}
}
