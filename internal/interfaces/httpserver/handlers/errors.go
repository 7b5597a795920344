package handlers

import (
	"context"
	"errors"

	"github.com/janhq/cms-media/internal/domain/credential"
	"github.com/janhq/cms-media/internal/domain/media"
	"github.com/janhq/cms-media/internal/utils/platformerrors"
)

// classify maps broker and store errors onto platform errors.
// Missing configuration keeps its exact message; CMS clients display it verbatim.
func classify(ctx context.Context, err error, fallback string) *platformerrors.PlatformError {
	if platformErr := platformerrors.GetPlatformError(err); platformErr != nil {
		return platformErr
	}

	var missing *credential.MissingConfigError
	var envelope *credential.EnvelopeError

	switch {
	case errors.As(err, &missing):
		return platformerrors.NewErrorWithContext(ctx, platformerrors.LayerHandler, platformerrors.ErrorTypeConfiguration,
			missing.Error(), err, "0b7f3c1e-52d4-4a8e-9c61-3f2a7d9e4b10", map[string]any{"missing": missing.Keys})
	case errors.Is(err, credential.ErrPrincipalRequired):
		return platformerrors.NewError(ctx, platformerrors.LayerHandler, platformerrors.ErrorTypeUnauthorized,
			credential.ErrPrincipalRequired.Error(), err, "5d2e8a4f-1b3c-4e7d-a9f0-6c8b2d4e1a37")
	case errors.Is(err, credential.ErrInvalidPrincipal):
		return platformerrors.NewError(ctx, platformerrors.LayerHandler, platformerrors.ErrorTypeForbidden,
			credential.ErrInvalidPrincipal.Error(), err, "9a1c4e7b-3d5f-4b2a-8e6c-0f9d7b5a3c21")
	case errors.Is(err, credential.ErrExchangeFailed), errors.As(err, &envelope):
		return platformerrors.NewError(ctx, platformerrors.LayerHandler, platformerrors.ErrorTypeExternal,
			err.Error(), err, "c4e81f2a-7b9d-4c3e-a5f1-2d6b8e0a9c47")
	case errors.Is(err, media.ErrEmptyFilename), errors.Is(err, media.ErrEmptyID):
		return platformerrors.NewError(ctx, platformerrors.LayerHandler, platformerrors.ErrorTypeValidation,
			err.Error(), err, "e6a9d3b1-4f2c-4a8e-b7d0-1c5e9f3a7b62")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return platformerrors.NewError(ctx, platformerrors.LayerHandler, platformerrors.ErrorTypeExternal,
			"request cancelled", err, "2f8b6d4a-9c1e-4e3b-8a7f-5d0c3b9e1a84")
	default:
		return platformerrors.NewError(ctx, platformerrors.LayerHandler, platformerrors.ErrorTypeExternal,
			fallback, err, "7d3a1f9c-6e4b-4d2a-9b8e-3c1f5a7d9e06")
	}
}
