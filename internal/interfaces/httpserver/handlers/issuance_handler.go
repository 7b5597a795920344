package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/janhq/cms-media/internal/domain/credential"
	"github.com/janhq/cms-media/internal/interfaces/httpserver/requests"
	"github.com/janhq/cms-media/internal/interfaces/httpserver/responses"
	"github.com/janhq/cms-media/internal/utils/platformerrors"
)

// IssuanceLister reads the issuance audit log.
type IssuanceLister interface {
	List(ctx context.Context, limit int) ([]credential.Issuance, error)
}

// IssuanceHandler exposes the issuance audit log. A nil lister means auditing is off.
type IssuanceHandler struct {
	issuances IssuanceLister
	log       zerolog.Logger
}

func NewIssuanceHandler(issuances IssuanceLister, log zerolog.Logger) *IssuanceHandler {
	return &IssuanceHandler{
		issuances: issuances,
		log:       log.With().Str("component", "issuance-handler").Logger(),
	}
}

// List godoc
// @Summary      List credential issuances
// @Description  Returns recent issuances, newest first. Access key ids and principals are redacted.
// @Tags         credentials
// @Produce      json
// @Param        limit  query     int  false  "Maximum entries (default 50, max 500)"
// @Success      200    {object}  responses.IssuanceListResponse
// @Failure      404    {object}  responses.ErrorResponse  "Audit log disabled"
// @Failure      500    {object}  responses.ErrorResponse
// @Security     BearerAuth
// @Router       /v1/credentials/issuances [get]
func (h *IssuanceHandler) List(c *gin.Context) {
	if h.issuances == nil {
		platformerrors.WriteHTTPError(c, platformerrors.NewError(
			c.Request.Context(),
			platformerrors.LayerHandler,
			platformerrors.ErrorTypeNotFound,
			"issuance audit log is not enabled",
			nil,
			"6f4a2c8e-0b7d-4e1a-9c3f-8d5b1e7a4c29",
		), h.log)
		return
	}

	var query requests.ListIssuancesQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		platformerrors.WriteValidationError(c, err.Error())
		return
	}

	items, err := h.issuances.List(c.Request.Context(), query.Limit)
	if err != nil {
		platformerrors.WriteError(c, err, h.log)
		return
	}

	c.JSON(http.StatusOK, responses.BuildIssuanceListResponse(items))
}
