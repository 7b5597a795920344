package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/janhq/cms-media/internal/domain/credential"
	"github.com/janhq/cms-media/internal/infrastructure/auth"
	"github.com/janhq/cms-media/internal/utils/platformerrors"
)

// TokenIssuer issues leases for a principal. *credential.Broker satisfies it.
type TokenIssuer interface {
	Issue(ctx context.Context, principal credential.Principal) (*credential.Lease, error)
}

// TokenHandler exposes the credential broker endpoint.
type TokenHandler struct {
	broker TokenIssuer
	log    zerolog.Logger
}

func NewTokenHandler(broker TokenIssuer, log zerolog.Logger) *TokenHandler {
	return &TokenHandler{
		broker: broker,
		log:    log.With().Str("component", "token-handler").Logger(),
	}
}

// Issue godoc
// @Summary      Issue temporary storage credentials
// @Description  Exchanges the bucket access policy for a federated token valid for one hour.
// @Tags         credentials
// @Produce      json
// @Success      200  {object}  credential.Envelope
// @Failure      401  {object}  responses.ErrorResponse
// @Failure      500  {object}  responses.ErrorResponse  "Missing configuration"
// @Failure      502  {object}  responses.ErrorResponse  "Identity provider error"
// @Security     BearerAuth
// @Router       /api/s3-sts-token [get]
func (h *TokenHandler) Issue(c *gin.Context) {
	c.Header("Cache-Control", "no-store")

	lease, err := h.broker.Issue(c.Request.Context(), auth.PrincipalFrom(c))
	if err != nil {
		platformerrors.WriteHTTPError(c, classify(c.Request.Context(), err, "failed to issue credentials"), h.log)
		return
	}

	c.JSON(http.StatusOK, lease.Envelope())
}
