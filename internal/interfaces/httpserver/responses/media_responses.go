package responses

import (
	"github.com/janhq/cms-media/internal/domain/credential"
	"github.com/janhq/cms-media/internal/domain/media"
	"github.com/janhq/cms-media/internal/utils/platformerrors"
)

// ErrorResponse documents the error body written by platformerrors.
type ErrorResponse = platformerrors.HTTPErrorResponse

// UploadResponse lists the records of the stored files in upload order.
type UploadResponse struct {
	Data []media.Media `json:"data"`
}

// PreviewResponse carries a public read URL.
type PreviewResponse struct {
	URL string `json:"url"`
}

// IssuanceListResponse lists recent credential issuances, newest first.
type IssuanceListResponse struct {
	Data []credential.Issuance `json:"data"`
}

func BuildUploadResponse(items []media.Media) *UploadResponse {
	if items == nil {
		items = []media.Media{}
	}
	return &UploadResponse{Data: items}
}

func BuildIssuanceListResponse(items []credential.Issuance) *IssuanceListResponse {
	if items == nil {
		items = []credential.Issuance{}
	}
	return &IssuanceListResponse{Data: items}
}
