package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/erfannorozi54/Rashed-sub001/internal/service"
	"github.com/erfannorozi54/Rashed-sub001/pkg/response"
)

type logoProvider interface {
	Logo(ctx context.Context) (*service.Logo, error)
}

// BrandingHandler serves the cached academy logo.
type BrandingHandler struct {
	logos logoProvider
}

// NewBrandingHandler constructs BrandingHandler.
func NewBrandingHandler(logos logoProvider) *BrandingHandler {
	return &BrandingHandler{logos: logos}
}

// Logo godoc
// @Summary Academy logo
// @Tags Branding
// @Produce image/png
// @Success 200 {file} file
// @Failure 404 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /branding/logo [get]
func (h *BrandingHandler) Logo(c *gin.Context) {
	logo, err := h.logos.Logo(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Cache-Control", "public, max-age=300")
	c.Header("Last-Modified", logo.FetchedAt.UTC().Format(http.TimeFormat))
	c.Data(http.StatusOK, logo.ContentType, logo.Data)
}
