package handler

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erfannorozi54/Rashed-sub001/internal/service"
	appErrors "github.com/erfannorozi54/Rashed-sub001/pkg/errors"
)

type logoProviderStub struct {
	logo *service.Logo
	err  error
}

func (s logoProviderStub) Logo(ctx context.Context) (*service.Logo, error) {
	return s.logo, s.err
}

func TestBrandingHandlerLogo(t *testing.T) {
	fetched := time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)
	h := NewBrandingHandler(logoProviderStub{logo: &service.Logo{Data: []byte("\x89PNG"), ContentType: "image/png", FetchedAt: fetched}})
	c, w := newTestContext(http.MethodGet, "/branding/logo", "", nil)

	h.Logo(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.Equal(t, "Mon, 19 Oct 2026 08:00:00 GMT", w.Header().Get("Last-Modified"))
	assert.Equal(t, "\x89PNG", w.Body.String())
}

func TestBrandingHandlerLogoErrors(t *testing.T) {
	c, w := newTestContext(http.MethodGet, "/branding/logo", "", nil)
	NewBrandingHandler(logoProviderStub{err: appErrors.ErrUpstreamFetch}).Logo(c)
	assert.Equal(t, http.StatusBadGateway, w.Code)

	c, w = newTestContext(http.MethodGet, "/branding/logo", "", nil)
	NewBrandingHandler(logoProviderStub{err: appErrors.Clone(appErrors.ErrNotFound, "logo not configured")}).Logo(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
