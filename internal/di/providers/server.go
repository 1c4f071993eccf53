package providers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/samber/do/v2"

	"github.com/shutterboxapp/shutterbox/internal/api"
	"github.com/shutterboxapp/shutterbox/internal/config"
	"github.com/shutterboxapp/shutterbox/internal/logger"
	"github.com/shutterboxapp/shutterbox/internal/mdns"
	"github.com/shutterboxapp/shutterbox/internal/metrics"
	"github.com/shutterboxapp/shutterbox/internal/service"
)

// Version is reported in the OpenAPI document. Set at build time.
var Version = "dev"

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
	api *api.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := h.Server.Shutdown(ctx)
	return errors.Join(err, h.api.Shutdown())
}

// ProvideHTTPServer provides the HTTP server.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	m := do.MustInvoke[*metrics.Metrics](i)
	log := do.MustInvoke[*logger.Logger](i)

	services := &api.Services{
		Assets:  do.MustInvoke[*service.AssetService](i),
		Tags:    do.MustInvoke[*service.TagService](i),
		Views:   do.MustInvoke[*service.ViewService](i),
		Layouts: do.MustInvoke[*LayoutServiceHandle](i).LayoutService,
		Books:   do.MustInvoke[*service.PhotoBookService](i),
	}

	// Search is optional; the API answers 503 without it.
	if searchHandle, err := do.Invoke[*SearchServiceHandle](i); err != nil {
		log.Warn("Search unavailable", "error", err)
	} else {
		services.Search = searchHandle.SearchService
	}

	handler := api.NewServer(services, sseHandle.Manager, m, api.Options{
		Version:     Version,
		CORSOrigins: cfg.Server.CORSOrigins,
		MaxUploadMB: cfg.Server.MaxUploadMB,
		UploadRPS:   cfg.RateLimit.UploadRPS,
		UploadBurst: cfg.RateLimit.UploadBurst,
	}, log.Component("http"))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start in background
	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", err)
		}
	}()

	return &HTTPServerHandle{Server: srv, api: handler}, nil
}

// MDNSServiceHandle wraps mdns.Service with Shutdownable. Service is nil
// when advertising is disabled.
type MDNSServiceHandle struct {
	*mdns.Service
}

// Shutdown implements do.Shutdownable.
func (h *MDNSServiceHandle) Shutdown() error {
	if h.Service != nil {
		h.Stop()
	}
	return nil
}

// ProvideMDNSService advertises the HTTP server on the local network.
// A failed advertisement is logged, never fatal.
func ProvideMDNSService(i do.Injector) (*MDNSServiceHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if !cfg.Server.AdvertiseMDNS {
		log.Info("mDNS advertisement disabled")
		return &MDNSServiceHandle{}, nil
	}

	port, err := strconv.Atoi(cfg.Server.Port)
	if err != nil {
		return nil, errors.New("mDNS needs a numeric SERVER_PORT")
	}

	svc := mdns.NewService(log.Component("mdns"))
	if err := svc.Start(mdns.Announcement{Port: port, Version: Version}); err != nil {
		log.Warn("mDNS advertisement unavailable", "error", err)
	}
	return &MDNSServiceHandle{Service: svc}, nil
}
