package server

import (
	nethttp "net/http"

	"mediashare/internal/conf"
	"mediashare/internal/service"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/middleware/recovery"
	"github.com/go-kratos/kratos/v2/transport/http"
)

// NewHTTPServer new an HTTP server.
func NewHTTPServer(c *conf.Server, upload *service.UploadService, logger log.Logger) *http.Server {
	opts := []http.ServerOption{
		http.Middleware(
			recovery.Recovery(),
		),
	}
	if c.HTTP.Network != "" {
		opts = append(opts, http.Network(c.HTTP.Network))
	}
	if c.HTTP.Addr != "" {
		opts = append(opts, http.Address(c.HTTP.Addr))
	}
	if d := conf.ParseDuration(c.HTTP.Timeout, 0); d > 0 {
		opts = append(opts, http.Timeout(d))
	}

	srv := http.NewServer(opts...)
	srv.HandleFunc("/upload", upload.HandleUpload)
	// Everything else is a media code lookup.
	srv.HandlePrefix("/", nethttp.HandlerFunc(upload.HandleFetch))
	return srv
}
