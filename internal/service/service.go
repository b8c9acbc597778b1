package service

import (
	"mediashare/internal/conf"
	"mediashare/internal/pkg/cache"
	"mediashare/internal/pkg/coalesce"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/wire"
)

// ProviderSet is service providers.
var ProviderSet = wire.NewSet(
	NewUploadService,
	NewCoalescer,
)

// NewCoalescer builds the request coalescer over the configured
// outcome cache.
func NewCoalescer(outcomes cache.Cache, uc *conf.Upload, logger log.Logger) *coalesce.Coalescer {
	retention := coalesce.DefaultRetention
	if uc != nil {
		retention = conf.ParseDuration(uc.CoalesceRetention, retention)
	}
	return coalesce.New(outcomes, retention, logger)
}
