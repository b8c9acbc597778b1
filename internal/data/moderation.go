package data

import (
	"mediashare/internal/biz"
	"mediashare/internal/conf"
	"mediashare/internal/pkg/sightengine"

	"github.com/go-kratos/kratos/v2/log"
)

// NewModerationClient creates the moderation service client from
// config.
func NewModerationClient(mc *conf.Moderation, logger log.Logger) biz.ModerationClient {
	helper := log.NewHelper(logger)

	cfg := sightengine.DefaultConfig()
	if mc != nil {
		if mc.APIURL != "" {
			cfg.BaseURL = mc.APIURL
		}
		cfg.APIUser = mc.APIUser
		cfg.APISecret = mc.APISecret
		cfg.Timeout = conf.ParseDuration(mc.Timeout, cfg.Timeout)
	}

	helper.Infof("moderation client for %s", cfg.BaseURL)
	return sightengine.NewClient(cfg)
}
