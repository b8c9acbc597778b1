package data

import (
	"fmt"

	"mediashare/internal/biz"
	"mediashare/internal/conf"

	"github.com/go-kratos/kratos/v2/log"
)

// NewObjectStore selects the object store backend from config.
func NewObjectStore(c *conf.Data, d *Data, logger log.Logger) (biz.ObjectStore, error) {
	switch c.Storage.Driver {
	case "postgres":
		return NewPostgresStore(d, logger), nil
	case "s3":
		return NewS3Store(&c.Storage.S3, logger)
	case "memory", "":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
}
