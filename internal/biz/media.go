package biz

import "context"

// MediaItem is one uploaded file: raw bytes plus the declared MIME
// type. Immutable once read from the request.
type MediaItem struct {
	Name string
	MIME string
	Size int64
	Data []byte
}

// Decision is the moderation outcome for one MediaItem.
type Decision struct {
	Accepted bool
	Reasons  []string // violation labels when rejected
}

// StoredObject is a persisted file keyed by its short code.
type StoredObject struct {
	Key         string
	ContentType string
	Data        []byte
}

// ObjectStore is the storage facade. Get returns (nil, nil) when the
// key is absent.
type ObjectStore interface {
	Get(ctx context.Context, key string) (*StoredObject, error)
	Put(ctx context.Context, obj *StoredObject) error
	Exists(ctx context.Context, key string) (bool, error)
}
