package data

import (
	"context"
	"errors"

	"mediashare/internal/biz"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/jackc/pgx/v5"
)

// postgresStore keeps stored objects in a stored_objects table, media
// bytes included. Codes are the primary key, so a duplicate insert
// fails instead of silently overwriting.
type postgresStore struct {
	data *Data
	log  *log.Helper
}

// NewPostgresStore creates an ObjectStore over the shared pgx pool.
func NewPostgresStore(data *Data, logger log.Logger) biz.ObjectStore {
	return &postgresStore{data: data, log: log.NewHelper(logger)}
}

func (s *postgresStore) Get(ctx context.Context, key string) (*biz.StoredObject, error) {
	obj := &biz.StoredObject{Key: key}
	err := s.data.Pool.QueryRow(ctx,
		"SELECT content_type, data FROM stored_objects WHERE code = $1", key,
	).Scan(&obj.ContentType, &obj.Data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return obj, nil
}

func (s *postgresStore) Put(ctx context.Context, obj *biz.StoredObject) error {
	_, err := s.data.Pool.Exec(ctx,
		"INSERT INTO stored_objects (code, content_type, data) VALUES ($1, $2, $3)",
		obj.Key, obj.ContentType, obj.Data,
	)
	return err
}

func (s *postgresStore) Exists(ctx context.Context, key string) (bool, error) {
	var exists bool
	err := s.data.Pool.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM stored_objects WHERE code = $1)", key,
	).Scan(&exists)
	return exists, err
}
