// Package avatar persists provider avatar images in a blob bucket.
package avatar

import (
	"context"
	"log/slog"
	"strings"

	"puffsocial/config"
	"puffsocial/internal/domain/service"

	"github.com/pkg/errors"
	"go.uber.org/fx"
	"gocloud.dev/blob"

	// Bucket drivers selected by the avatars.bucketUrl scheme.
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/memblob"
	_ "gocloud.dev/blob/s3blob"
)

type store struct {
	bucket *blob.Bucket
}

// Params holds dependencies for the avatar store, injected by Fx
type Params struct {
	fx.In

	Lc     fx.Lifecycle
	Ctx    context.Context
	Config *config.Config
	Logger *slog.Logger
}

// New opens the avatar bucket from configuration.
func New(params Params) (service.AvatarStore, error) {
	cfg := params.Config.Avatars
	if cfg == nil || cfg.BucketURL == "" {
		return nil, errors.New("avatars bucket URL is not configured")
	}

	bucket, err := blob.OpenBucket(params.Ctx, cfg.BucketURL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open avatar bucket")
	}

	params.Lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			params.Logger.Info("Closing avatar bucket")

			return errors.WithStack(bucket.Close())
		},
	})

	return &store{bucket: bucket}, nil
}

// Store writes avatar bytes under the user's id and avatar hash. Keys follow
// avatars/<userID>/<hash>.<ext> so the serving CDN path is derivable from
// the stored hash alone.
func (s *store) Store(ctx context.Context, userID, hash string, data []byte, contentType string) error {
	ext := "png"
	if strings.HasPrefix(hash, "a_") {
		ext = "gif"
	}

	key := "avatars/" + userID + "/" + hash + "." + ext
	err := s.bucket.WriteAll(ctx, key, data, &blob.WriterOptions{
		ContentType: contentType,
	})

	return errors.Wrap(err, "failed to write avatar")
}
