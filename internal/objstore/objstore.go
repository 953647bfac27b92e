// Package objstore fetches files kept in Google Cloud Storage, such as the
// users config the service reads at startup.
package objstore

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/2beens/liftlog/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
	"google.golang.org/api/option"
	"google.golang.org/api/storage/v1"
)

type Store struct {
	objects *storage.ObjectsService
}

func NewStore(ctx context.Context, opts ...option.ClientOption) (*Store, error) {
	storageService, err := storage.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve storage client: %w", err)
	}
	return &Store{
		objects: storageService.Objects,
	}, nil
}

// Download writes bucket/object to localPath. The file is replaced atomically,
// so a failed download never leaves a truncated file behind.
func (s *Store) Download(ctx context.Context, bucket, object, localPath string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "objstore.download")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	resp, err := s.objects.Get(bucket, object).Context(ctx).Download()
	if err != nil {
		return fmt.Errorf("download gs://%s/%s: %w", bucket, object, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.Warnf("close gs://%s/%s body: %s", bucket, object, err)
		}
	}()

	dir := filepath.Dir(localPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create dir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(localPath)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	written, err := io.Copy(tmp, resp.Body)
	if err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", localPath, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), localPath); err != nil {
		return fmt.Errorf("move into %s: %w", localPath, err)
	}

	log.Debugf("downloaded gs://%s/%s to %s (%d bytes)", bucket, object, localPath, written)
	return nil
}
