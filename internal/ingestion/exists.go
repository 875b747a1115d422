package ingestion

import (
	"context"

	"github.com/your-org/fileflow/pkg/retry"
)

// exists asks the store whether key is present, retrying errors and misses
// so a just-written object on an eventually consistent store is found.
func (s *Service) exists(ctx context.Context, key, bucket string) (bool, error) {
	return retry.Do(ctx, s.retry, func(ctx context.Context) (bool, error) {
		return s.store.Exists(ctx, bucket, key)
	}, func(found bool, err error) bool {
		return err != nil || !found
	})
}
