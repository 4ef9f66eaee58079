package security

import (
	"context"
	"net/url"
	"strings"

	"github.com/goliatone/go-receivers/core"
	repositorycache "github.com/goliatone/go-repository-cache/cache"
)

const secretCacheKeyPrefix = "go-receivers::secret::v1"

type cachedSecret struct {
	Secret string
	Found  bool
}

// CachedSecretSource memoizes lookups from a base source through a cache
// service, for hosts whose secret backend is remote.
type CachedSecretSource struct {
	base  core.SecretSource
	cache repositorycache.CacheService
}

func NewCachedSecretSource(base core.SecretSource, cacheService repositorycache.CacheService) (*CachedSecretSource, error) {
	if base == nil {
		return nil, securityInternal("security: base secret source is required", nil)
	}
	if cacheService == nil {
		return nil, securityInternal("security: secret cache service is required", nil)
	}
	return &CachedSecretSource{base: base, cache: cacheService}, nil
}

// SecretCacheKey returns the deterministic cache key contract:
// go-receivers::secret::v1::<receiver>::<instance id> with each segment
// URL-path escaped after normalization.
func SecretCacheKey(receiver string, instanceID string) string {
	segments := []string{
		url.PathEscape(strings.TrimSpace(strings.ToLower(receiver))),
		url.PathEscape(strings.TrimSpace(strings.ToLower(instanceID))),
	}
	return strings.Join(append([]string{secretCacheKeyPrefix}, segments...), "::")
}

func (s *CachedSecretSource) Lookup(ctx context.Context, receiver string, instanceID string) (string, bool, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return "", false, securityInternal("security: cached secret source is not configured", nil)
	}
	key := SecretCacheKey(receiver, instanceID)
	entry, err := repositorycache.GetOrFetch(ctx, s.cache, key, func(ctx context.Context) (cachedSecret, error) {
		secret, found, fetchErr := s.base.Lookup(ctx, receiver, instanceID)
		if fetchErr != nil {
			return cachedSecret{}, fetchErr
		}
		return cachedSecret{Secret: secret, Found: found}, nil
	})
	if err != nil {
		return "", false, err
	}
	return entry.Secret, entry.Found, nil
}

var _ core.SecretSource = (*CachedSecretSource)(nil)
