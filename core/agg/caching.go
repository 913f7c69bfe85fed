package agg

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"time"

	"github.com/huangsam/commitclock/internal/contract"
	"github.com/huangsam/commitclock/schema"
)

// currentCacheVersion defines the version of the cache schema
const currentCacheVersion = 1

// maxCacheAge is how long a cached history stays valid.
const maxCacheAge = 7 * 24 * time.Hour

// LoadCommitLog returns the parsed history of a repository, going through the
// activity store when one is configured. The second return value reports a cache hit.
func LoadCommitLog(ctx context.Context, client contract.GitClient, store contract.CacheStore, repoPath string) (*schema.CommitLog, bool, error) {
	if store == nil {
		// Fallback to direct computation
		result, err := readCommitLog(ctx, client, repoPath)
		return result, false, err
	}

	key := generateCacheKey(ctx, client, repoPath)

	// Check for cache hit
	if result := checkCacheHit(store, key); result != nil {
		return result, true, nil
	}

	// Cache miss: compute and store
	result, err := computeAndStore(ctx, client, store, repoPath, key)
	return result, false, err
}

// readCommitLog runs git and parses its output.
func readCommitLog(ctx context.Context, client contract.GitClient, repoPath string) (*schema.CommitLog, error) {
	out, err := client.GetCommitLog(ctx, repoPath)
	if err != nil {
		return nil, err
	}
	records, skipped := ParseCommitLog(out)
	return &schema.CommitLog{Records: records, Skipped: skipped}, nil
}

// checkCacheHit attempts to retrieve and validate a cached result
func checkCacheHit(store contract.CacheStore, key string) *schema.CommitLog {
	data, version, ts, err := store.Get(key)
	if err != nil {
		return nil // Cache miss
	}

	// Validate version and staleness
	if version == currentCacheVersion {
		if time.Since(time.Unix(ts, 0)) <= maxCacheAge {
			var result schema.CommitLog
			if err := json.Unmarshal(data, &result); err == nil {
				return &result // Cache hit
			}
		}
	}

	return nil // Cache miss (stale or version mismatch)
}

// computeAndStore computes the result and stores it in cache
func computeAndStore(ctx context.Context, client contract.GitClient, store contract.CacheStore, repoPath, key string) (*schema.CommitLog, error) {
	result, err := readCommitLog(ctx, client, repoPath)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(result); err == nil {
		if err := store.Set(key, data, currentCacheVersion, time.Now().Unix()); err != nil {
			contract.Log.WithError(err).WithField("repo", repoPath).Debug("cache write failed")
		}
	}

	return result, nil
}

// generateCacheKey creates a unique key from the repository path and its HEAD.
// Without a HEAD hash the key still works but is only refreshed by staleness.
func generateCacheKey(ctx context.Context, client contract.GitClient, repoPath string) string {
	repoHash, err := client.GetRepoHash(ctx, repoPath)
	if err != nil {
		repoHash = ""
	}
	key := fmt.Sprintf("%s:%s:%s", repoPath, contract.CommitLogFormat, repoHash)
	return fmt.Sprintf("%x", sha256.Sum256([]byte(key)))
}
