// Package iocache persists commit histories and analysis runs in SQL databases.
package iocache

import (
	"sync"

	"github.com/huangsam/commitclock/internal/contract"
)

// CacheStoreManager hands out the configured stores. A store that was not
// configured is a nil interface, so callers can skip it with a plain nil check.
type CacheStoreManager struct {
	sync.RWMutex // Protects the store pointers during initialization
	activity     contract.CacheStore
	analysis     contract.AnalysisStore
}

var _ contract.CacheManager = &CacheStoreManager{} // Compile-time check

// GetActivityStore returns the commit-log cache.
func (mgr *CacheStoreManager) GetActivityStore() contract.CacheStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.activity
}

// GetAnalysisStore returns the run tracker.
func (mgr *CacheStoreManager) GetAnalysisStore() contract.AnalysisStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.analysis
}
