package audit

import "sync"

// indexCache tracks, per username, whether the entityId-index secondary
// index has already been ensured on that user's audit database within this
// process — avoiding a repeated EnsureIndex round trip on every filtered
// List call. It is write-through and never evicts within a process
// lifetime, per §5/§9.
var indexCache sync.Map // map[string]struct{}

func indexEnsured(username string) bool {
	_, ok := indexCache.Load(username)
	return ok
}

func markIndexEnsured(username string) {
	indexCache.Store(username, struct{}{})
}

// serviceCache memoizes one *Service per (couchUrl, username) pair so
// repeated requests for the same user reuse the same database handle
// instead of reopening it.
var serviceCache sync.Map // map[string]*Service

func cachedService(key string) (*Service, bool) {
	v, ok := serviceCache.Load(key)
	if !ok {
		return nil, false
	}
	return v.(*Service), true
}

func cacheService(key string, svc *Service) {
	serviceCache.Store(key, svc)
}

// ResetCaches clears both process-wide ambient caches. Tests must call this
// between cases that rely on a clean cache state.
func ResetCaches() {
	indexCache = sync.Map{}
	serviceCache = sync.Map{}
}
