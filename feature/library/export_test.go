package library

import "catalog-sync/core/reconcile"

// SetIndexLoader replaces the loader behind the service's index cache.
func SetIndexLoader(s *Service, loader reconcile.IndexLoader) {
	s.index = reconcile.NewIndexCache(loader, s.sync.CacheTTL())
}
