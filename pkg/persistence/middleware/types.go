package middleware

import "github.com/aretw0/pitstop/pkg/persistence"

// Middleware allows wrapping a run Store to add behavior.
type Middleware func(persistence.Store) persistence.Store

// Chain wraps store with mws. The first middleware is the outermost, so it
// sees documents first on Put and last on Get.
func Chain(store persistence.Store, mws ...Middleware) persistence.Store {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}
