/*
Package persistence archives the final state of workflow runs.

An Archive encodes states as JSON and hands the documents to a Store. Stores
can be wrapped with middleware (see the middleware package) to mask personal
data or encrypt documents at rest:

	store := middleware.Chain(redis.NewRunStore(client),
		middleware.MustPIIMiddleware([]string{"^customer_"}),
		middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key}),
	)
	archive := persistence.NewArchive(store)
*/
package persistence
