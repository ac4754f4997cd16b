// Package store retains finished batch reports so they can be fetched and
// exported after the submitting request has returned.
//
// Reports live in Redis under "batch:report:<id>" with a fixed TTL. Retention
// is not a cache of partner answers: a stored report is never used to skip a
// remote call.
//
// # Basic Usage
//
//	rdb := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	reports := store.NewRedis(rdb, store.DefaultTTL)
//
//	if err := reports.Save(ctx, result); err != nil {
//		// retention failures never fail a batch
//	}
//
//	result, err := reports.Get(ctx, id)
//	if errors.Is(err, store.ErrNotFound) {
//		// expired or never existed
//	}
//
// Finished reports can additionally be archived as CSV to S3 with
// S3Archiver.
package store
