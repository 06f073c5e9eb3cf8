// Package loader registers features and mounts their routes.
//
// A feature implements Feature; the Manager loads every enabled feature in
// registration order and reports the names it loaded.
//
//	mgr := loader.NewManager()
//	mgr.Register(compare.NewFeature(client, bucket, logg, runs, cfg.Compare))
//	loaded, err := mgr.LoadAll(app)
package loader
