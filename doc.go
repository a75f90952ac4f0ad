// Package hds provides a multi-priority process scheduler simulation.
//
// Four cooperating workers share one scheduler state:
//
//   - dispatcher – moves loaded job descriptors into the priority queues
//   - scheduler  – promotes the best admissible entry into the next-to-run slot
//   - cpu        – runs the active entry one tick at a time and reclaims resources
//   - stats      – emits status snapshots on request
//
// User jobs draw memory from a best-fit allocator with compaction; realtime
// jobs bypass admission control and run against a reserved region.
//
//	cfg, _ := hds.LoadConfig(ctx, "config.yaml")
//	srv, _ := hds.New(cfg, hds.WithLogger(logger))
//	srv.Start(ctx)
//	defer srv.Shutdown(ctx)
//	lines := srv.Snapshot()
package hds
