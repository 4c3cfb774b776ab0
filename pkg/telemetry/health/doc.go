// Package health provides liveness, readiness, and version endpoints.
//
// Liveness answers 200 whenever the process can serve HTTP. Readiness runs
// every registered check concurrently, each bounded by the checker's
// timeout, and answers 503 if any of them fails:
//
//	checker := health.New(2 * time.Second)
//	checker.Register("stats", func(ctx context.Context) error {
//		_, err := store.Totals(ctx, "")
//		return err
//	})
//	router.HandleFunc("/health", checker.LivenessHandler())
//	router.HandleFunc("/ready", checker.ReadinessHandler())
package health
