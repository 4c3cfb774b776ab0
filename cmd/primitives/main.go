// Primitives serves caches, rate limiters, bounded queues, and load
// balancers as named in-process instances behind a small HTTP API.
//
// Usage:
//
//	# Start the server
//	primitives serve --config primitives.yaml
//
//	# Reload instances whenever the file changes
//	primitives serve --config primitives.yaml --watch
//
//	# Check a configuration file
//	primitives validate --config primitives.yaml
//
//	# Drive synthetic load through one primitive
//	primitives bench --component ratelimit --duration 10s --rate 5000
package main

func main() {
	Execute()
}
