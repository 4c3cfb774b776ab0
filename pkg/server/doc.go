// Package server exposes a registry of named primitives over HTTP.
//
// # Routes
//
//	GET    /caches/{name}                         cache stats
//	GET    /caches/{name}/{key}                   200 value, 404 miss
//	PUT    /caches/{name}/{key}?ttl=              store the request body
//	DELETE /caches/{name}/{key}
//	POST   /caches/{name}/cleanup                 drop expired entries
//
//	POST   /limiters/{name}/check?principal=&cost= 200 allowed, 429 denied
//	POST   /limiters/{name}/reset
//	GET    /limiters/{name}                       principals and decision totals
//
//	POST   /queues/{name}/messages?timeout=&priority= 201 message, 503 full
//	GET    /queues/{name}/messages?timeout=       200 message, 204 empty
//	GET    /queues/{name}                         queue stats
//
//	GET    /balancers/{name}/next?client=&acquire=
//	POST   /balancers/{name}/servers/{id}/complete
//	PUT    /balancers/{name}/servers/{id}/health  {"healthy": bool}
//	GET    /balancers/{name}                      pool and selection stats
//
//	GET    /instances  /health  /ready  /version  /metrics
//
// Queue waits are capped by server.max_queue_wait whatever ?timeout= asks
// for. Errors are JSON objects of the form
//
//	{"error": {"type": "not_found", "message": "cache \"users\" not found"}}
//
// An unknown instance is 404 and an operation the instance cannot perform
// as configured is 409.
//
// # Middleware
//
// Requests pass through recovery, logging and metrics, request ID, and the
// optional in-flight cap, in that order. Request metrics are labelled with
// the route template, never the raw path.
package server
