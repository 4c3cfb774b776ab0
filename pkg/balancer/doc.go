// Package balancer selects a backend server from a fixed pool.
//
// # Strategies
//
//   - round_robin: cycles through the pool in order.
//   - least_connections: picks the server with the fewest active
//     connections; ties go to the earliest server in the pool.
//   - weighted_round_robin: over every run of sum(weights) selections each
//     server is chosen exactly weight times.
//   - ip_hash: hashes the client identifier so a client keeps landing on
//     the same server while the pool is unchanged.
//
// A HealthFiltered decorator removes servers marked unhealthy before the
// wrapped strategy runs.
//
// # Connection Accounting
//
// Selection never changes connection counts. Callers report work with
// Server.HandleRequest and Server.CompleteRequest, or use Balancer.Acquire
// and Balancer.Release which pair them with selection.
//
// # Errors
//
// Selecting from an empty pool, or a pool reduced to empty by health
// filtering, returns an error matching both ErrNoServers and
// fault.ErrInvalidState.
package balancer
