// Package server exposes the matching engine over HTTP.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
// [RequestLogger] and [Recoverer] are the stock middleware.
//
// The [BasicRouter] implementation uses [http.ServeMux] method patterns ("POST /path") internally.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
//
// # Endpoints
//
//   - POST /events/listing-created : hand a listing-created event to the engine (202, 400 or 503)
//   - GET /health : liveness
//   - GET /stats : engine counters as JSON
package server
