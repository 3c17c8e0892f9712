// Package inspect serves a read-only HTTP view of a di.Container.
//
// Routes:
//
//	GET /healthz                 overall and per-component health (never authenticated)
//	GET /version                 build information
//	GET /registrations           all registrations, filtered by ?kind= and ?token=
//	GET /registrations/:token    registrations of one token, by name or id
//	GET /validate                200 when the graph is valid, 409 with problems otherwise
//	GET /graph                   nodes, edges and construction levels (409 when invalid)
//
// Auth modes are "none", "bearer" (HS256 JWT) and "basic" (bcrypt password
// hash). The server implements component.Component so bootstrap can manage its
// lifecycle.
package inspect
