// Package errors provides the structured error type shared by the container,
// its configuration layer and the introspection API. Every error carries a
// machine-readable code, a message and optional details, and maps onto an
// RFC 7807 style response body.
package errors
