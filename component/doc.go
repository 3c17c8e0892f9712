// Package component defines lifecycle-managed application parts and an
// ordered registry that starts them in registration order and stops them in
// reverse.
//
// Optional interfaces let a component describe itself (Describable) and list
// the HTTP routes it serves (RouteProvider) for the startup summary.
package component
