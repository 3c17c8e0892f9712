// Package di provides a token-based dependency injection container.
//
// A Registry maps tokens to ordered sequences of injectables. Resolution
// turns a (token, requirement) pair into a value, a sequence of values,
// absence, or an error. Singletons are cached per registration, transients are
// built on every request, and cycles between constructions are reported with
// the full token path.
//
// # Declaring
//
//	var Storage = di.NewKey("storage")
//
//	repo := di.MustClass("repository", NewRepository,
//	    di.InjectOne(0, di.Name("config.dsn")),
//	    di.InjectAll(1, Storage),
//	)
//	di.RegisterBatch(
//	    di.Bind(di.Name("config.dsn"), di.ValueOf("postgres://...")),
//	    di.Bind(Storage, di.ClassOf(diskClass, di.Singleton)),
//	    di.Bind(Storage, di.ClassOf(memClass, di.Transient)),
//	)
//	di.Declare(repo)
//
// # Resolving
//
//	r, err := di.ResolveContext[*Repository](ctx, di.Global(), repo)
//	backends, err := di.ResolveAll[Backend](di.Global(), Storage)
//
// Requirements One, Any, OneOrNone, AnyOrNone, All and AllOrNone decide how
// zero, one or several registrations are treated. Container.Validate checks
// the declared graph at startup without constructing anything.
//
// Resolution holds a per-registration lock while a singleton is built. A
// resolution that would wait on a lock held by another goroutine which is
// itself waiting on this one fails with CIRCULAR_DEPENDENCY instead.
package di
