// Package version reports build metadata of the running binary.
//
//	go build -ldflags "-X github.com/kbukum/injector/version.Version=1.0.0 \
//	    -X github.com/kbukum/injector/version.GitBranch=release"
//
// Unset fields fall back to the VCS stamps in runtime/debug build info.
package version
