// Package integration contains integration tests that exercise the full
// build-compute-sync-fetch cycle against a real OCI registry running in
// a container.
//
// Run with:
//
//	go test -tags integration ./integration/
//
// Set SKIP_DOCKER_TESTS=1 to skip tests requiring Docker.
package integration
