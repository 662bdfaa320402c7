// Package cas exchanges merkle trees with content-addressable stores.
//
// An [Uploader] reconciles the digest set of a computed tree against
// any ORAS content.Storage, probing for existing blobs and pushing only
// the missing descriptor and content blobs. A [Fetcher] walks the
// direction back: given a root directory digest it rebuilds the tree
// structure from descriptor blobs in the store.
//
// Authentication, retry policy, and transport configuration belong to
// the content.Storage implementation the caller supplies (an ORAS
// remote repository, the local disk store in the disk subpackage, or an
// in-memory store for tests).
package cas
