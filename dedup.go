package httpfactory

// DedupKeyFunc derives the deduplication key for a call. Calls sharing a
// key while one is in flight share its result.
type DedupKeyFunc func(method, url string) string

// DefaultDedupKeyFunc keys on method and resolved URL.
func DefaultDedupKeyFunc(method, url string) string {
	return method + ":" + url
}

// DedupCondition decides whether a call participates in deduplication.
type DedupCondition func(method string) bool

// DefaultDedupCondition deduplicates only GET requests. Collapsing
// non-idempotent calls would silently drop writes.
func DefaultDedupCondition(method string) bool {
	return method == "GET"
}
