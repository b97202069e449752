// Package metrics registers the Prometheus collectors exported by the rating
// server on /metrics.
//
// Collectors are package globals registered through promauto, in the style of
// the default registry. Callers record through the Record* helpers so label
// sets stay consistent:
//
//	metrics.RecordAPIRequest("POST", "/api/ratings", "200", elapsed)
//	metrics.RecordVote("up")
//	metrics.RecordDBQuery("submit_rating", elapsed, err)
//
// Middleware labels requests by chi route pattern rather than raw path so
// artist and title segments never explode label cardinality.
package metrics
