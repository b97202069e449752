// Package store persists listeners, songs, and thumbs up/down ratings in
// SQLite and computes rating aggregates on read.
//
// The Store owns the connection pool, embedded schema migrations, and the
// SQLITE_BUSY retry policy. It exposes two layers: a small generic data
// access layer (Query, ExecScript) and typed operations used by the rating
// service. SubmitRating runs its four steps in a single transaction so a
// failure never leaves a listener or song row without its vote.
//
// Timestamps are fixed-width UTC text so lexical order matches time order.
// The song_rating_summary view is never materialized; aggregates are always
// recomputed from song_ratings.
package store
