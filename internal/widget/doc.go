// Package widget implements the listener-side rating widget.
//
// A Widget owns the explicit State for the current track: counts, the
// listener's vote, whether a vote is in flight, and the last error. The
// Poller feeds it track changes from the now-playing metadata feed, and the
// Selector picks the first HLS variant that answers with a playlist.
// Identities created by LoadOrCreateIdentity are forgeable pseudo-IDs used
// only to deduplicate votes.
package widget
