// Package api implements the rating service behind the HTTP surface and
// defines its wire-format types.
//
// # Key Types
//
// RatingService: validates requests, derives song fingerprints, and shapes
// store aggregates into responses for registration, voting, per-song lookup,
// the top-rated ranking, and the admin report.
//
// SubmitRatingRequest / RegisterUserRequest: request bodies, validated with
// go-playground/validator struct tags.
//
// SongRating / AdminReport: response payloads built from store models.
//
// # Design Notes
//
// DTOs use snake_case JSON tags so existing browser clients keep working.
// Album and user_vote serialize as null when absent. Validation failures
// wrap ErrValidation; every other error comes from the store unchanged.
//
// Fingerprint folds case, Unicode normalization form, and whitespace before
// hashing, so "Nina Simone" and "nina  simone" rate the same song.
package api
