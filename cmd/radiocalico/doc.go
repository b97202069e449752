// Package main hosts the RadioCalico CLI entrypoint and command graph.
//
// The Cobra command tree runs the rating API server, prepares the SQLite
// database, and drives the API as a listener would: rating songs, showing the
// top-rated list, reading admin reports, and following the live stream with
// the terminal rating widget. Configuration resolution and logger setup live
// in commandContext so subcommands only wire internal packages together.
package main
