// Package logs reads the server log file for `radiocalico logs`.
//
// Last returns the final lines with bounded memory; Follow polls from an
// offset and hands each appended line to a callback until the context ends.
// A truncated or rotated file restarts from the beginning.
package logs
