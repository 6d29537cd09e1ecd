// Package capture provides frame sources for the classification engine.
//
// A Device polls a Source at a target rate and keeps only the newest frame
// in a single-slot mailbox: a frame that was never read is overwritten and
// counted as dropped. Sources read image files from a directory, fetch JPEG
// snapshots over HTTP or draw a moving test pattern.
package capture
