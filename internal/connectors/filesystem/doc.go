// Package filesystem stores item payloads as files in a single directory
// and watches that directory for changes made outside the engine.
//
// Each payload lives at <dir>/<name><ext>. Writes go to a hidden temp file
// in the same directory and are renamed into place, so a reader never sees
// a partial payload. Files are accessed through an afero.Fs so tests can
// run against an in-memory filesystem.
package filesystem
