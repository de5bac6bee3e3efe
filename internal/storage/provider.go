// Package storage defines the drafts directory abstraction.
package storage

import "time"

// FileMeta describes one Markdown file in the drafts directory.
type FileMeta struct {
	Path      string
	Checksum  string
	UpdatedAt time.Time
}

// Provider is the interface for drafts file operations. Paths are relative
// to the drafts root.
type Provider interface {
	// List returns metadata for every Markdown file under dir.
	List(dir string) ([]FileMeta, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically writes content to path.
	Write(path string, content []byte) error
	// Delete removes the file at path.
	Delete(path string) error
}

// IsDraft reports whether name has a Markdown extension.
func IsDraft(name string) bool {
	return hasSuffixFold(name, ".md") || hasSuffixFold(name, ".markdown")
}
