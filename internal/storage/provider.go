// Package storage defines the asset-tree file-system abstraction.
package storage

// Provider is the interface for asset-tree file operations. All paths are
// relative to the tree's asset root and use forward slashes.
type Provider interface {
	// List returns the relative path of every regular file under dir, in
	// lexical walk order, skipping ignored directories.
	List(dir string) ([]string, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically replaces the content of the file at path.
	Write(path string, content []byte) error
}
