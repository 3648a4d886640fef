// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// File is a handle to the binary content of one user-selected file. The
// extractor opens it once per call and does not keep it afterwards.
type File interface {
	// Name is the display name, usually the base file name.
	Name() string
	// Size is the content length in bytes.
	Size() int64
	// Open returns a reader over the whole content.
	Open() (io.ReadCloser, error)
}

type localFile struct {
	path string
	size int64
}

// LocalFile returns a File for a path on disk. It fails when the path cannot
// be stat'ed or names a directory.
func LocalFile(path string) (File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	return &localFile{path: path, size: info.Size()}, nil
}

func (f *localFile) Name() string                 { return filepath.Base(f.path) }
func (f *localFile) Size() int64                  { return f.size }
func (f *localFile) Open() (io.ReadCloser, error) { return os.Open(f.path) }

type memoryFile struct {
	name string
	data []byte
}

// MemoryFile returns a File over an in-memory buffer.
func MemoryFile(name string, data []byte) File {
	return &memoryFile{name: name, data: data}
}

func (f *memoryFile) Name() string { return f.name }
func (f *memoryFile) Size() int64  { return int64(len(f.data)) }
func (f *memoryFile) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(f.data)), nil
}
