package linker

import (
	"os"

	"weld/report"
)

// MappedFile is a byte region backing an input object.  For a standalone
// input the region covers the whole file; for an archive member it covers the
// member's bytes and Parent identifies the containing archive.
type MappedFile struct {
	// Name is the path of the file, or the member name for archive members.
	Name string

	// Data is the region's bytes.
	Data []byte

	// Off is the region's byte offset within Parent.  Zero for standalone
	// files.
	Off int64

	// Parent is the enclosing file, or nil for standalone files.
	Parent *MappedFile
}

// OpenFile reads the whole file at the given path as a mapped region.
func OpenFile(path string) (*MappedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, report.Fatalf(path, "cannot open: %s", err.Error())
	}

	return &MappedFile{Name: path, Data: data}, nil
}

// Slice creates a sub-region of the file, as used for archive members.
func (mf *MappedFile) Slice(name string, off, size int64) *MappedFile {
	return &MappedFile{
		Name:   name,
		Data:   mf.Data[off : off+size],
		Off:    off,
		Parent: mf,
	}
}

// Root returns the outermost file enclosing this region: the region itself
// for standalone files, the containing archive for archive members.
func (mf *MappedFile) Root() *MappedFile {
	root := mf
	for root.Parent != nil {
		root = root.Parent
	}
	return root
}

// RootOffset returns the region's byte offset within its root file.
func (mf *MappedFile) RootOffset() int64 {
	off := int64(0)
	for f := mf; f.Parent != nil; f = f.Parent {
		off += f.Off
	}
	return off
}
