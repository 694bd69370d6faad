package importer

import (
	"bytes"
	"fmt"
	"io"
	"sort"
)

// fakeArchive is a minimal in-memory ArchiveReader for white-box tests of
// the unexported fingerprinting and filename helpers.
type fakeArchive struct {
	name  string
	files map[string][]byte
}

func newFakeArchive(name string, files map[string][]byte) *fakeArchive {
	return &fakeArchive{name: name, files: files}
}

func (a *fakeArchive) Name() string { return a.name }

func (a *fakeArchive) Filenames() []string {
	names := make([]string, 0, len(a.files))
	for n := range a.files {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (a *fakeArchive) GetStream(name string) (io.ReadSeeker, error) {
	content, ok := a.files[name]
	if !ok {
		return nil, fmt.Errorf("no such entry: %s", name)
	}
	return bytes.NewReader(content), nil
}
