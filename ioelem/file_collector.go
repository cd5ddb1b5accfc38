package ioelem

import "os"

// FileCollector writes every byte it's given straight through to an
// *os.File, never reporting done on its own (like StringCollector, it
// relies on an outer boundary -- a fixed size via DelimitedCollector, or
// connection close -- to know when to stop).
type FileCollector struct {
	f *os.File
}

func NewFileCollector(f *os.File) *FileCollector { return &FileCollector{f: f} }

func (fc *FileCollector) Init() error { return nil }

func (fc *FileCollector) Tick(data []byte) (int, bool, error) {
	n, err := fc.f.Write(data)
	return n, false, err
}

func (fc *FileCollector) Close() error { return fc.f.Close() }
