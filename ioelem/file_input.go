package ioelem

import (
	"io"
	"os"
)

// FileInput streams an *os.File's remaining contents in fixed-size chunks.
type FileInput struct {
	f         *os.File
	chunkSize int
	buf       []byte
	pending   int
	off       int
	eof       bool
}

// NewFileInput constructs a FileInput reading chunkSize bytes at a time.
func NewFileInput(f *os.File, chunkSize int) *FileInput {
	return &FileInput{f: f, chunkSize: chunkSize, buf: make([]byte, chunkSize)}
}

func (fi *FileInput) Init() error { return nil }

func (fi *FileInput) Tick(sink io.Writer) (bool, int, error) {
	if fi.pending == fi.off {
		if fi.eof {
			return true, 0, nil
		}
		n, err := fi.f.Read(fi.buf)
		if n == 0 && err == io.EOF {
			fi.eof = true
			return true, 0, nil
		}
		if err != nil && err != io.EOF {
			return false, 0, err
		}
		if err == io.EOF {
			fi.eof = true
		}
		fi.pending = n
		fi.off = 0
	}

	n, err := sink.Write(fi.buf[fi.off:fi.pending])
	fi.off += n
	if err != nil {
		return false, n, err
	}
	done := fi.off == fi.pending && fi.eof
	return done, n, nil
}

func (fi *FileInput) Close() error { return fi.f.Close() }

// AutoFileInput streams a file like FileInput, but sizes its read chunk to
// the historical average of sink write sizes, tracked via a GradualAverage
// or LimitedAverage, trading a little latency for fewer, better-sized
// syscalls on steady workloads.
type AutoFileInput struct {
	inner    *FileInput
	averager interface {
		AddValue(float64)
		Avg() float64
	}
	minChunk int
}

// NewAutoFileInput uses a GradualAverage (average over the file's entire
// lifetime) to size reads.
func NewAutoFileInput(f *os.File, minChunk int) *AutoFileInput {
	return &AutoFileInput{
		inner:    NewFileInput(f, minChunk),
		averager: &GradualAverage{},
		minChunk: minChunk,
	}
}

// NewAutoFileInputLimited uses a LimitedAverage over the last samples
// writes to size reads, adapting faster to a changing peer.
func NewAutoFileInputLimited(f *os.File, minChunk, samples int) *AutoFileInput {
	return &AutoFileInput{
		inner:    NewFileInput(f, minChunk),
		averager: NewLimitedAverage(samples),
		minChunk: minChunk,
	}
}

func (a *AutoFileInput) Init() error { return a.inner.Init() }

func (a *AutoFileInput) Tick(sink io.Writer) (bool, int, error) {
	done, n, err := a.inner.Tick(sink)
	if n > 0 {
		a.averager.AddValue(float64(n))
		// Only safe to resize once the current buffer has no unflushed
		// bytes left (off == pending); a short sink.Write can leave bytes
		// pending, and swapping buf out from under them would either slice
		// out of range or hand the next Write a buffer that no longer holds
		// the data at the old off/pending indices.
		if avg := int(a.averager.Avg()); a.inner.off == a.inner.pending && avg > a.minChunk && avg <= len(a.inner.buf)*4 {
			a.inner.buf = make([]byte, avg)
		}
	}
	return done, n, err
}

func (a *AutoFileInput) Close() error { return a.inner.Close() }
