package settings

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
)

// DefaultStorageSize is the size of an emulated EEPROM.
const DefaultStorageSize = 64

var ErrOutOfRange = errors.New("storage access out of range")

// Memory is an in-memory EEPROM. Fresh memory reads as Erased.
type Memory struct {
	mu     sync.Mutex
	data   []byte
	writes int
}

// Ensure Memory and File implement Storage.
var (
	_ Storage = (*Memory)(nil)
	_ Storage = (*File)(nil)
)

// NewMemory creates an erased memory of size bytes.
func NewMemory(size int) *Memory {
	if size <= 0 {
		size = DefaultStorageSize
	}
	data := make([]byte, size)
	for i := range data {
		data[i] = Erased
	}
	return &Memory{data: data}
}

// ReadAt implements io.ReaderAt.
func (m *Memory) ReadAt(p []byte, off int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if off < 0 || off >= int64(len(m.data)) {
		return 0, ErrOutOfRange
	}
	n := copy(p, m.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// WriteAt implements io.WriterAt.
func (m *Memory) WriteAt(p []byte, off int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if off < 0 || off+int64(len(p)) > int64(len(m.data)) {
		return 0, ErrOutOfRange
	}
	m.writes++
	return copy(m.data[off:], p), nil
}

// Writes returns the number of WriteAt calls that reached the memory.
func (m *Memory) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

// Bytes returns a copy of the memory contents.
func (m *Memory) Bytes() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]byte, len(m.data))
	copy(result, m.data)
	return result
}

// File is an EEPROM image kept in a host file. Bytes beyond the end of the
// file, or a missing file, read as Erased.
type File struct {
	path string
	mu   sync.Mutex
}

// NewFile creates a File storage at path. The file is created on first write.
func NewFile(path string) *File {
	return &File{path: path}
}

// Path returns the image file path.
func (f *File) Path() string { return f.path }

// ReadAt implements io.ReaderAt.
func (f *File) ReadAt(p []byte, off int64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i := range p {
		p[i] = Erased
	}

	file, err := os.Open(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return len(p), nil
		}
		return 0, fmt.Errorf("failed to open storage file: %w", err)
	}
	defer file.Close()

	n, err := file.ReadAt(p, off)
	if err != nil && err != io.EOF {
		return n, fmt.Errorf("failed to read storage file: %w", err)
	}
	// ReadAt may have clobbered the tail before hitting EOF.
	for i := n; i < len(p); i++ {
		p[i] = Erased
	}
	return len(p), nil
}

// WriteAt implements io.WriterAt.
func (f *File) WriteAt(p []byte, off int64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	file, err := os.OpenFile(f.path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return 0, fmt.Errorf("failed to open storage file: %w", err)
	}

	n, err := file.WriteAt(p, off)
	if err != nil {
		file.Close()
		return n, fmt.Errorf("failed to write storage file: %w", err)
	}
	if err := file.Close(); err != nil {
		return n, fmt.Errorf("failed to close storage file: %w", err)
	}
	return n, nil
}

// BlockDevice is NOR flash: erased bytes read as Erased and a write can only
// clear bits, so a block is erased before it is rewritten.
type BlockDevice interface {
	io.ReaderAt
	io.WriterAt
	Size() int64
	EraseBlockSize() int64
	EraseBlocks(start, length int64) error
}

// Flash emulates an EEPROM on a flash block device with read-erase-write of
// whole erase blocks. A block whose contents would not change is left alone.
type Flash struct {
	mu    sync.Mutex
	dev   BlockDevice
	block []byte
}

// Ensure Flash implements Storage.
var _ Storage = (*Flash)(nil)

// NewFlash wraps dev.
func NewFlash(dev BlockDevice) *Flash {
	return &Flash{dev: dev, block: make([]byte, dev.EraseBlockSize())}
}

// ReadAt implements io.ReaderAt.
func (f *Flash) ReadAt(p []byte, off int64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if off < 0 || off+int64(len(p)) > f.dev.Size() {
		return 0, ErrOutOfRange
	}
	return f.dev.ReadAt(p, off)
}

// WriteAt implements io.WriterAt. Writes may span erase blocks.
func (f *Flash) WriteAt(p []byte, off int64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if off < 0 || off+int64(len(p)) > f.dev.Size() {
		return 0, ErrOutOfRange
	}

	size := int64(len(f.block))
	written := 0
	for written < len(p) {
		at := off + int64(written)
		blk := at / size
		start := blk * size
		n := min(len(p)-written, int(start+size-at))

		if err := f.rewrite(blk, start, at-start, p[written:written+n]); err != nil {
			return written, err
		}
		written += n
	}
	return written, nil
}

func (f *Flash) rewrite(blk, start, pos int64, chunk []byte) error {
	if _, err := f.dev.ReadAt(f.block, start); err != nil && err != io.EOF {
		return fmt.Errorf("failed to read flash block %d: %w", blk, err)
	}
	if string(f.block[pos:pos+int64(len(chunk))]) == string(chunk) {
		return nil
	}
	copy(f.block[pos:], chunk)

	if err := f.dev.EraseBlocks(blk, 1); err != nil {
		return fmt.Errorf("failed to erase flash block %d: %w", blk, err)
	}
	if _, err := f.dev.WriteAt(f.block, start); err != nil {
		return fmt.Errorf("failed to write flash block %d: %w", blk, err)
	}
	return nil
}
