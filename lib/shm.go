//go:build linux

package lib

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sys/unix"
)

// ShmDir is where bare shared memory names are resolved
const ShmDir = "/dev/shm"

// ShmSource attaches to a shared memory file holding one BGRA frame.
//
// The producer takes an exclusive flock on the file while it writes a frame
// and writes each frame with a single write(2), which is what wakes Wait.
// The capture time is the file's modification time.
type ShmSource struct {
	name    string
	path    string
	width   int
	height  int
	file    *os.File
	data    []byte
	watcher *fsnotify.Watcher
	stamp   time.Time
}

// OpenShmSource maps the shared memory area called name. Names without a
// directory are looked up under ShmDir.
func OpenShmSource(name string, width, height int) (*ShmSource, error) {
	path := name
	if filepath.Base(name) == name {
		path = filepath.Join(ShmDir, name)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open shared memory: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat shared memory: %w", err)
	}
	size := width * height * BytesPerPixel
	if size <= 0 || info.Size() < int64(size) {
		f.Close()
		return nil, fmt.Errorf("%s is %d bytes, need %d: %w", path, info.Size(), size, ErrShortFrame)
	}

	data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("mmap %s: %w", path, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		unix.Munmap(data)
		f.Close()
		return nil, fmt.Errorf("watch %s: %w", path, err)
	}
	if err := watcher.Add(path); err != nil {
		watcher.Close()
		unix.Munmap(data)
		f.Close()
		return nil, fmt.Errorf("watch %s: %w", path, err)
	}

	return &ShmSource{
		name:    name,
		path:    path,
		width:   width,
		height:  height,
		file:    f,
		data:    data,
		watcher: watcher,
	}, nil
}

func (s *ShmSource) Name() string { return s.name }
func (s *ShmSource) Width() int   { return s.width }
func (s *ShmSource) Height() int  { return s.height }

// Size returns the mapped size in bytes
func (s *ShmSource) Size() int { return len(s.data) }

// Wait blocks until the producer writes the next frame
func (s *ShmSource) Wait() error {
	for {
		select {
		case ev, ok := <-s.watcher.Events:
			if !ok {
				return ErrSourceClosed
			}
			if ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
				return fmt.Errorf("%s: %w", s.path, ErrSourceClosed)
			}
			if ev.Has(fsnotify.Write) {
				return nil
			}
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return ErrSourceClosed
			}
			return fmt.Errorf("watch %s: %w", s.path, err)
		}
	}
}

// Lock takes a shared flock, waiting for a writer to finish
func (s *ShmSource) Lock() error {
	if err := unix.Flock(int(s.file.Fd()), unix.LOCK_SH); err != nil {
		return fmt.Errorf("flock %s: %w", s.path, err)
	}
	info, err := s.file.Stat()
	if err != nil {
		unix.Flock(int(s.file.Fd()), unix.LOCK_UN)
		return fmt.Errorf("stat %s: %w", s.path, err)
	}
	s.stamp = info.ModTime()
	return nil
}

func (s *ShmSource) Unlock() error {
	return unix.Flock(int(s.file.Fd()), unix.LOCK_UN)
}

func (s *ShmSource) Data() []byte         { return s.data }
func (s *ShmSource) Timestamp() time.Time { return s.stamp }

// Close detaches from the shared memory
func (s *ShmSource) Close() error {
	s.watcher.Close()
	if err := unix.Munmap(s.data); err != nil {
		s.file.Close()
		return err
	}
	return s.file.Close()
}
