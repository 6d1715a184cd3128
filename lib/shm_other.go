//go:build !linux

package lib

import (
	"errors"
	"time"
)

var errShmUnsupported = errors.New("shared memory frames are only supported on linux")

// ShmSource is unavailable on this platform
type ShmSource struct{}

// OpenShmSource always fails on this platform
func OpenShmSource(name string, width, height int) (*ShmSource, error) {
	return nil, errShmUnsupported
}

func (s *ShmSource) Name() string         { return "" }
func (s *ShmSource) Width() int           { return 0 }
func (s *ShmSource) Height() int          { return 0 }
func (s *ShmSource) Size() int            { return 0 }
func (s *ShmSource) Wait() error          { return errShmUnsupported }
func (s *ShmSource) Lock() error          { return errShmUnsupported }
func (s *ShmSource) Unlock() error        { return nil }
func (s *ShmSource) Data() []byte         { return nil }
func (s *ShmSource) Timestamp() time.Time { return time.Time{} }
func (s *ShmSource) Close() error         { return nil }
