package device

import (
	"image"
	"sync"
)

// MemorySink keeps flushed frames in memory. It backs headless runs and tests.
type MemorySink struct {
	lock    sync.Mutex
	frames  []image.Image
	halted  bool
	closed  bool
	showErr error
}

func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (s *MemorySink) Show(img image.Image) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.showErr != nil {
		return s.showErr
	}
	s.halted = false
	s.frames = append(s.frames, img)
	return nil
}

func (s *MemorySink) Halt() error {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.halted = true
	return nil
}

func (s *MemorySink) Close() error {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.closed = true
	return nil
}

// FailShow makes the following Show calls return err, nil restores them.
func (s *MemorySink) FailShow(err error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.showErr = err
}

func (s *MemorySink) FrameCount() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return len(s.frames)
}

func (s *MemorySink) LastFrame() image.Image {
	s.lock.Lock()
	defer s.lock.Unlock()
	if len(s.frames) == 0 {
		return nil
	}
	return s.frames[len(s.frames)-1]
}

func (s *MemorySink) Halted() bool {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.halted
}

func (s *MemorySink) Closed() bool {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.closed
}
