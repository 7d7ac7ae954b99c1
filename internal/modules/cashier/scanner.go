package cashier

import "sync"

// Scanner is the capture device a terminal owns. Stop pauses frame delivery and Start
// resumes it without acquiring the device again; Release tears the device down.
type Scanner interface {
	Acquire() error
	Start() error
	Stop()
	Running() bool
	Release()
}

// LocalScanner is a scanner whose frames arrive from outside the process, such as a mobile
// client posting decoded payloads. It only tracks the device lifecycle.
type LocalScanner struct {
	mu       sync.Mutex
	acquired bool
	running  bool
}

func NewLocalScanner() *LocalScanner { return &LocalScanner{} }

func (s *LocalScanner) Acquire() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.acquired = true
	return nil
}

func (s *LocalScanner) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.acquired {
		return ErrCameraUnavailable
	}
	s.running = true
	return nil
}

func (s *LocalScanner) Stop() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}

func (s *LocalScanner) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *LocalScanner) Release() {
	s.mu.Lock()
	s.running = false
	s.acquired = false
	s.mu.Unlock()
}
