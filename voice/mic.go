package voice

import (
	"io"
	"sync"
	"time"
)

// MicOpener opens the microphone stream.
type MicOpener func() (io.ReadCloser, error)

// MicLease holds one microphone stream per session. The stream is opened on
// first use, reused while the user keeps talking and closed after Idle
// without use, on page hide, or on Close.
type MicLease struct {
	open MicOpener
	idle time.Duration

	mu     sync.Mutex
	stream io.ReadCloser
	timer  *time.Timer
	closed bool
}

func NewMicLease(open MicOpener, idle time.Duration) *MicLease {
	if idle <= 0 {
		idle = 45 * time.Second
	}
	return &MicLease{open: open, idle: idle}
}

// Acquire returns the live stream, opening it if needed, and restarts the
// idle countdown.
func (m *MicLease) Acquire() (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, io.ErrClosedPipe
	}
	if m.stream == nil {
		s, err := m.open()
		if err != nil {
			return nil, err
		}
		m.stream = s
	}
	if m.timer != nil {
		m.timer.Stop()
	}
	stream := m.stream
	m.timer = time.AfterFunc(m.idle, func() { m.releaseIf(stream) })
	return stream, nil
}

func (m *MicLease) releaseIf(s io.ReadCloser) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stream == s {
		m.releaseLocked()
	}
}

// Release closes the stream now, e.g. when the page is hidden. The next
// Acquire opens a new one.
func (m *MicLease) Release() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.releaseLocked()
}

func (m *MicLease) releaseLocked() {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	if m.stream != nil {
		_ = m.stream.Close()
		m.stream = nil
	}
}

// Active reports whether a stream is currently open.
func (m *MicLease) Active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stream != nil
}

func (m *MicLease) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.releaseLocked()
	m.closed = true
}
