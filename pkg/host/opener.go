package host

import (
	"sync"

	"github.com/skratchdot/open-golang/open"
)

// Opener opens a URL in a new unmanaged browsing context. Used as the
// purchase-flow fallback when the modal path fails terminally.
type Opener interface {
	Open(url string) error
}

// SystemOpener opens URLs using the system default browser.
type SystemOpener struct{}

// Open opens a URL in the system default browser.
func (s *SystemOpener) Open(url string) error {
	return open.Run(url)
}

// MockOpener is a mock implementation for testing.
type MockOpener struct {
	mu         sync.Mutex
	OpenedURLs []string
	Err        error
}

// Open records the URL and returns the configured error.
func (m *MockOpener) Open(url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.OpenedURLs = append(m.OpenedURLs, url)
	return m.Err
}

// GetOpenedURLs returns a copy of the opened URLs in a thread-safe manner.
func (m *MockOpener) GetOpenedURLs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	urls := make([]string, len(m.OpenedURLs))
	copy(urls, m.OpenedURLs)
	return urls
}
