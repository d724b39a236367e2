package host

import "sync"

// MockDialog records show/destroy calls.
type MockDialog struct {
	mu        sync.Mutex
	Shown     int
	Destroyed int
}

// Show records a show call.
func (m *MockDialog) Show() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Shown++
}

// Destroy records a destroy call.
func (m *MockDialog) Destroy() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Destroyed++
}

// MockFrame records frame mutations.
type MockFrame struct {
	mu       sync.Mutex
	Src      string
	Width    int
	Height   int
	Messages []any
	PostErr  error
}

// SetSrc records the frame URL.
func (m *MockFrame) SetSrc(url string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Src = url
}

// SetWidth records the frame width.
func (m *MockFrame) SetWidth(px int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Width = px
}

// SetHeight records the frame height.
func (m *MockFrame) SetHeight(px int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Height = px
}

// Post records an outbound message.
func (m *MockFrame) Post(message any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Messages = append(m.Messages, message)
	return m.PostErr
}

// PostedMessages returns a copy of the recorded messages.
func (m *MockFrame) PostedMessages() []any {
	m.mu.Lock()
	defer m.mu.Unlock()
	msgs := make([]any, len(m.Messages))
	copy(msgs, m.Messages)
	return msgs
}

// MockSurface records container mutations and hands out a single MockFrame.
type MockSurface struct {
	mu           sync.Mutex
	ShellOpened  int
	CloseShown   int
	Cleared      int
	Frame        *MockFrame
	ErrorTitle   string
	ErrorBody    string
	ErrorRenders int
}

// OpenShell records a shell render.
func (m *MockSurface) OpenShell() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ShellOpened++
}

// RevealClose records the close button reveal.
func (m *MockSurface) RevealClose() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CloseShown++
}

// MountFrame records the mount and returns the surface's frame.
func (m *MockSurface) MountFrame(url string) Frame {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Frame == nil {
		m.Frame = &MockFrame{}
	}
	m.Frame.SetSrc(url)
	return m.Frame
}

// RenderError records the error panel content.
func (m *MockSurface) RenderError(title, body string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ErrorTitle = title
	m.ErrorBody = body
	m.ErrorRenders++
}

// Clear records a container clear.
func (m *MockSurface) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Cleared++
}

// MockPage records scroll locking.
type MockPage struct {
	mu       sync.Mutex
	Locked   int
	Unlocked int
}

// LockScroll records a scroll lock.
func (m *MockPage) LockScroll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Locked++
}

// UnlockScroll records a scroll unlock.
func (m *MockPage) UnlockScroll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Unlocked++
}
