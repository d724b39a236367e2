package bridge

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeModal struct {
	mu      sync.Mutex
	width   int
	height  int
	posted  []any
	closed  int
	postErr error
}

func (f *fakeModal) SetFrameWidth(px int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.width = px
}

func (f *fakeModal) SetFrameHeight(px int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.height = px
}

func (f *fakeModal) PostToFrame(message any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.posted = append(f.posted, message)
	return f.postErr
}

func (f *fakeModal) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed++
}

type fakeRenewer struct {
	access  string
	refresh string
	calls   int
	err     error
}

func (f *fakeRenewer) ApplyRenewal(ctx context.Context, accessToken, refreshToken string) error {
	f.calls++
	f.access = accessToken
	f.refresh = refreshToken
	return f.err
}

const trusted = "buy.example.com"

func newBridge() (*Bridge, *fakeModal, *fakeRenewer) {
	modal := &fakeModal{}
	renewer := &fakeRenewer{}
	return New(trusted, modal, renewer), modal, renewer
}

func TestBridge_FrameWidthTriggersHeightRequest(t *testing.T) {
	b, modal, _ := newBridge()

	b.Handle(context.Background(), Message{
		Origin: "https://buy.example.com",
		Body:   []byte(`{"type":"frameWidth","width":420}`),
	})

	assert.Equal(t, 420, modal.width)
	require.Len(t, modal.posted, 1)
	assert.Equal(t, HeightRequest{Type: TypeGetFrameHeight}, modal.posted[0])
}

func TestBridge_FrameHeight(t *testing.T) {
	b, modal, _ := newBridge()

	b.Handle(context.Background(), Message{
		Origin: "https://buy.example.com",
		Body:   []byte(`{"type":"frameHeight","height":780}`),
	})

	assert.Equal(t, 780, modal.height)
	assert.Empty(t, modal.posted)
}

func TestBridge_CloseSignal(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "bare string", body: `closeModal`},
		{name: "json quoted", body: `"closeModal"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, modal, _ := newBridge()
			b.Handle(context.Background(), Message{
				Origin: "https://buy.example.com",
				Body:   []byte(tt.body),
			})
			assert.Equal(t, 1, modal.closed)
		})
	}
}

func TestBridge_TokenRefresh(t *testing.T) {
	b, _, renewer := newBridge()

	b.Handle(context.Background(), Message{
		Origin: "https://buy.example.com",
		Body:   []byte(`{"type":"tokenRefresh","data":{"accessToken":"a2","refreshToken":"r2"}}`),
	})

	require.Equal(t, 1, renewer.calls)
	assert.Equal(t, "a2", renewer.access)
	assert.Equal(t, "r2", renewer.refresh)
}

func TestBridge_UntrustedOriginIsDropped(t *testing.T) {
	b, modal, renewer := newBridge()

	bodies := []string{
		`closeModal`,
		`{"type":"frameWidth","width":420}`,
		`{"type":"frameHeight","height":780}`,
		`{"type":"tokenRefresh","data":{"accessToken":"a2","refreshToken":"r2"}}`,
	}

	for _, body := range bodies {
		b.Handle(context.Background(), Message{
			Origin: "https://evil.example.org",
			Body:   []byte(body),
		})
	}

	assert.Equal(t, 0, modal.closed)
	assert.Equal(t, 0, modal.width)
	assert.Equal(t, 0, modal.height)
	assert.Equal(t, 0, renewer.calls)
}

func TestBridge_UnrecognizedShapesAreIgnored(t *testing.T) {
	b, modal, renewer := newBridge()

	bodies := []string{
		`not-json`,
		`{"type":"unknown"}`,
		`{}`,
		`[1,2,3]`,
		``,
	}

	for _, body := range bodies {
		b.Handle(context.Background(), Message{
			Origin: "https://buy.example.com",
			Body:   []byte(body),
		})
	}

	assert.Equal(t, 0, modal.closed)
	assert.Equal(t, 0, modal.width)
	assert.Equal(t, 0, renewer.calls)
	assert.Empty(t, modal.posted)
}

func TestBridge_OriginSubstringMatch(t *testing.T) {
	b, modal, _ := newBridge()

	// Subdomain of the trusted host still matches the substring check.
	b.Handle(context.Background(), Message{
		Origin: "https://checkout.buy.example.com",
		Body:   []byte(`closeModal`),
	})

	assert.Equal(t, 1, modal.closed)
}
