package bridge

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListener_DispatchesRelayFrames(t *testing.T) {
	upgrader := websocket.Upgrader{}

	frames := []string{
		`{"origin":"https://buy.example.com","message":{"type":"frameWidth","width":420}}`,
		`{"origin":"https://buy.example.com","message":"closeModal"}`,
		`{"origin":"https://evil.example.org","message":"closeModal"}`,
		`garbage`,
	}

	var wg sync.WaitGroup
	wg.Add(1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer wg.Done()
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()

		for _, frame := range frames {
			require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(frame)))
		}
	}))
	defer server.Close()

	modal := &fakeModal{}
	b := New(trusted, modal, &fakeRenewer{})
	listener := NewListener(&ListenerConfig{
		Endpoint:             "ws" + strings.TrimPrefix(server.URL, "http"),
		MaxReconnectAttempts: 1,
	}, b)

	require.NoError(t, listener.Connect(context.Background()))
	defer listener.Close()

	wg.Wait()

	// Wait for the read loop to drain the frames.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		modal.mu.Lock()
		done := modal.closed == 1 && modal.width == 420
		modal.mu.Unlock()
		if done {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	modal.mu.Lock()
	defer modal.mu.Unlock()
	assert.Equal(t, 420, modal.width)
	// Only the trusted-origin close signal landed.
	assert.Equal(t, 1, modal.closed)
}

func TestListener_ConnectTwice(t *testing.T) {
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		// Hold the connection open until the client leaves.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer server.Close()

	listener := NewListener(&ListenerConfig{
		Endpoint: "ws" + strings.TrimPrefix(server.URL, "http"),
	}, New(trusted, &fakeModal{}, &fakeRenewer{}))

	require.NoError(t, listener.Connect(context.Background()))
	defer listener.Close()

	// Wait for the dial to land.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && !listener.IsConnected() {
		time.Sleep(10 * time.Millisecond)
	}
	require.True(t, listener.IsConnected())

	assert.Error(t, listener.Connect(context.Background()))
}
