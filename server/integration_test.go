package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// ---------- helpers ----------

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.BcryptCost = bcrypt.MinCost
	cfg.JWTSecret = "test-secret"
	return cfg
}

// startTestServer spins up an httptest.Server with a running Hub backed by a
// temporary database.
func startTestServer(t *testing.T, cfg Config) (*httptest.Server, *Hub) {
	t.Helper()

	db, err := OpenDB(filepath.Join(t.TempDir(), "relay.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	hub := NewHub(cfg, db)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	srv := httptest.NewServer(SetupRoutes(hub))
	t.Cleanup(srv.Close)
	return srv, hub
}

func postJSON(t *testing.T, url string, body, out any) int {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil && resp.StatusCode < 300 {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func createRoom(t *testing.T, srv *httptest.Server, passphrase string) CreateRoomResponse {
	t.Helper()
	var created CreateRoomResponse
	status := postJSON(t, srv.URL+"/rooms", CreateRoomRequest{Passphrase: passphrase}, &created)
	require.Equal(t, http.StatusCreated, status)
	return created
}

func joinRoom(t *testing.T, srv *httptest.Server, code, passphrase string) (JoinRoomResponse, int) {
	t.Helper()
	var joined JoinRoomResponse
	status := postJSON(t, srv.URL+"/rooms/"+code+"/join", JoinRoomRequest{Passphrase: passphrase}, &joined)
	return joined, status
}

func relayURL(srv *httptest.Server, code, token string) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/relay/" + code + "?token=" + token
}

// dialRelay opens the relay socket and waits until the hub has seated it
func dialRelay(t *testing.T, srv *httptest.Server, hub *Hub, code, token string) *websocket.Conn {
	t.Helper()
	_, before := hub.rooms.Counts()
	conn, _, err := websocket.DefaultDialer.Dial(relayURL(srv, code, token), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.Eventually(t, func() bool {
		_, peers := hub.rooms.Counts()
		return peers > before
	}, 2*time.Second, 5*time.Millisecond)
	return conn
}

func readText(t *testing.T, conn *websocket.Conn) string {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	msgType, raw, err := conn.ReadMessage()
	require.NoError(t, err)
	require.Equal(t, websocket.TextMessage, msgType)
	return string(raw)
}

func writeText(t *testing.T, conn *websocket.Conn, frame string) {
	t.Helper()
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(frame)))
}

// pairedRoom creates a room, joins it and connects both peers
func pairedRoom(t *testing.T, srv *httptest.Server, hub *Hub) (code string, host, guest *websocket.Conn) {
	t.Helper()
	created := createRoom(t, srv, "")
	joined, status := joinRoom(t, srv, created.Code, "")
	require.Equal(t, http.StatusOK, status)
	host = dialRelay(t, srv, hub, created.Code, created.Token)
	guest = dialRelay(t, srv, hub, created.Code, joined.Token)
	return created.Code, host, guest
}

// ---------- rooms API ----------

func TestCreateRoomReturnsCodeAndToken(t *testing.T) {
	srv, _ := startTestServer(t, testConfig())

	created := createRoom(t, srv, "")
	assert.True(t, ValidRoomCode(created.Code), "code %q", created.Code)
	assert.NotEmpty(t, created.Token)

	resp, err := http.Get(srv.URL + "/rooms")
	require.NoError(t, err)
	defer resp.Body.Close()
	var rooms []RoomInfo
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rooms))
	require.Len(t, rooms, 1)
	assert.Equal(t, created.Code, rooms[0].Code)
	assert.Zero(t, rooms[0].Members)
	assert.False(t, rooms[0].Locked)
}

func TestJoinErrors(t *testing.T) {
	srv, _ := startTestServer(t, testConfig())

	_, status := joinRoom(t, srv, "00000000", "")
	assert.Equal(t, http.StatusNotFound, status)
	_, status = joinRoom(t, srv, "nope", "")
	assert.Equal(t, http.StatusNotFound, status)

	locked := createRoom(t, srv, "hunter2")
	_, status = joinRoom(t, srv, locked.Code, "wrong")
	assert.Equal(t, http.StatusForbidden, status)
	joined, status := joinRoom(t, srv, locked.Code, "hunter2")
	assert.Equal(t, http.StatusOK, status)
	assert.NotEmpty(t, joined.Token)

	_, status = joinRoom(t, srv, locked.Code, "hunter2")
	assert.Equal(t, http.StatusConflict, status)
}

func TestCreateRejectsBadBody(t *testing.T) {
	srv, _ := startTestServer(t, testConfig())
	resp, err := http.Post(srv.URL+"/rooms", "application/json", strings.NewReader("{"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = http.Post(srv.URL+"/rooms", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestRoomLimit(t *testing.T) {
	cfg := testConfig()
	cfg.MaxRooms = 1
	srv, _ := startTestServer(t, cfg)
	createRoom(t, srv, "")
	status := postJSON(t, srv.URL+"/rooms", CreateRoomRequest{}, nil)
	assert.Equal(t, http.StatusServiceUnavailable, status)
}

func TestQRCode(t *testing.T) {
	srv, _ := startTestServer(t, testConfig())
	created := createRoom(t, srv, "")

	resp, err := http.Get(srv.URL + "/rooms/" + created.Code + "/qr")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	png, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG")))

	missing, err := http.Get(srv.URL + "/rooms/00000000/qr")
	require.NoError(t, err)
	missing.Body.Close()
	assert.Equal(t, http.StatusNotFound, missing.StatusCode)
}

// ---------- relay ----------

func TestRelayForwardsWithoutEcho(t *testing.T) {
	srv, hub := startTestServer(t, testConfig())
	_, host, guest := pairedRoom(t, srv, hub)

	writeText(t, guest, "00")
	assert.Equal(t, "00", readText(t, host))

	writeText(t, host, "01|abc\n02|0|1|0|0.5")
	writeText(t, guest, "04|1|2")
	assert.Equal(t, "01|abc\n02|0|1|0|0.5", readText(t, guest))
	// the host's own frame never comes back
	assert.Equal(t, "04|1|2", readText(t, host))
}

func TestRelayRefusesBadTokens(t *testing.T) {
	srv, _ := startTestServer(t, testConfig())
	a := createRoom(t, srv, "")
	b := createRoom(t, srv, "")

	for _, url := range []string{
		relayURL(srv, a.Code, "garbage"),
		relayURL(srv, b.Code, a.Token),
		relayURL(srv, a.Code, ""),
	} {
		_, resp, err := websocket.DefaultDialer.Dial(url, nil)
		require.ErrorIs(t, err, websocket.ErrBadHandshake)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	}
}

func TestSeatConnectsOnce(t *testing.T) {
	srv, hub := startTestServer(t, testConfig())
	created := createRoom(t, srv, "")
	dialRelay(t, srv, hub, created.Code, created.Token)

	second, _, err := websocket.DefaultDialer.Dial(relayURL(srv, created.Code, created.Token), nil)
	require.NoError(t, err)
	defer second.Close()
	second.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err = second.ReadMessage()
	var closeErr *websocket.CloseError
	require.True(t, errors.As(err, &closeErr), "got %v", err)
	assert.Equal(t, websocket.ClosePolicyViolation, closeErr.Code)
}

func TestRoomClosesWithLastPeer(t *testing.T) {
	srv, hub := startTestServer(t, testConfig())
	code, host, guest := pairedRoom(t, srv, hub)

	writeText(t, host, "03")
	assert.Equal(t, "03", readText(t, guest))
	writeText(t, guest, "0123")
	assert.Equal(t, "0123", readText(t, host))

	host.Close()
	require.Eventually(t, func() bool {
		_, peers := hub.rooms.Counts()
		return peers == 1
	}, 2*time.Second, 5*time.Millisecond)
	assert.True(t, hub.rooms.Exists(code))

	guest.Close()
	want := TrafficTotals{Rooms: 1, Frames: 2, Bytes: 6}
	require.Eventually(t, func() bool {
		totals, err := hub.db.Totals()
		return err == nil && totals == want
	}, 2*time.Second, 5*time.Millisecond)
	assert.False(t, hub.rooms.Exists(code))
}

func TestRateLimitDisconnects(t *testing.T) {
	cfg := testConfig()
	cfg.MaxMessagesPerSec = 3
	srv, hub := startTestServer(t, cfg)
	_, host, _ := pairedRoom(t, srv, hub)

	for i := 0; i < 10; i++ {
		if host.WriteMessage(websocket.TextMessage, []byte("06|1")) != nil {
			break
		}
	}
	host.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := host.ReadMessage()
	require.Error(t, err)
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) {
		assert.False(t, netErr.Timeout(), "connection was not closed")
	}
}

func TestStats(t *testing.T) {
	srv, hub := startTestServer(t, testConfig())
	pairedRoom(t, srv, hub)

	require.Eventually(t, func() bool {
		peers, _ := hub.analytics.Live()
		return peers == 2
	}, 2*time.Second, 5*time.Millisecond)

	resp, err := http.Get(srv.URL + "/stats")
	require.NoError(t, err)
	defer resp.Body.Close()
	var stats StatsResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stats))
	assert.Equal(t, int64(1), stats.Rooms)
	assert.Equal(t, 1, stats.OpenRooms)
	assert.Equal(t, 2, stats.Peers)
}
