package main

import (
	"context"
	"sync"
	"time"
)

const reapInterval = 30 * time.Second

type membership struct {
	client *Client
	join   bool
}

// Hub owns the connected clients, the room registry and the connection limits
type Hub struct {
	cfg        Config
	clients    map[*Client]bool
	membership chan membership // joins and leaves, in order
	rooms      *RoomManager

	connMu     sync.Mutex
	ipConns    map[string]int
	totalConns int

	db        *DB
	auth      *Auth
	analytics *Analytics
}

// NewHub creates a Hub. db may be nil for a relay that keeps no records.
func NewHub(cfg Config, db *DB) *Hub {
	analytics := NewAnalytics(db)
	return &Hub{
		cfg:        cfg,
		clients:    make(map[*Client]bool),
		membership: make(chan membership, 128),
		rooms:      NewRoomManager(cfg, db, analytics),
		ipConns:    make(map[string]int),
		db:         db,
		auth:       NewAuth(cfg, db),
		analytics:  analytics,
	}
}

func (h *Hub) CanAccept(ip string) bool {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	if h.totalConns >= h.cfg.MaxConns {
		return false
	}
	return h.ipConns[ip] < h.cfg.MaxConnsPerIP
}

func (h *Hub) TrackConnect(ip string) {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	h.ipConns[ip]++
	h.totalConns++
}

func (h *Hub) TrackDisconnect(ip string) {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	h.ipConns[ip]--
	if h.ipConns[ip] <= 0 {
		delete(h.ipConns, ip)
	}
	h.totalConns--
}

// TotalConns returns the number of open websocket connections
func (h *Hub) TotalConns() int {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	return h.totalConns
}

// Register hands a connected client to the hub
func (h *Hub) Register(c *Client) {
	h.membership <- membership{client: c, join: true}
}

// Unregister tells the hub a client has gone
func (h *Hub) Unregister(c *Client) {
	h.membership <- membership{client: c}
}

// Run serves registrations until ctx is done, then closes every client
func (h *Hub) Run(ctx context.Context) {
	ticker := time.NewTicker(reapInterval)
	defer ticker.Stop()

	for {
		select {
		case m := <-h.membership:
			if m.join {
				h.clients[m.client] = true
			} else if _, ok := h.clients[m.client]; ok {
				delete(h.clients, m.client)
				h.rooms.Leave(m.client)
				close(m.client.send)
			}
		case <-ticker.C:
			h.rooms.Reap(h.cfg.RoomIdleTimeout)
		case <-ctx.Done():
			for client := range h.clients {
				delete(h.clients, client)
				h.rooms.Leave(client)
				close(client.send)
			}
			h.analytics.Stop()
			return
		}
		rooms, peers := h.rooms.Counts()
		h.analytics.SetLive(peers, rooms)
	}
}
