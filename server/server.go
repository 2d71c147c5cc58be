package main

import (
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"github.com/skip2/go-qrcode"
)

const (
	maxBodySize = 1024
	qrSize      = 256
	statsDays   = 30
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true // headless peers send no Origin
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return u.Host == r.Host
	},
}

func extractIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("writing response")
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ErrRoomNotFound):
		status = http.StatusNotFound
	case errors.Is(err, ErrBadPassphrase), errors.Is(err, ErrInvalidToken):
		status = http.StatusForbidden
	case errors.Is(err, ErrRoomFull), errors.Is(err, ErrSeatTaken):
		status = http.StatusConflict
	case errors.Is(err, ErrTooManyRooms):
		status = http.StatusServiceUnavailable
	case errors.Is(err, errBadRequest):
		status = http.StatusBadRequest
	}
	writeJSON(w, status, ErrorResponse{Error: err.Error()})
}

var errBadRequest = errors.New("bad request")

// decodeBody reads an optional JSON body into v
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return errors.Join(errBadRequest, err)
	}
	return nil
}

func roomCode(r *http.Request) (string, error) {
	code := r.PathValue("code")
	if !ValidRoomCode(code) {
		return "", ErrRoomNotFound
	}
	return code, nil
}

// SetupRoutes configures HTTP routes
func SetupRoutes(hub *Hub) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /rooms", func(w http.ResponseWriter, r *http.Request) {
		var req CreateRoomRequest
		if err := decodeBody(w, r, &req); err != nil {
			writeError(w, err)
			return
		}
		hash, err := hub.auth.HashPassphrase(req.Passphrase)
		if err != nil {
			writeError(w, errors.Join(errBadRequest, err))
			return
		}
		room, err := hub.rooms.Create(hash)
		if err != nil {
			writeError(w, err)
			return
		}
		token, err := hub.auth.IssueToken(room.Code, 0)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, CreateRoomResponse{Code: room.Code, Token: token})
	})

	mux.HandleFunc("POST /rooms/{code}/join", func(w http.ResponseWriter, r *http.Request) {
		code, err := roomCode(r)
		if err != nil {
			writeError(w, err)
			return
		}
		var req JoinRoomRequest
		if err := decodeBody(w, r, &req); err != nil {
			writeError(w, err)
			return
		}
		seat, err := hub.rooms.Reserve(code, func(hash []byte) error {
			return hub.auth.CheckPassphrase(hash, req.Passphrase)
		})
		if err != nil {
			writeError(w, err)
			return
		}
		token, err := hub.auth.IssueToken(code, seat)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, JoinRoomResponse{Token: token})
	})

	mux.HandleFunc("GET /rooms/{code}/qr", func(w http.ResponseWriter, r *http.Request) {
		code, err := roomCode(r)
		if err == nil && !hub.rooms.Exists(code) {
			err = ErrRoomNotFound
		}
		if err != nil {
			writeError(w, err)
			return
		}
		base := strings.TrimSuffix(hub.cfg.PublicURL, "/")
		if base == "" {
			base = "ws://" + r.Host
		}
		png, err := qrcode.Encode(base+"/relay/"+code, qrcode.Medium, qrSize)
		if err != nil {
			writeError(w, err)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write(png)
	})

	mux.HandleFunc("GET /rooms", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, hub.rooms.List())
	})

	mux.HandleFunc("GET /stats", func(w http.ResponseWriter, r *http.Request) {
		var resp StatsResponse
		resp.Peers, resp.OpenRooms = hub.analytics.Live()
		if hub.db != nil {
			totals, err := hub.db.Totals()
			if err != nil {
				writeError(w, err)
				return
			}
			resp.TrafficTotals = totals
			if resp.Events, err = hub.analytics.EventCounts(statsDays); err != nil {
				writeError(w, err)
				return
			}
		}
		writeJSON(w, http.StatusOK, resp)
	})

	mux.HandleFunc("GET /relay/{code}", func(w http.ResponseWriter, r *http.Request) {
		code, err := roomCode(r)
		if err != nil {
			writeError(w, err)
			return
		}
		claims, err := hub.auth.ValidateToken(r.URL.Query().Get("token"), code)
		if err == nil && !hub.rooms.Exists(code) {
			err = ErrRoomNotFound
		}
		if err != nil {
			writeError(w, err)
			return
		}
		ip := extractIP(r)
		if !hub.CanAccept(ip) {
			http.Error(w, "too many connections", http.StatusServiceUnavailable)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warn().Err(err).Str("room", code).Msg("upgrade failed")
			return
		}
		client := NewClient(hub, conn, ip)
		if err := hub.rooms.Attach(code, claims.Seat, client); err != nil {
			log.Info().Err(err).Str("room", code).Int("seat", claims.Seat).Msg("refusing peer")
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.ClosePolicyViolation, err.Error()),
				time.Now().Add(writeWait))
			conn.Close()
			return
		}

		hub.TrackConnect(ip)
		hub.Register(client)

		go client.WritePump()
		go client.ReadPump()
	})

	return mux
}
