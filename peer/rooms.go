package peer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// RelayError is a non-2xx answer from the rooms API
type RelayError struct {
	Status  int
	Message string
}

func (e *RelayError) Error() string {
	return fmt.Sprintf("relay: %d %s", e.Status, e.Message)
}

// Rooms talks to the relay's rooms API
type Rooms struct {
	BaseURL string
	HTTP    *http.Client
}

// NewRooms returns a client for the relay at baseURL (http or https)
func NewRooms(baseURL string) *Rooms {
	return &Rooms{BaseURL: strings.TrimSuffix(baseURL, "/"), HTTP: http.DefaultClient}
}

type passphraseBody struct {
	Passphrase string `json:"passphrase,omitempty"`
}

// Create opens a room. It returns the room code and the creator's token.
func (r *Rooms) Create(ctx context.Context, passphrase string) (code, token string, err error) {
	var resp struct {
		Code  string `json:"code"`
		Token string `json:"token"`
	}
	if err := r.post(ctx, "/rooms", passphraseBody{passphrase}, &resp); err != nil {
		return "", "", err
	}
	return resp.Code, resp.Token, nil
}

// Join takes the next free seat of a room
func (r *Rooms) Join(ctx context.Context, code, passphrase string) (string, error) {
	var resp struct {
		Token string `json:"token"`
	}
	if err := r.post(ctx, "/rooms/"+url.PathEscape(code)+"/join", passphraseBody{passphrase}, &resp); err != nil {
		return "", err
	}
	return resp.Token, nil
}

// SocketURL is the websocket address of a room seat
func (r *Rooms) SocketURL(code, token string) string {
	base := r.BaseURL
	switch {
	case strings.HasPrefix(base, "https://"):
		base = "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}
	return base + "/relay/" + url.PathEscape(code) + "?token=" + url.QueryEscape(token)
}

func (r *Rooms) post(ctx context.Context, path string, body, out any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.BaseURL+path, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := r.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var e struct {
			Error string `json:"error"`
		}
		json.NewDecoder(resp.Body).Decode(&e)
		return &RelayError{Status: resp.StatusCode, Message: e.Error}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s response: %w", path, err)
	}
	return nil
}
