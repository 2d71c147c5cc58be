package main

import "time"

// CreateRoomRequest is the body of POST /rooms
type CreateRoomRequest struct {
	Passphrase string `json:"passphrase,omitempty"`
}

// CreateRoomResponse carries the new room's code and the creator's token
type CreateRoomResponse struct {
	Code  string `json:"code"`
	Token string `json:"token"`
}

// JoinRoomRequest is the body of POST /rooms/{code}/join
type JoinRoomRequest struct {
	Passphrase string `json:"passphrase,omitempty"`
}

// JoinRoomResponse carries the joiner's token
type JoinRoomResponse struct {
	Token string `json:"token"`
}

// RoomInfo is used in the room list
type RoomInfo struct {
	Code    string    `json:"code"`
	Members int       `json:"members"`
	Locked  bool      `json:"locked"`
	Created time.Time `json:"created"`
}

// StatsResponse is the body of GET /stats
type StatsResponse struct {
	TrafficTotals
	OpenRooms int            `json:"open_rooms"`
	Peers     int            `json:"peers"`
	Events    map[string]int `json:"events,omitempty"`
}

// ErrorResponse is the body of every non-2xx answer
type ErrorResponse struct {
	Error string `json:"error"`
}
