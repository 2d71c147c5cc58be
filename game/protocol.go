package game

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// MsgType is the two-digit code that opens every line of a frame
type MsgType int

const (
	MsgJoin MsgType = iota
	MsgSnapshot
	MsgGameState
	MsgEndTurn
	MsgSyncCharacter
	MsgKill
	MsgSyncMissile
	MsgRemoveMissile
	MsgSyncGrenade
	MsgRemoveGrenade
	MsgBlast
	MsgFireBazooka
	MsgFireShotgun
	MsgFireUzi
	MsgFireAirStrike
	MsgPlaceDynamite
	MsgFireGrenade
	MsgFireHolyGrenade
	MsgFireMinigun
	MsgFireHoming
	MsgFireClusterBomb
	MsgFireNyanStrike
	MsgSwingBat
	MsgFireCharge
	MsgCameraFree
	MsgCameraLock
	MsgFirework
	MsgGameOver
	msgTypeCount
)

var msgNames = [...]string{
	MsgJoin:            "join",
	MsgSnapshot:        "snapshot",
	MsgGameState:       "game_state",
	MsgEndTurn:         "end_turn",
	MsgSyncCharacter:   "sync_character",
	MsgKill:            "kill",
	MsgSyncMissile:     "sync_missile",
	MsgRemoveMissile:   "remove_missile",
	MsgSyncGrenade:     "sync_grenade",
	MsgRemoveGrenade:   "remove_grenade",
	MsgBlast:           "blast",
	MsgFireBazooka:     "fire_bazooka",
	MsgFireShotgun:     "fire_shotgun",
	MsgFireUzi:         "fire_uzi",
	MsgFireAirStrike:   "fire_air_strike",
	MsgPlaceDynamite:   "place_dynamite",
	MsgFireGrenade:     "fire_grenade",
	MsgFireHolyGrenade: "fire_holy_grenade",
	MsgFireMinigun:     "fire_minigun",
	MsgFireHoming:      "fire_homing",
	MsgFireClusterBomb: "fire_cluster_bomb",
	MsgFireNyanStrike:  "fire_nyan_strike",
	MsgSwingBat:        "swing_bat",
	MsgFireCharge:      "fire_charge",
	MsgCameraFree:      "camera_free",
	MsgCameraLock:      "camera_lock",
	MsgFirework:        "firework",
	MsgGameOver:        "game_over",
}

func (t MsgType) String() string {
	if t >= 0 && t < msgTypeCount {
		return msgNames[t]
	}
	return "unknown"
}

// Code is the two-digit wire code
func (t MsgType) Code() string {
	return fmt.Sprintf("%02d", int(t))
}

var (
	ErrMalformedFrame = errors.New("malformed frame")
	ErrUnknownMessage = errors.New("unknown message type")
)

// Message is one line of a frame: TYPE|FIELD|FIELD...
type Message struct {
	Type   MsgType
	Fields []string
}

// Encode renders the message as a single line
func (m Message) Encode() string {
	if len(m.Fields) == 0 {
		return m.Type.Code()
	}
	return m.Type.Code() + "|" + strings.Join(m.Fields, "|")
}

// ParseMessage decodes one line
func ParseMessage(line string) (Message, error) {
	if len(line) < 2 {
		return Message{}, fmt.Errorf("%w: %q", ErrMalformedFrame, line)
	}
	code, err := strconv.Atoi(line[:2])
	if err != nil {
		return Message{}, fmt.Errorf("%w: bad code %q", ErrMalformedFrame, line[:2])
	}
	t := MsgType(code)
	if t < 0 || t >= msgTypeCount {
		return Message{}, fmt.Errorf("%w: %d", ErrUnknownMessage, code)
	}
	m := Message{Type: t}
	if len(line) > 3 {
		if line[2] != '|' {
			return Message{}, fmt.Errorf("%w: missing separator in %q", ErrMalformedFrame, line)
		}
		m.Fields = strings.Split(line[3:], "|")
	}
	return m, nil
}

// ParseFrame splits a frame into its lines and decodes each one. Lines
// that fail to decode are returned as errors alongside the good ones.
func ParseFrame(frame string) ([]Message, []error) {
	var msgs []Message
	var errs []error
	for _, line := range strings.Split(frame, "\n") {
		if line == "" {
			continue
		}
		m, err := ParseMessage(line)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		msgs = append(msgs, m)
	}
	return msgs, errs
}

// fields reads typed values off a message in order and remembers the
// first failure
type fields struct {
	m   Message
	i   int
	err error
}

func (m Message) reader() *fields {
	return &fields{m: m}
}

func (f *fields) next() string {
	if f.err != nil {
		return ""
	}
	if f.i >= len(f.m.Fields) {
		f.err = fmt.Errorf("%w: %s wants more than %d fields", ErrMalformedFrame, f.m.Type, len(f.m.Fields))
		return ""
	}
	v := f.m.Fields[f.i]
	f.i++
	return v
}

func (f *fields) float() float64 {
	s := f.next()
	if f.err != nil {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		f.err = fmt.Errorf("%w: %s field %d: %v", ErrMalformedFrame, f.m.Type, f.i, err)
	}
	return v
}

func (f *fields) int() int {
	s := f.next()
	if f.err != nil {
		return 0
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		f.err = fmt.Errorf("%w: %s field %d: %v", ErrMalformedFrame, f.m.Type, f.i, err)
	}
	return v
}

func (f *fields) uint32() uint32 {
	s := f.next()
	if f.err != nil {
		return 0
	}
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		f.err = fmt.Errorf("%w: %s field %d: %v", ErrMalformedFrame, f.m.Type, f.i, err)
	}
	return uint32(v)
}

func (f *fields) bool() bool {
	return f.int() != 0
}

func (f *fields) vec() Vec {
	return V(f.float(), f.float())
}

func (f *fields) text() string {
	return f.next()
}

func fmtFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func fmtInt(v int) string {
	return strconv.Itoa(v)
}

func fmtUint(v uint32) string {
	return strconv.FormatUint(uint64(v), 10)
}

func fmtBool(v bool) string {
	if v {
		return "1"
	}
	return "0"
}
