package game

// EventKind names a discrete sound or visual cue for the presentation layer
type EventKind int

const (
	EventExplosion EventKind = iota
	EventJump
	EventShoot
	EventGunshot
	EventBounce
	EventSplash
	EventSmoke
	EventTracer
	EventMuzzleFlash
	EventCaption
	EventTargetLock
	EventTargetClear
	EventCameraShake
)

var eventNames = [...]string{
	EventExplosion:   "explosion",
	EventJump:        "jump",
	EventShoot:       "shoot",
	EventGunshot:     "gunshot",
	EventBounce:      "bounce",
	EventSplash:      "splash",
	EventSmoke:       "smoke",
	EventTracer:      "tracer",
	EventMuzzleFlash: "muzzle_flash",
	EventCaption:     "caption",
	EventTargetLock:  "target_lock",
	EventTargetClear: "target_clear",
	EventCameraShake: "camera_shake",
}

func (k EventKind) String() string {
	if int(k) < len(eventNames) {
		return eventNames[k]
	}
	return "unknown"
}

// Event is one cue. Pos is where it happens; To is the far end of a tracer;
// Magnitude carries radius, bounce intensity or shake duration.
type Event struct {
	Kind      EventKind
	Pos       Vec
	To        Vec
	Magnitude float64
	Text      string
}

func (s *Sim) emit(e Event) {
	s.events = append(s.events, e)
}

func (s *Sim) caption(text string) {
	s.emit(Event{Kind: EventCaption, Text: text})
}

// DrainEvents returns the cues produced since the last call
func (s *Sim) DrainEvents() []Event {
	out := s.events
	s.events = nil
	return out
}
