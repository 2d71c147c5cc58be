package game

import "math"

// Camera tuning
const (
	CameraFollow = 0.0075 // lerp per ms
	CameraSnap   = 0.1
)

// FocusKind says what the camera is tracking
type FocusKind int

const (
	FocusActive FocusKind = iota
	FocusCharacter
	FocusProjectile
	FocusPoint
)

// Camera follows a focus and shakes after blasts. It does not affect play,
// but weapons and blasts steer it.
type Camera struct {
	Pos   Vec
	Free  bool
	Shake float64 // ms remaining

	focus FocusKind
	slot  int
	id    int
	point Vec
}

// CameraState is the camera view handed to renderers
type CameraState struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Free  bool    `json:"free"`
	Shake float64 `json:"shake"`
}

func (c *Camera) lockCharacter(slot int) {
	c.focus, c.slot = FocusCharacter, slot
}

func (c *Camera) lockProjectile(id int) {
	c.focus, c.id = FocusProjectile, id
}

func (c *Camera) lockPoint(p Vec) {
	c.focus, c.point = FocusPoint, p
}

func (c *Camera) unlock() {
	c.focus = FocusActive
}

func (c *Camera) shake(ms float64) {
	c.Shake = math.Max(c.Shake, ms)
}

// Focus returns what the camera is tracking
func (c *Camera) Focus() FocusKind {
	return c.focus
}

// offset is the shake displacement for the remaining shake time
func (c *Camera) offset() Vec {
	if c.Shake <= 0 {
		return Vec{}
	}
	return V(math.Sin(c.Shake/15)*(c.Shake/20), math.Cos(c.Shake/15)*(c.Shake/20))
}

// ToState returns the shaken camera centre
func (c *Camera) ToState() CameraState {
	p := c.Pos.Add(c.offset())
	return CameraState{X: p.X, Y: p.Y, Free: c.Free, Shake: c.Shake}
}

// cameraTarget resolves the focus to a world point. A projectile that no longer
// exists falls back to the active character.
func (s *Sim) cameraTarget() (Vec, bool) {
	cam := &s.camera
	switch cam.focus {
	case FocusCharacter:
		if cam.slot >= 0 && cam.slot < len(s.chars) {
			return s.chars[cam.slot].Pos, true
		}
	case FocusProjectile:
		if p := s.projectiles.get(cam.id); p != nil {
			return p.Position(), true
		}
		cam.unlock()
	case FocusPoint:
		return cam.point, true
	}
	if c := s.Active(); c != nil {
		return c.Pos, true
	}
	return Vec{}, false
}

// updateCamera eases toward the focus, or pans freely, and keeps the view
// inside the world.
func (s *Sim) updateCamera(dt float64, in Input) {
	cam := &s.camera
	if cam.Shake > 0 {
		cam.Shake = math.Max(cam.Shake-dt, 0)
	}

	if in.Pan != (Vec{}) {
		if !cam.Free {
			cam.Free = true
		}
		cam.Pos = cam.Pos.Add(in.Pan.Scale(dt))
		if s.authority() {
			s.send(MsgCameraFree, fmtFloat(cam.Pos.X), fmtFloat(cam.Pos.Y))
		}
	} else if !cam.Free {
		if target, ok := s.cameraTarget(); ok {
			t := Clamp(CameraFollow*dt, 0, 1)
			cam.Pos = LerpVec(cam.Pos, target, t)
			if SqDist(cam.Pos, target) < CameraSnap*CameraSnap {
				cam.Pos = target
			}
		}
	}

	halfW := s.cfg.ViewportWidth / 2
	halfH := s.cfg.ViewportHeight / 2
	cam.Pos.X = Clamp(cam.Pos.X, halfW, math.Max(halfW, s.cfg.Width-halfW))
	cam.Pos.Y = Clamp(cam.Pos.Y, -s.cfg.Height, math.Max(-s.cfg.Height, s.cfg.Height-halfH))
}

// setCameraFree moves the camera to p in free mode
func (s *Sim) setCameraFree(p Vec) {
	s.camera.Free = true
	s.camera.Pos = p
}

// UnlockCamera leaves free mode and resumes following the focus
func (s *Sim) UnlockCamera() {
	if !s.camera.Free {
		return
	}
	s.camera.Free = false
	s.camera.unlock()
	if s.authority() {
		s.send(MsgCameraLock)
	}
}
