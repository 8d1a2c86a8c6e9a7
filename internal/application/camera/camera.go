// Package camera provides the first-person camera controller the demo scenes fly around with.
package camera

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Default projection planes used by every scene
const (
	Near = 0.1
	Far  = 1000.0
)

// pitch stays just short of straight up/down so the view basis never degenerates
const maxPitch = math.Pi/2 - 0.01

var up = mgl32.Vec3{0, 1, 0}

// Controller turns input deltas into a view matrix
type Controller interface {
	// OnMove feeds a stick-like movement input for the next Update. X strafes, Y moves forward.
	OnMove(v mgl32.Vec2)
	// OnRotate turns the camera by v radians of yaw (X) and pitch (Y).
	OnRotate(v mgl32.Vec2)
	ResetView()
	Update(dt float32)
	ViewMatrix() mgl32.Mat4
	Position() mgl32.Vec3
}

// Motion are the parameters of the FPS controller's velocity model
type Motion struct {
	MaxSpeed     float32
	Acceleration float32
	Braking      float32
}

// FPS is a first-person controller: yaw/pitch look plus accelerated planar movement
type FPS struct {
	motion Motion

	startPos   mgl32.Vec3
	startYaw   float32
	startPitch float32

	pos      mgl32.Vec3
	yaw      float32
	pitch    float32
	velocity mgl32.Vec3
	move     mgl32.Vec2
}

// NewFPS creates a controller at position looking at lookAt
func NewFPS(position, lookAt mgl32.Vec3) *FPS {
	yaw, pitch := anglesOf(lookAt.Sub(position))
	c := &FPS{
		startPos:   position,
		startYaw:   yaw,
		startPitch: pitch,
		motion:     Motion{MaxSpeed: 1, Acceleration: 1, Braking: 1},
	}
	c.ResetView()
	return c
}

// SetMotion sets the velocity model parameters
func (c *FPS) SetMotion(m Motion) {
	c.motion = m
}

func (c *FPS) Motion() Motion {
	return c.motion
}

func (c *FPS) OnMove(v mgl32.Vec2) {
	c.move = v
}

func (c *FPS) OnRotate(v mgl32.Vec2) {
	c.yaw += v.X()
	c.pitch = mgl32.Clamp(c.pitch+v.Y(), -maxPitch, maxPitch)
}

// ResetView returns to the starting pose and stops all motion
func (c *FPS) ResetView() {
	c.pos = c.startPos
	c.yaw = c.startYaw
	c.pitch = c.startPitch
	c.velocity = mgl32.Vec3{}
	c.move = mgl32.Vec2{}
}

// Update integrates one step. The movement input is consumed.
func (c *FPS) Update(dt float32) {
	forward := c.Forward()
	right := forward.Cross(up).Normalize()

	input := c.move
	if l := input.Len(); l > 1 {
		input = input.Mul(1 / l)
	}
	desired := right.Mul(input.X()).Add(forward.Mul(input.Y())).Mul(c.motion.MaxSpeed)

	if input.Len() > 0 {
		dv := desired.Sub(c.velocity)
		if step := c.motion.Acceleration * dt; dv.Len() > step {
			dv = dv.Normalize().Mul(step)
		}
		c.velocity = c.velocity.Add(dv)
	} else if speed := c.velocity.Len(); speed > 0 {
		slowed := speed - c.motion.Braking*dt
		if slowed <= 0 {
			c.velocity = mgl32.Vec3{}
		} else {
			c.velocity = c.velocity.Mul(slowed / speed)
		}
	}

	c.pos = c.pos.Add(c.velocity.Mul(dt))
	c.move = mgl32.Vec2{}
}

// Forward returns the unit view direction
func (c *FPS) Forward() mgl32.Vec3 {
	sy, cy := math.Sincos(float64(c.yaw))
	sp, cp := math.Sincos(float64(c.pitch))
	return mgl32.Vec3{float32(sy * cp), float32(sp), float32(-cy * cp)}
}

func (c *FPS) ViewMatrix() mgl32.Mat4 {
	return mgl32.LookAtV(c.pos, c.pos.Add(c.Forward()), up)
}

func (c *FPS) Position() mgl32.Vec3 {
	return c.pos
}

func (c *FPS) Velocity() mgl32.Vec3 {
	return c.velocity
}

func anglesOf(dir mgl32.Vec3) (yaw, pitch float32) {
	if dir.Len() == 0 {
		return 0, 0
	}
	d := dir.Normalize()
	yaw = float32(math.Atan2(float64(d.X()), float64(-d.Z())))
	pitch = mgl32.Clamp(float32(math.Asin(float64(d.Y()))), -maxPitch, maxPitch)
	return yaw, pitch
}

// Perspective builds a projection from a horizontal field of view and the inverse
// aspect ratio (height/width).
func Perspective(horizontalFOV, aspectInverse float32) mgl32.Mat4 {
	fovY := 2 * math.Atan(math.Tan(float64(horizontalFOV)/2)*float64(aspectInverse))
	return mgl32.Perspective(float32(fovY), 1/aspectInverse, Near, Far)
}
