package scene

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/younwookim/lightscenes/internal/application/camera"
	"github.com/younwookim/lightscenes/internal/application/input"
	"github.com/younwookim/lightscenes/internal/infrastructure/config"
)

// NewCamera creates an FPS camera from the scene config. The given pose and motion
// are used when the config leaves them unset.
func NewCamera(cfg *config.SceneConfig, pos, lookAt mgl32.Vec3, motion camera.Motion) *camera.FPS {
	if cfg != nil {
		c := cfg.Camera
		if c.Position != c.LookAt {
			pos, lookAt = mgl32.Vec3(c.Position), mgl32.Vec3(c.LookAt)
		}
		if c.Motion.MaxSpeed > 0 {
			motion = camera.Motion(c.Motion)
		}
	}
	cam := camera.NewFPS(pos, lookAt)
	cam.SetMotion(motion)
	return cam
}

// CameraBinding is the set of input actions driving a scene's camera
type CameraBinding struct {
	system *input.System
	ids    []input.ActionID
}

// BindCamera registers move (left stick), rotate (right stick) and, when reset is set,
// reset view (north button) actions for cam. The actions only act while input is
// captured and the UI is not focused.
func BindCamera(env Env, cam camera.Controller, reset bool) *CameraBinding {
	b := &CameraBinding{system: env.Input}
	if env.Input == nil {
		return b
	}

	active := func(ctx input.Context) bool {
		if env.UI != nil && env.UI.IsFocused() {
			return false
		}
		return ctx.Captured
	}
	cfg := env.Config

	move := input.ActionDesc{Binding: input.FloatLeftStick, Func: func(ctx input.Context) bool {
		if !active(ctx) {
			return false
		}
		cam.OnMove(ctx.Float2)
		return true
	}}
	rotate := input.ActionDesc{Binding: input.FloatRightStick, Func: func(ctx input.Context) bool {
		if !active(ctx) {
			return false
		}
		cam.OnRotate(ctx.Float2)
		return true
	}}
	if cfg != nil {
		move.Deadzone, move.OutsideRadius, move.Scale = cfg.Input.Move.Deadzone, cfg.Input.Move.OutsideRadius, cfg.Input.Move.Scale
		rotate.Deadzone, rotate.OutsideRadius, rotate.Scale = cfg.Input.Rotate.Deadzone, cfg.Input.Rotate.OutsideRadius, cfg.Input.Rotate.Scale
	}

	b.ids = append(b.ids, env.Input.AddAction(move), env.Input.AddAction(rotate))
	if reset {
		b.ids = append(b.ids, env.Input.AddAction(input.ActionDesc{Binding: input.ButtonNorth, Func: func(input.Context) bool {
			if env.UI != nil && env.UI.IsFocused() {
				return false
			}
			cam.ResetView()
			return true
		}}))
	}
	return b
}

// Release removes the actions
func (b *CameraBinding) Release() {
	if b == nil || b.system == nil {
		return
	}
	for _, id := range b.ids {
		b.system.RemoveAction(id)
	}
	b.ids = nil
}
