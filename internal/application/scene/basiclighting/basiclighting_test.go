package basiclighting

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/younwookim/lightscenes/internal/application/input"
	"github.com/younwookim/lightscenes/internal/application/scene"
	"github.com/younwookim/lightscenes/internal/application/scene/scenetest"
	"github.com/younwookim/lightscenes/internal/gfx"
)

func TestBasicLighting_Lifecycle(t *testing.T) {
	sys := input.NewSystem(nil)
	h := scenetest.Cycle(t, New(scene.Env{Input: sys}))

	assert.Equal(t, 10, h.Cmd.Draws)
	assert.Equal(t, 0, sys.ActionCount())
}

func TestBasicLighting_UniformsCarryEye(t *testing.T) {
	h := scenetest.New(t)
	s := New(scene.Env{}).(*Scene)
	require.NoError(t, s.Init(h.Dev))
	require.NoError(t, s.Load(h.Dev, h.SC, h.Depth))

	h.Frame(s, 2)

	type blocker interface{ Block() any }
	cubeBlock := s.uniforms[cube][2].(blocker).Block().(UniformBlock)
	assert.Equal(t, mgl32.Vec3{0, 0, 3}, cubeBlock.ViewPos)
	assert.Equal(t, mgl32.Vec3{1.2, 1.0, 2.0}, cubeBlock.LightPos)
	assert.Equal(t, mgl32.Ident4(), cubeBlock.Model)

	lightBlock := s.uniforms[light][2].(blocker).Block().(UniformBlock)
	assert.InDelta(t, 0.2, lightBlock.Model.At(0, 0), 1e-6)
	assert.InDelta(t, 1.2, lightBlock.Model.At(0, 3), 1e-6)

	assert.Nil(t, s.uniforms[cube][0].(blocker).Block())

	s.Unload(h.Dev)
	s.Exit(h.Dev)
	assert.Empty(t, h.Dev.Violations)
}

func TestBasicLighting_PipelineFailure(t *testing.T) {
	h := scenetest.New(t)
	sys := input.NewSystem(nil)
	s := New(scene.Env{Input: sys})
	require.NoError(t, s.Init(h.Dev))
	afterInit := h.Dev.Snapshot()

	h.Dev.Fail[gfx.KindPipeline] = assert.AnError
	err := s.Load(h.Dev, h.SC, h.Depth)
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, afterInit.Live, h.Dev.Snapshot().Live, "failed Load releases its buffers")

	// The scene loads cleanly once the device recovers
	require.NoError(t, s.Load(h.Dev, h.SC, h.Depth))
	s.Unload(h.Dev)

	s.Exit(h.Dev)
	assert.Equal(t, 0, sys.ActionCount())
	assert.NoError(t, h.Close())
	assert.Empty(t, h.Dev.Violations)
}

func TestBasicLighting_InitFailure(t *testing.T) {
	h := scenetest.New(t)
	sys := input.NewSystem(nil)
	h.Dev.Fail[gfx.KindDescriptorSet] = assert.AnError

	err := New(scene.Env{Input: sys}).Init(h.Dev)
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, 0, sys.ActionCount(), "camera actions released")
	assert.NoError(t, h.Close())
	assert.Empty(t, h.Dev.Violations)
}
