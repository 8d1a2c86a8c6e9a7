// Package basiclighting renders the coral cube under Phong lighting from a small
// light cube. Based on https://learnopengl.com/Lighting/Basic-Lighting
package basiclighting

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/younwookim/lightscenes/internal/application/camera"
	"github.com/younwookim/lightscenes/internal/application/scene"
	"github.com/younwookim/lightscenes/internal/gfx"
	"github.com/younwookim/lightscenes/internal/infrastructure/assets"
	"github.com/younwookim/lightscenes/internal/infrastructure/config"
	"github.com/younwookim/lightscenes/internal/infrastructure/log"
)

const Name = "basiclighting"

// UniformBlock is the per-draw uniform data, packed. LightPos and ViewPos are in world space.
type UniformBlock struct {
	Model       mgl32.Mat4
	View        mgl32.Mat4
	Projection  mgl32.Mat4
	ObjectColor mgl32.Vec3
	LightColor  mgl32.Vec3
	LightPos    mgl32.Vec3
	ViewPos     mgl32.Vec3
}

type Scene struct {
	env scene.Env
	log *log.Logger

	lightPos    mgl32.Vec3
	objectColor mgl32.Vec3
	lightColor  mgl32.Vec3

	shaders  [2]gfx.Shader // lighting, light cube
	vertices gfx.Buffer
	root     gfx.RootSignature
	sets     [2]gfx.DescriptorSet
	cam      *camera.FPS
	binding  *scene.CameraBinding

	settings  gfx.Settings
	uniforms  [2][]gfx.Buffer
	pipelines [2]gfx.Pipeline
}

const (
	cube = iota
	light
)

func New(env scene.Env) scene.Scene {
	s := &Scene{
		env:         env,
		log:         env.Log,
		lightPos:    mgl32.Vec3{1.2, 1.0, 2.0},
		objectColor: mgl32.Vec3{1.0, 0.5, 0.31},
		lightColor:  mgl32.Vec3{1.0, 1.0, 1.0},
	}
	if s.log == nil {
		s.log = log.NewNop()
	}
	if cfg := env.Config; cfg != nil {
		for _, o := range []struct {
			dst *mgl32.Vec3
			src config.Vec3
		}{
			{&s.lightPos, cfg.LightPos},
			{&s.objectColor, cfg.ObjectColor},
			{&s.lightColor, cfg.LightColor},
		} {
			if o.src != (config.Vec3{}) {
				*o.dst = mgl32.Vec3(o.src)
			}
		}
	}
	return s
}

func (s *Scene) Name() string { return Name }

func (s *Scene) Init(dev gfx.Device) (err error) {
	defer func() {
		if err != nil {
			s.Exit(dev)
		}
	}()
	programs := [2][2]string{
		cube:  {"2.2.basic_lighting.vert", "2.2.basic_lighting.frag"},
		light: {"2.2.light_cube.vert", "2.2.light_cube.frag"},
	}
	for i, p := range programs {
		s.shaders[i], err = dev.AddShader(gfx.ShaderDesc{Stages: []gfx.ShaderStage{{File: p[0]}, {File: p[1]}}})
		if err != nil {
			return fmt.Errorf("failed to add shader %s: %w", p[0], err)
		}
	}

	data := assets.Cuboid()
	s.vertices, err = dev.AddBuffer(gfx.BufferDesc{
		Usage:  gfx.UsageVertex,
		Memory: gfx.MemoryGPUOnly,
		Size:   len(data) * 4,
		Data:   data,
	})
	if err != nil {
		return fmt.Errorf("failed to add vertex buffer: %w", err)
	}

	s.root, err = dev.AddRootSignature(gfx.RootSignatureDesc{Shaders: []gfx.Shader{s.shaders[cube]}})
	if err != nil {
		return fmt.Errorf("failed to add root signature: %w", err)
	}

	s.cam = scene.NewCamera(s.env.Config, mgl32.Vec3{0, 0, 3}, mgl32.Vec3{},
		camera.Motion{MaxSpeed: 16, Acceleration: 10, Braking: 20})
	s.binding = scene.BindCamera(s.env, s.cam, true)

	for i := range s.sets {
		s.sets[i], err = dev.AddDescriptorSet(gfx.DescriptorSetDesc{
			RootSignature:   s.root,
			UpdateFrequency: gfx.UpdateFreqPerFrame,
			MaxSets:         dev.Settings().ImageCount,
		})
		if err != nil {
			return fmt.Errorf("failed to add descriptor set: %w", err)
		}
	}
	return nil
}

func (s *Scene) Load(dev gfx.Device, sc gfx.SwapChain, depth gfx.RenderTarget) (err error) {
	defer func() {
		if err != nil {
			s.Unload(dev)
		}
	}()
	for i := range s.uniforms {
		s.uniforms[i], err = scene.AddUniformBuffers(dev, sc.ImageCount(), gfx.SizeOf(UniformBlock{}))
		if err != nil {
			return err
		}
	}

	if err := dev.WaitForAllResourceLoads(); err != nil {
		return fmt.Errorf("failed to load resources: %w", err)
	}
	for i := range s.sets {
		if err := scene.BindUniformBuffers(dev, s.sets[i], s.uniforms[i]); err != nil {
			return err
		}
	}

	desc := scene.OpaquePipeline(sc, depth, scene.PositionNormalLayout)
	desc.RootSignature = s.root
	for _, i := range []int{light, cube} {
		desc.Shader = s.shaders[i]
		if s.pipelines[i], err = dev.AddPipeline(desc); err != nil {
			return fmt.Errorf("failed to add pipeline: %w", err)
		}
	}

	rt := sc.RenderTarget(0)
	s.settings = gfx.Settings{Width: rt.Width(), Height: rt.Height(), ImageCount: sc.ImageCount()}
	return nil
}

func (s *Scene) Update(dt float32) { s.cam.Update(dt) }

func (s *Scene) Draw(cmd gfx.Cmd, imageIndex int) {
	block := UniformBlock{
		Model:       mgl32.Ident4(),
		View:        s.cam.ViewMatrix(),
		Projection:  scene.Projection(s.settings),
		ObjectColor: s.objectColor,
		LightColor:  s.lightColor,
		LightPos:    s.lightPos,
		ViewPos:     s.cam.Position(),
	}
	if err := gfx.WriteUniform(s.uniforms[cube][imageIndex], block); err != nil {
		s.log.Errorw("failed to write cube uniforms", "error", err)
	}
	block.Model = mgl32.Translate3D(s.lightPos.Elem()).Mul4(mgl32.Scale3D(0.2, 0.2, 0.2))
	if err := gfx.WriteUniform(s.uniforms[light][imageIndex], block); err != nil {
		s.log.Errorw("failed to write light uniforms", "error", err)
	}

	for _, i := range []int{cube, light} {
		cmd.BindPipeline(s.pipelines[i])
		cmd.BindDescriptorSet(imageIndex, s.sets[i])
		cmd.BindVertexBuffer([]gfx.Buffer{s.vertices}, []int{assets.CuboidStride})
		cmd.Draw(assets.CuboidVertexCount, 0)
	}
}

func (s *Scene) DrawUI() {}

func (s *Scene) Unload(dev gfx.Device) {
	for i := range s.uniforms {
		scene.RemoveBuffers(dev, s.uniforms[i])
		s.uniforms[i] = nil
	}
	scene.RemovePipelines(dev, s.pipelines[:]...)
	for i := range s.pipelines {
		s.pipelines[i] = nil
	}
}

func (s *Scene) Exit(dev gfx.Device) {
	s.binding.Release()
	s.binding, s.cam = nil, nil

	for i, set := range s.sets {
		if set != nil {
			dev.RemoveDescriptorSet(set)
			s.sets[i] = nil
		}
	}
	if s.root != nil {
		dev.RemoveRootSignature(s.root)
		s.root = nil
	}
	if s.vertices != nil {
		dev.RemoveResource(s.vertices)
		s.vertices = nil
	}
	for i, sh := range s.shaders {
		if sh != nil {
			dev.RemoveShader(sh)
			s.shaders[i] = nil
		}
	}
}
