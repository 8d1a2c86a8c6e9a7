// Package colors renders a coral cube next to a white light cube.
// Based on https://learnopengl.com/Lighting/Colors
package colors

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

// Name is the registry name of the scene
const Name = "colors"

// UniformBlock is the per-draw uniform data, packed
type UniformBlock struct {
	Model       mgl32.Mat4
	View        mgl32.Mat4
	Projection  mgl32.Mat4
	ObjectColor mgl32.Vec3
	LightColor  mgl32.Vec3
}

var (
	defaultLightPos    = mgl32.Vec3{1.2, 1.0, 2.0}
	defaultObjectColor = mgl32.Vec3{1.0, 0.5, 0.31}
	defaultLightColor  = mgl32.Vec3{1.0, 1.0, 1.0}
	defaultMotion      = camera.Motion{MaxSpeed: 16, Acceleration: 10, Braking: 20}
)

// Scene is the Colors demo
type Scene struct {
	env scene.Env
	log *log.Logger

	lightPos    mgl32.Vec3
	objectColor mgl32.Vec3
	lightColor  mgl32.Vec3

	// Init
	lightingShader  gfx.Shader
	lightCubeShader gfx.Shader
	vertices        gfx.Buffer
	rootSignature   gfx.RootSignature
	cubeSet         gfx.DescriptorSet
	lightSet        gfx.DescriptorSet
	cam             *camera.FPS
	binding         *scene.CameraBinding

	// Load
	settings      gfx.Settings
	cubeUniforms  []gfx.Buffer
	lightUniforms []gfx.Buffer
	cubePipeline  gfx.Pipeline
	lightPipeline gfx.Pipeline
}

// New implements scene.Factory
func New(env scene.Env) scene.Scene {
	s := &Scene{
		env:         env,
		log:         env.Log,
		lightPos:    defaultLightPos,
		objectColor: defaultObjectColor,
		lightColor:  defaultLightColor,
	}
	if s.log == nil {
		s.log = log.NewNop()
	}
	if cfg := env.Config; cfg != nil {
		if cfg.LightPos != (config.Vec3{}) {
			s.lightPos = mgl32.Vec3(cfg.LightPos)
		}
		if cfg.ObjectColor != (config.Vec3{}) {
			s.objectColor = mgl32.Vec3(cfg.ObjectColor)
		}
		if cfg.LightColor != (config.Vec3{}) {
			s.lightColor = mgl32.Vec3(cfg.LightColor)
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

	s.lightingShader, err = dev.AddShader(gfx.ShaderDesc{Stages: []gfx.ShaderStage{
		{File: "2.1.colors.vert"}, {File: "2.1.colors.frag"},
	}})
	if err != nil {
		return fmt.Errorf("failed to add lighting shader: %w", err)
	}

	s.lightCubeShader, err = dev.AddShader(gfx.ShaderDesc{Stages: []gfx.ShaderStage{
		{File: "2.1.light_cube.vert"}, {File: "2.1.light_cube.frag"},
	}})
	if err != nil {
		return fmt.Errorf("failed to add light cube shader: %w", err)
	}

	cube := assets.Cuboid()
	s.vertices, err = dev.AddBuffer(gfx.BufferDesc{
		Usage:  gfx.UsageVertex,
		Memory: gfx.MemoryGPUOnly,
		Size:   len(cube) * 4,
		Data:   cube,
	})
	if err != nil {
		return fmt.Errorf("failed to add vertex buffer: %w", err)
	}

	s.rootSignature, err = dev.AddRootSignature(gfx.RootSignatureDesc{
		Shaders: []gfx.Shader{s.lightingShader},
	})
	if err != nil {
		return fmt.Errorf("failed to add root signature: %w", err)
	}

	s.cam = scene.NewCamera(s.env.Config, mgl32.Vec3{0, 0, 3}, mgl32.Vec3{}, defaultMotion)
	s.binding = scene.BindCamera(s.env, s.cam, true)

	imageCount := dev.Settings().ImageCount
	s.cubeSet, err = dev.AddDescriptorSet(gfx.DescriptorSetDesc{
		RootSignature:   s.rootSignature,
		UpdateFrequency: gfx.UpdateFreqPerFrame,
		MaxSets:         imageCount,
	})
	if err != nil {
		return fmt.Errorf("failed to add cube descriptor set: %w", err)
	}
	s.lightSet, err = dev.AddDescriptorSet(gfx.DescriptorSetDesc{
		RootSignature:   s.rootSignature,
		UpdateFrequency: gfx.UpdateFreqPerFrame,
		MaxSets:         imageCount,
	})
	if err != nil {
		return fmt.Errorf("failed to add light descriptor set: %w", err)
	}

	return nil
}

func (s *Scene) Load(dev gfx.Device, sc gfx.SwapChain, depth gfx.RenderTarget) (err error) {
	defer func() {
		if err != nil {
			s.Unload(dev)
		}
	}()
	imageCount := sc.ImageCount()
	size := gfx.SizeOf(UniformBlock{})

	if s.cubeUniforms, err = scene.AddUniformBuffers(dev, imageCount, size); err != nil {
		return err
	}
	if s.lightUniforms, err = scene.AddUniformBuffers(dev, imageCount, size); err != nil {
		return err
	}

	if err := dev.WaitForAllResourceLoads(); err != nil {
		return fmt.Errorf("failed to load resources: %w", err)
	}

	if err := scene.BindUniformBuffers(dev, s.cubeSet, s.cubeUniforms); err != nil {
		return err
	}
	if err := scene.BindUniformBuffers(dev, s.lightSet, s.lightUniforms); err != nil {
		return err
	}

	desc := scene.OpaquePipeline(sc, depth, scene.PositionNormalLayout)
	desc.RootSignature = s.rootSignature

	desc.Shader = s.lightCubeShader
	if s.lightPipeline, err = dev.AddPipeline(desc); err != nil {
		return fmt.Errorf("failed to add light pipeline: %w", err)
	}
	desc.Shader = s.lightingShader
	if s.cubePipeline, err = dev.AddPipeline(desc); err != nil {
		return fmt.Errorf("failed to add cube pipeline: %w", err)
	}

	rt := sc.RenderTarget(0)
	s.settings = gfx.Settings{Width: rt.Width(), Height: rt.Height(), ImageCount: imageCount}
	return nil
}

func (s *Scene) Update(dt float32) {
	s.cam.Update(dt)
}

func (s *Scene) Draw(cmd gfx.Cmd, imageIndex int) {
	view := s.cam.ViewMatrix()
	proj := scene.Projection(s.settings)

	cube := UniformBlock{
		Model:       mgl32.Ident4(),
		View:        view,
		Projection:  proj,
		ObjectColor: s.objectColor,
		LightColor:  s.lightColor,
	}
	if err := gfx.WriteUniform(s.cubeUniforms[imageIndex], cube); err != nil {
		s.log.Errorw("failed to write cube uniforms", "error", err)
	}

	light := cube
	light.Model = LightModel(s.lightPos)
	if err := gfx.WriteUniform(s.lightUniforms[imageIndex], light); err != nil {
		s.log.Errorw("failed to write light uniforms", "error", err)
	}

	strides := []int{assets.CuboidStride}
	vertices := []gfx.Buffer{s.vertices}

	cmd.BindPipeline(s.cubePipeline)
	cmd.BindDescriptorSet(imageIndex, s.cubeSet)
	cmd.BindVertexBuffer(vertices, strides)
	cmd.Draw(assets.CuboidVertexCount, 0)

	cmd.BindPipeline(s.lightPipeline)
	cmd.BindDescriptorSet(imageIndex, s.lightSet)
	cmd.BindVertexBuffer(vertices, strides)
	cmd.Draw(assets.CuboidVertexCount, 0)
}

// LightModel places the light cube: translated to pos and shrunk to a fifth
func LightModel(pos mgl32.Vec3) mgl32.Mat4 {
	return mgl32.Translate3D(pos.X(), pos.Y(), pos.Z()).Mul4(mgl32.Scale3D(0.2, 0.2, 0.2))
}

func (s *Scene) DrawUI() {}

func (s *Scene) Unload(dev gfx.Device) {
	scene.RemoveBuffers(dev, s.cubeUniforms)
	scene.RemoveBuffers(dev, s.lightUniforms)
	s.cubeUniforms, s.lightUniforms = nil, nil

	scene.RemovePipelines(dev, s.cubePipeline, s.lightPipeline)
	s.cubePipeline, s.lightPipeline = nil, nil
}

func (s *Scene) Exit(dev gfx.Device) {
	s.binding.Release()
	s.binding, s.cam = nil, nil

	for _, set := range []gfx.DescriptorSet{s.cubeSet, s.lightSet} {
		if set != nil {
			dev.RemoveDescriptorSet(set)
		}
	}
	s.cubeSet, s.lightSet = nil, nil

	if s.rootSignature != nil {
		dev.RemoveRootSignature(s.rootSignature)
		s.rootSignature = nil
	}
	if s.vertices != nil {
		dev.RemoveResource(s.vertices)
		s.vertices = nil
	}
	for _, sh := range []gfx.Shader{s.lightingShader, s.lightCubeShader} {
		if sh != nil {
			dev.RemoveShader(sh)
		}
	}
	s.lightingShader, s.lightCubeShader = nil, nil
}
