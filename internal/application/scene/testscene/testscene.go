// Package testscene draws a textured glTF model with a sampled texture.
package testscene

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/younwookim/lightscenes/internal/application/camera"
	"github.com/younwookim/lightscenes/internal/application/scene"
	"github.com/younwookim/lightscenes/internal/gfx"
	"github.com/younwookim/lightscenes/internal/infrastructure/log"
)

const (
	Name = "testscene"

	// ModelFile and TextureFile are resolved through the mesh and texture directories
	ModelFile   = "model.glb"
	TextureFile = "texture"

	samplerName = "uSampler0"
	textureName = "uTex"
)

// UniformBlock is the per-frame uniform data, packed
type UniformBlock struct {
	World       mgl32.Mat4
	ProjectView mgl32.Mat4
}

// VertexLayout is the interleaved {position, normal, uv0} layout the model is loaded with
var VertexLayout = gfx.VertexLayout{Attribs: []gfx.VertexAttrib{
	{Semantic: gfx.SemanticPosition, Format: gfx.FormatR32G32B32Float, Location: 0, Offset: 0},
	{Semantic: gfx.SemanticNormal, Format: gfx.FormatR32G32B32Float, Location: 1, Offset: 12},
	{Semantic: gfx.SemanticTexCoord0, Format: gfx.FormatR32G32Float, Location: 2, Offset: 24},
}}

type Scene struct {
	env scene.Env
	log *log.Logger

	texture    gfx.Texture
	shader     gfx.Shader
	sampler    gfx.Sampler
	root       gfx.RootSignature
	textureSet gfx.DescriptorSet
	uniformSet gfx.DescriptorSet

	geometry gfx.Geometry
	uniforms []gfx.Buffer
	pipeline gfx.Pipeline
	cam      *camera.FPS
	binding  *scene.CameraBinding
	settings gfx.Settings
}

func New(env scene.Env) scene.Scene {
	s := &Scene{env: env, log: env.Log}
	if s.log == nil {
		s.log = log.NewNop()
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

	if s.texture, err = dev.AddTexture(gfx.TextureDesc{File: TextureFile}); err != nil {
		return fmt.Errorf("failed to add texture: %w", err)
	}

	s.shader, err = dev.AddShader(gfx.ShaderDesc{Stages: []gfx.ShaderStage{
		{File: "model.vert"}, {File: "model.frag"},
	}})
	if err != nil {
		return fmt.Errorf("failed to add shader: %w", err)
	}

	s.sampler, err = dev.AddSampler(gfx.SamplerDesc{
		Min:      gfx.FilterLinear,
		Mag:      gfx.FilterLinear,
		Mipmap:   gfx.MipmapNearest,
		AddressU: gfx.AddressClampToEdge,
		AddressV: gfx.AddressClampToEdge,
		AddressW: gfx.AddressClampToEdge,
	})
	if err != nil {
		return fmt.Errorf("failed to add sampler: %w", err)
	}

	s.root, err = dev.AddRootSignature(gfx.RootSignatureDesc{
		Shaders:        []gfx.Shader{s.shader},
		StaticSamplers: map[string]gfx.Sampler{samplerName: s.sampler},
	})
	if err != nil {
		return fmt.Errorf("failed to add root signature: %w", err)
	}

	s.textureSet, err = dev.AddDescriptorSet(gfx.DescriptorSetDesc{
		RootSignature:   s.root,
		UpdateFrequency: gfx.UpdateFreqNone,
		MaxSets:         1,
	})
	if err != nil {
		return fmt.Errorf("failed to add texture set: %w", err)
	}
	s.uniformSet, err = dev.AddDescriptorSet(gfx.DescriptorSetDesc{
		RootSignature:   s.root,
		UpdateFrequency: gfx.UpdateFreqPerFrame,
		MaxSets:         dev.Settings().ImageCount,
	})
	if err != nil {
		return fmt.Errorf("failed to add uniform set: %w", err)
	}

	// The texture binding never changes, so it is written once the upload lands.
	if err := dev.WaitForAllResourceLoads(); err != nil {
		return fmt.Errorf("failed to load texture: %w", err)
	}
	err = dev.UpdateDescriptorSet(s.textureSet, 0, gfx.DescriptorData{
		Name:     textureName,
		Textures: []gfx.Texture{s.texture},
	})
	if err != nil {
		return fmt.Errorf("failed to bind texture: %w", err)
	}
	return nil
}

func (s *Scene) Load(dev gfx.Device, sc gfx.SwapChain, depth gfx.RenderTarget) (err error) {
	defer func() {
		if err != nil {
			s.Unload(dev)
		}
	}()

	s.geometry, err = dev.AddGeometry(gfx.GeometryDesc{File: ModelFile, VertexLayout: VertexLayout})
	if err != nil {
		return fmt.Errorf("failed to add geometry: %w", err)
	}
	s.uniforms, err = scene.AddUniformBuffers(dev, sc.ImageCount(), gfx.SizeOf(UniformBlock{}))
	if err != nil {
		return err
	}

	if err := dev.WaitForAllResourceLoads(); err != nil {
		return fmt.Errorf("failed to load resources: %w", err)
	}
	if err := scene.BindUniformBuffers(dev, s.uniformSet, s.uniforms); err != nil {
		return err
	}

	desc := scene.OpaquePipeline(sc, depth, VertexLayout)
	desc.Shader = s.shader
	desc.RootSignature = s.root
	desc.Depth = nil
	if s.pipeline, err = dev.AddPipeline(desc); err != nil {
		return fmt.Errorf("failed to add pipeline: %w", err)
	}

	s.cam = scene.NewCamera(s.env.Config, mgl32.Vec3{2, 2, 2}, mgl32.Vec3{},
		camera.Motion{MaxSpeed: 160, Acceleration: 600, Braking: 200})
	s.binding = scene.BindCamera(s.env, s.cam, false)

	rt := sc.RenderTarget(0)
	s.settings = gfx.Settings{Width: rt.Width(), Height: rt.Height(), ImageCount: sc.ImageCount()}
	return nil
}

func (s *Scene) Update(dt float32) { s.cam.Update(dt) }

func (s *Scene) Draw(cmd gfx.Cmd, imageIndex int) {
	block := UniformBlock{
		World:       mgl32.Ident4(),
		ProjectView: scene.Projection(s.settings).Mul4(s.cam.ViewMatrix()),
	}
	if err := gfx.WriteUniform(s.uniforms[imageIndex], block); err != nil {
		s.log.Errorw("failed to write uniforms", "error", err)
	}

	strides := s.geometry.VertexStrides()
	for i, vb := range s.geometry.VertexBuffers() {
		cmd.BindPipeline(s.pipeline)
		cmd.BindDescriptorSet(0, s.textureSet)
		cmd.BindDescriptorSet(imageIndex, s.uniformSet)
		cmd.BindVertexBuffer([]gfx.Buffer{vb}, []int{strides[i]})
		cmd.BindIndexBuffer(s.geometry.IndexBuffer(), s.geometry.IndexType(), 0)
		cmd.DrawIndexed(s.geometry.IndexCount(), 0, 0)
	}
}

func (s *Scene) DrawUI() {}

func (s *Scene) Unload(dev gfx.Device) {
	s.binding.Release()
	s.binding, s.cam = nil, nil

	scene.RemoveBuffers(dev, s.uniforms)
	s.uniforms = nil
	if s.geometry != nil {
		dev.RemoveResource(s.geometry)
		s.geometry = nil
	}
	scene.RemovePipelines(dev, s.pipeline)
	s.pipeline = nil
}

func (s *Scene) Exit(dev gfx.Device) {
	for _, set := range []gfx.DescriptorSet{s.textureSet, s.uniformSet} {
		if set != nil {
			dev.RemoveDescriptorSet(set)
		}
	}
	s.textureSet, s.uniformSet = nil, nil

	if s.root != nil {
		dev.RemoveRootSignature(s.root)
		s.root = nil
	}
	if s.sampler != nil {
		dev.RemoveSampler(s.sampler)
		s.sampler = nil
	}
	if s.shader != nil {
		dev.RemoveShader(s.shader)
		s.shader = nil
	}
	if s.texture != nil {
		dev.RemoveResource(s.texture)
		s.texture = nil
	}
}
