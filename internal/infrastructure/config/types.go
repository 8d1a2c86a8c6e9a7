package config

// AppConfig is the root config for app.json
type AppConfig struct {
	Display  DisplayConfig  `json:"display"`
	Renderer RendererConfig `json:"renderer"`
	Paths    PathsConfig    `json:"paths"`
	Font     FontConfig     `json:"font"`
	// Scene is the name of the single active scene.
	Scene string `json:"scene"`
}

type DisplayConfig struct {
	ScreenWidth  int `json:"screenWidth"`
	ScreenHeight int `json:"screenHeight"`
	Scale        int `json:"scale"`
	Framerate    int `json:"framerate"`
}

// RendererConfig configures the swapchain and the frame slots
type RendererConfig struct {
	ImageCount  int        `json:"imageCount"` // Frame slots in flight
	VSync       bool       `json:"vsync"`
	ColorFormat string     `json:"colorFormat"`
	DepthFormat string     `json:"depthFormat"`
	ClearColor  [4]float64 `json:"clearColor"`
}

// PathsConfig maps resource kinds to directories, relative to the asset root
type PathsConfig struct {
	Shaders     string `json:"shaders"`
	Textures    string `json:"textures"`
	Meshes      string `json:"meshes"`
	Fonts       string `json:"fonts"`
	Screenshots string `json:"screenshots"`
	Captures    string `json:"captures"`
}

type FontConfig struct {
	Path  string  `json:"path"` // Empty selects the built-in face
	Size  float64 `json:"size"`
	Color uint32  `json:"color"`
}

// SceneConfig is the root config for scenes/<name>.json
type SceneConfig struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Camera      CameraConfig `json:"camera"`
	Input       InputConfig  `json:"input"`
	ObjectColor Vec3         `json:"objectColor"`
	LightColor  Vec3         `json:"lightColor"`
	LightPos    Vec3         `json:"lightPos"`
}

type Vec3 [3]float32

type CameraConfig struct {
	Position Vec3         `json:"position"`
	LookAt   Vec3         `json:"lookAt"`
	Motion   MotionConfig `json:"motion"`
}

// MotionConfig mirrors the FPS controller motion parameters
type MotionConfig struct {
	MaxSpeed     float32 `json:"maxSpeed"`
	Acceleration float32 `json:"acceleration"`
	Braking      float32 `json:"braking"`
}

type InputConfig struct {
	Move   AxisConfig `json:"move"`
	Rotate AxisConfig `json:"rotate"`
}

// AxisConfig configures a stick-like input action
type AxisConfig struct {
	Deadzone      float32 `json:"deadzone"`
	OutsideRadius float32 `json:"outsideRadius"`
	Scale         float32 `json:"scale"`
}
