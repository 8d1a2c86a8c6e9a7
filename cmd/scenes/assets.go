package main

import "embed"

// assetFS holds app.json, the scene configs and the shader, texture and mesh files
//
//go:embed assets
var assetFS embed.FS
