package config

import "sort"

var Presets = map[string]map[string]*Config{
	"bounce": {
		"rubber": {
			Scene: "bounce", Dt: 1.0 / 60.0, Duration: 10.0, GravityY: -9.81,
			SceneParams: SceneConfig{Height: 5.0, Restitution: 0.9},
		},
		"dead": {
			Scene: "bounce", Dt: 1.0 / 60.0, Duration: 5.0, GravityY: -9.81,
			SceneParams: SceneConfig{Height: 5.0, Restitution: 0.1},
		},
		"moon": {
			Scene: "bounce", Dt: 1.0 / 60.0, Duration: 20.0, GravityY: -1.62,
			SceneParams: SceneConfig{Height: 5.0, Restitution: 0.6},
		},
	},
	"stack": {
		"short": {
			Scene: "stack", Dt: 1.0 / 60.0, Duration: 10.0, GravityY: -9.81,
			SceneParams: SceneConfig{Bodies: 3},
		},
		"tall": {
			Scene: "stack", Dt: 1.0 / 60.0, Duration: 20.0, GravityY: -9.81,
			VelocityIterations: 16, PositionIterations: 6,
			SceneParams: SceneConfig{Bodies: 10},
		},
	},
	"projectile": {
		"bullet": {
			Scene: "projectile", Dt: 1.0 / 60.0, Duration: 2.0, GravityY: -9.81, CCD: true,
			SceneParams: SceneConfig{Speed: 200.0},
		},
		"tunnel": {
			Scene: "projectile", Dt: 1.0 / 60.0, Duration: 2.0, GravityY: -9.81, CCD: false,
			SceneParams: SceneConfig{Speed: 200.0},
		},
	},
	"sensor": {
		"dropzone": {
			Scene: "sensor", Dt: 1.0 / 60.0, Duration: 5.0, GravityY: -9.81,
			SceneParams: SceneConfig{Height: 8.0, Bodies: 3},
		},
	},
}

// GetPreset returns the named preset for a scene, or nil when either the
// scene or the preset is unknown.
func GetPreset(scene, preset string) *Config {
	return Presets[scene][preset]
}

// ListPresets returns the preset names for a scene in sorted order, or nil
// for an unknown scene.
func ListPresets(scene string) []string {
	scenePresets, ok := Presets[scene]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(scenePresets))
	for name := range scenePresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
