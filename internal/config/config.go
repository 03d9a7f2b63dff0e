package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/impel-engine/impel/internal/dynamics"
	"github.com/impel-engine/impel/internal/pipeline"
)

const (
	DefaultDuration    = 10.0
	DefaultGravityY    = -9.81
	DefaultBodies      = 5
	DefaultHeight      = 5.0
	DefaultSpeed       = 120.0
	DefaultRestitution = 0.6
)

// Config describes one CLI simulation run: the scene to build, solver
// parameters and execution mode.
type Config struct {
	Scene              string  `yaml:"scene"`
	Dt                 float64 `yaml:"dt"`
	Duration           float64 `yaml:"duration"`
	GravityY           float64 `yaml:"gravity_y"`
	VelocityIterations int     `yaml:"velocity_iterations"`
	PositionIterations int     `yaml:"position_iterations"`
	CCD                bool    `yaml:"ccd"`
	StrictDeterminism  bool    `yaml:"strict_determinism"`
	NumThreads         int     `yaml:"num_threads"`

	SceneParams SceneConfig `yaml:"scene_params"`
}

// SceneConfig parameterizes the built-in scenes; fields a scene does not
// use are ignored.
type SceneConfig struct {
	Bodies      int     `yaml:"bodies"`      // stack height, ball count
	Height      float64 `yaml:"height"`      // initial drop height
	Speed       float64 `yaml:"speed"`       // projectile launch speed
	Restitution float64 `yaml:"restitution"` // bounciness of dropped bodies
}

func DefaultConfig() *Config {
	return &Config{
		Scene:              "bounce",
		Dt:                 dynamics.DefaultDt,
		Duration:           DefaultDuration,
		GravityY:           DefaultGravityY,
		VelocityIterations: dynamics.DefaultVelocityIterations,
		PositionIterations: dynamics.DefaultPositionIterations,
		StrictDeterminism:  true,
		NumThreads:         1,
		SceneParams: SceneConfig{
			Bodies:      DefaultBodies,
			Height:      DefaultHeight,
			Speed:       DefaultSpeed,
			Restitution: DefaultRestitution,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// IntegrationParams maps the run config onto solver parameters, keeping the
// documented defaults for everything it does not cover.
func (c *Config) IntegrationParams() dynamics.IntegrationParams {
	params := dynamics.DefaultIntegrationParams()
	if c.Dt > 0 {
		params.Dt = c.Dt
	}
	if c.VelocityIterations > 0 {
		params.VelocityIterations = c.VelocityIterations
	}
	if c.PositionIterations >= 0 {
		params.PositionIterations = c.PositionIterations
	}
	return params
}

// PipelineConfig maps the run config onto the execution-mode settings.
func (c *Config) PipelineConfig() pipeline.Config {
	return pipeline.Config{
		StrictDeterminism: c.StrictDeterminism,
		NumThreads:        c.NumThreads,
	}
}
