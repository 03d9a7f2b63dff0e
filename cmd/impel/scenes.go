package main

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/impel-engine/impel/internal/broadphase"
	"github.com/impel-engine/impel/internal/ccd"
	"github.com/impel-engine/impel/internal/config"
	"github.com/impel-engine/impel/internal/dynamics"
	"github.com/impel-engine/impel/internal/events"
	"github.com/impel-engine/impel/internal/geometry"
	"github.com/impel-engine/impel/internal/narrowphase"
	"github.com/impel-engine/impel/internal/pipeline"
)

// simulation bundles one assembled world and the pipeline driving it.
type simulation struct {
	pipe      *pipeline.Pipeline
	bodies    *dynamics.RigidBodySet
	colliders *dynamics.ColliderSet
	joints    *dynamics.JointSet
	bp        *broadphase.BroadPhase
	np        *narrowphase.NarrowPhase
	resolver  *ccd.Resolver // nil when CCD is off
	sink      *events.Collector

	params  dynamics.IntegrationParams
	gravity mgl64.Vec2

	tracked dynamics.BodyHandle
	caption string
	axis    int // sample axis: 0 = x, 1 = y
}

func (s *simulation) step() {
	s.pipe.Step(s.gravity, &s.params, s.bp, s.np, s.bodies, s.colliders, s.joints, s.resolver, nil, s.sink)
}

// sample returns the tracked body's plotted coordinate.
func (s *simulation) sample() float64 {
	body, ok := s.bodies.Get(s.tracked)
	if !ok {
		return 0
	}
	return body.Pose.Translation[s.axis]
}

func buildScene(cfg *config.Config) (*simulation, error) {
	pipe, err := pipeline.New(cfg.PipelineConfig())
	if err != nil {
		return nil, err
	}
	sim := &simulation{
		pipe:      pipe,
		bodies:    dynamics.NewRigidBodySet(),
		colliders: dynamics.NewColliderSet(),
		joints:    dynamics.NewJointSet(),
		bp:        broadphase.New(),
		np:        narrowphase.New(),
		sink:      events.NewCollector(),
		params:    cfg.IntegrationParams(),
		gravity:   mgl64.Vec2{0, cfg.GravityY},
		axis:      1,
	}
	if cfg.CCD {
		sim.resolver = ccd.New()
	}

	switch cfg.Scene {
	case "bounce":
		err = buildBounce(sim, cfg.SceneParams)
	case "stack":
		err = buildStack(sim, cfg.SceneParams)
	case "projectile":
		err = buildProjectile(sim, cfg.SceneParams)
	case "sensor":
		err = buildSensor(sim, cfg.SceneParams)
	default:
		return nil, fmt.Errorf("unknown scene: %s", cfg.Scene)
	}
	if err != nil {
		return nil, err
	}
	return sim, nil
}

func (s *simulation) addStatic(position mgl64.Vec2, shape geometry.Shape, sensor bool) (dynamics.ColliderHandle, error) {
	desc := dynamics.StaticBody()
	desc.Position = position
	bh, err := s.bodies.Insert(desc)
	if err != nil {
		return dynamics.ColliderHandle{}, err
	}
	cd := dynamics.NewColliderDesc(shape)
	cd.Sensor = sensor
	return s.colliders.Insert(cd, bh, s.bodies)
}

func (s *simulation) addGround(halfWidth float64) (dynamics.ColliderHandle, error) {
	slab, err := geometry.NewCuboid(halfWidth, 0.5)
	if err != nil {
		return dynamics.ColliderHandle{}, err
	}
	return s.addStatic(mgl64.Vec2{0, -0.5}, slab, false)
}

// buildBounce drops a single ball onto the ground.
func buildBounce(s *simulation, p config.SceneConfig) error {
	groundHandle, err := s.addGround(50)
	if err != nil {
		return err
	}
	if groundCol, ok := s.colliders.Get(groundHandle); ok {
		groundCol.Restitution = 1 // the ball's coefficient decides the bounce
	}

	ball, err := geometry.NewBall(0.5)
	if err != nil {
		return err
	}

	desc := dynamics.DynamicBody()
	desc.Position = mgl64.Vec2{0, p.Height}
	bh, err := s.bodies.Insert(desc)
	if err != nil {
		return err
	}
	cd := dynamics.NewColliderDesc(ball)
	cd.Restitution = p.Restitution * p.Restitution // geometric mean with the ground's 1
	if _, err := s.colliders.Insert(cd, bh, s.bodies); err != nil {
		return err
	}
	s.tracked = bh
	s.caption = "ball height over time"
	return nil
}

// buildStack piles boxes and tracks the top one.
func buildStack(s *simulation, p config.SceneConfig) error {
	if _, err := s.addGround(50); err != nil {
		return err
	}
	count := max(p.Bodies, 1)
	box, err := geometry.NewCuboid(0.5, 0.5)
	if err != nil {
		return err
	}
	var top dynamics.BodyHandle
	for i := 0; i < count; i++ {
		desc := dynamics.DynamicBody()
		desc.Position = mgl64.Vec2{0, 0.5 + float64(i)*1.001}
		bh, err := s.bodies.Insert(desc)
		if err != nil {
			return err
		}
		if _, err := s.colliders.Insert(dynamics.NewColliderDesc(box), bh, s.bodies); err != nil {
			return err
		}
		top = bh
	}
	s.tracked = top
	s.caption = "top box height over time"
	return nil
}

// buildProjectile fires a small ball at a thin wall; with CCD enabled the
// ball stops, without it the ball tunnels through.
func buildProjectile(s *simulation, p config.SceneConfig) error {
	if _, err := s.addGround(100); err != nil {
		return err
	}
	wall, err := geometry.NewCuboid(0.05, 10)
	if err != nil {
		return err
	}
	if _, err := s.addStatic(mgl64.Vec2{30, 10}, wall, false); err != nil {
		return err
	}

	bullet, err := geometry.NewBall(0.1)
	if err != nil {
		return err
	}
	desc := dynamics.DynamicBody()
	desc.Position = mgl64.Vec2{0, 10}
	desc.LinVel = mgl64.Vec2{p.Speed, 0}
	desc.CCDEnabled = s.resolver != nil
	desc.CanSleep = false
	bh, err := s.bodies.Insert(desc)
	if err != nil {
		return err
	}
	if _, err := s.colliders.Insert(dynamics.NewColliderDesc(bullet), bh, s.bodies); err != nil {
		return err
	}
	s.tracked = bh
	s.caption = "projectile x over time"
	s.axis = 0
	return nil
}

// buildSensor drops balls through a sensor zone, counting enter/exit events.
func buildSensor(s *simulation, p config.SceneConfig) error {
	zone, err := geometry.NewCuboid(5, 1)
	if err != nil {
		return err
	}
	if _, err := s.addStatic(mgl64.Vec2{0, p.Height / 2}, zone, true); err != nil {
		return err
	}
	if _, err := s.addGround(50); err != nil {
		return err
	}

	ball, err := geometry.NewBall(0.3)
	if err != nil {
		return err
	}
	count := max(p.Bodies, 1)
	var first dynamics.BodyHandle
	for i := 0; i < count; i++ {
		desc := dynamics.DynamicBody()
		desc.Position = mgl64.Vec2{float64(i) - float64(count-1)/2, p.Height}
		bh, err := s.bodies.Insert(desc)
		if err != nil {
			return err
		}
		if _, err := s.colliders.Insert(dynamics.NewColliderDesc(ball), bh, s.bodies); err != nil {
			return err
		}
		if i == 0 {
			first = bh
		}
	}
	s.tracked = first
	s.caption = "ball height over time"
	return nil
}
