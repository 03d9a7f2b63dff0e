package dynamics

import (
	"github.com/go-gl/mathgl/mgl64"
)

// MassProps are the resolved mass properties of a body: mass, rotational
// inertia about the center of mass, and the center of mass in body-local
// space. Inverse values are zero for massless bodies.
type MassProps struct {
	Mass       float64
	InvMass    float64
	Inertia    float64
	InvInertia float64
	LocalCom   mgl64.Vec2
}

// computeMassProps combines the body's additional mass with the mass
// contributions of its attached colliders (those with non-zero density).
func computeMassProps(body *RigidBody, colliders *ColliderSet) MassProps {
	mass := body.extraMass
	com := mgl64.Vec2{}

	type part struct {
		mass    float64
		inertia float64
		center  mgl64.Vec2
	}
	parts := make([]part, 0, len(body.colliders))
	if body.extraMass > 0 {
		parts = append(parts, part{mass: body.extraMass})
	}

	for _, ch := range body.colliders {
		c, ok := colliders.Get(ch)
		if !ok || c.Density == 0 {
			continue
		}
		sm := c.Shape.MassProperties(c.Density)
		center := c.PoseRel.Point(sm.Center)
		parts = append(parts, part{mass: sm.Mass, inertia: sm.Inertia, center: center})
		mass += sm.Mass
		com = com.Add(center.Mul(sm.Mass))
	}

	if mass <= 0 {
		return MassProps{}
	}
	com = com.Mul(1 / mass)

	// Parallel-axis shift of every contribution onto the combined center.
	var inertia float64
	for _, p := range parts {
		d := p.center.Sub(com)
		inertia += p.inertia + p.mass*d.Dot(d)
	}

	props := MassProps{
		Mass:     mass,
		InvMass:  1 / mass,
		Inertia:  inertia,
		LocalCom: com,
	}
	if inertia > 0 {
		props.InvInertia = 1 / inertia
	}
	return props
}
