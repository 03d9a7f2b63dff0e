package dynamics

import "errors"

// Domain errors for entity construction and set operations.
var (
	// ErrUnknownBody indicates a stale or foreign body handle.
	ErrUnknownBody = errors.New("dynamics: unknown body handle")

	// ErrNilShape indicates a collider descriptor without a shape.
	ErrNilShape = errors.New("dynamics: collider has no shape")

	// ErrNegativeMass indicates a negative mass or density parameter.
	ErrNegativeMass = errors.New("dynamics: negative mass parameter")

	// ErrNonFinite indicates a NaN or infinite pose or velocity component.
	ErrNonFinite = errors.New("dynamics: non-finite value")

	// ErrBadCoefficient indicates a friction or restitution coefficient
	// outside its valid range.
	ErrBadCoefficient = errors.New("dynamics: coefficient out of range")

	// ErrInvalidAxis indicates a joint axis that is zero or non-finite.
	ErrInvalidAxis = errors.New("dynamics: invalid joint axis")

	// ErrSelfJoint indicates a joint whose endpoints reference the same body.
	ErrSelfJoint = errors.New("dynamics: joint endpoints reference the same body")

	// ErrBadTimestep indicates non-positive or non-finite integration parameters.
	ErrBadTimestep = errors.New("dynamics: invalid integration parameters")
)
