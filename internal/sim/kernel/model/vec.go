package model

type Vec2i struct {
	X int
	Z int
}

// DistSq is the squared euclidean distance between a and b.
func (a Vec2i) DistSq(b Vec2i) int {
	dx := a.X - b.X
	dz := a.Z - b.Z
	return dx*dx + dz*dz
}

func (a Vec2i) Add(b Vec2i) Vec2i {
	return Vec2i{X: a.X + b.X, Z: a.Z + b.Z}
}

// Touches reports whether b is a itself or one of its 8 neighbors.
func (a Vec2i) Touches(b Vec2i) bool {
	dx := a.X - b.X
	if dx < 0 {
		dx = -dx
	}
	dz := a.Z - b.Z
	if dz < 0 {
		dz = -dz
	}
	return dx <= 1 && dz <= 1
}
