package mesh

import "github.com/Faultbox/meshforge/pkg/math"

// ComputeTangentSpace fills in the face basis for the three corners of a
// triangle whose positions and texture coordinates are already resolved.
//
// With recomputeNormal set, every corner gets the flat face normal; a
// zero-area face keeps the default +Y normal. Tangent and bitangent come from
// the UV deltas and are shared by all three corners. When the UV mapping is
// degenerate (zero determinant), or the positions give no tangent direction,
// the corners keep their current tangent and bitangent and false is returned.
func ComputeTangentSpace(corners *[3]Vertex, recomputeNormal bool) bool {
	v0, v1, v2 := &corners[0], &corners[1], &corners[2]

	e1 := v1.Position.Sub(v0.Position)
	e2 := v2.Position.Sub(v0.Position)

	if recomputeNormal {
		n := faceNormal(e1, e2)
		for i := range corners {
			corners[i].Normal = n
		}
	}

	duv1 := v1.TexCoord.Sub(v0.TexCoord)
	duv2 := v2.TexCoord.Sub(v0.TexCoord)

	f := uvDeterminant(corners)
	if f == 0 {
		return false
	}
	invf := 1 / f

	tangent := e1.Scale(duv2.Y).Sub(e2.Scale(duv1.Y)).Scale(invf).Normalize()
	bitangent := e2.Scale(duv1.X).Sub(e1.Scale(duv2.X)).Scale(invf).Normalize()

	// Collinear positions with a valid UV mapping give a zero vector; the
	// default basis is more useful to a shader than a zero tangent.
	if tangent == (math.Vec3{}) || bitangent == (math.Vec3{}) || !tangent.IsFinite() || !bitangent.IsFinite() {
		return false
	}

	for i := range corners {
		corners[i].Tangent = tangent
		corners[i].Bitangent = bitangent
	}
	return true
}

// uvDeterminant is the signed doubled area of the triangle in UV space.
func uvDeterminant(corners *[3]Vertex) float32 {
	duv1 := corners[1].TexCoord.Sub(corners[0].TexCoord)
	duv2 := corners[2].TexCoord.Sub(corners[0].TexCoord)
	return duv1.X*duv2.Y - duv2.X*duv1.Y
}

func faceNormal(e1, e2 math.Vec3) math.Vec3 {
	n := e1.Cross(e2).Normalize()
	if n == (math.Vec3{}) || !n.IsFinite() {
		return DefaultVertex().Normal
	}
	return n
}
