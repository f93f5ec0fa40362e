package mesh

import (
	"gonum.org/v1/gonum/spatial/r3"
)

// FaceNormal returns the unit normal of f, summing the cross products of
// consecutive corners taken about the face centroid.
func (m *Mesh) FaceNormal(f int) r3.Vec {
	face := m.faces[f]
	pts := make([]r3.Vec, len(face))
	for i, v := range face {
		pts[i] = m.vertices[v]
	}
	c := Centroid(pts)

	var n r3.Vec
	for i := range pts {
		a := r3.Sub(pts[i], c)
		b := r3.Sub(pts[(i+1)%len(pts)], c)
		n = r3.Add(n, r3.Cross(a, b))
	}
	return Unit(n)
}

// FaceCentroid returns the average position of the vertices of f.
func (m *Mesh) FaceCentroid(f int) r3.Vec {
	return Centroid(m.Coordinates(m.faces[f]))
}

// EdgeMidpoint returns the midpoint of u-v.
func (m *Mesh) EdgeMidpoint(u, v int) r3.Vec {
	return r3.Scale(0.5, r3.Add(m.vertices[u], m.vertices[v]))
}

// Coordinates maps vertex ids to positions.
func (m *Mesh) Coordinates(vs []int) []r3.Vec {
	out := make([]r3.Vec, len(vs))
	for i, v := range vs {
		out[i] = m.vertices[v]
	}
	return out
}

func (m *Mesh) vertexNormals() []r3.Vec {
	faceNormals := make([]r3.Vec, len(m.faces))
	for f := range m.faces {
		faceNormals[f] = m.FaceNormal(f)
	}

	normals := make([]r3.Vec, len(m.vertices))
	for v := range m.vertices {
		var sum r3.Vec
		for _, f := range m.VertexFaces(v) {
			sum = r3.Add(sum, faceNormals[f])
		}
		normals[v] = Unit(sum)
	}
	return normals
}

// Centroid returns the average of pts, or the zero vector for no points.
func Centroid(pts []r3.Vec) r3.Vec {
	if len(pts) == 0 {
		return r3.Vec{}
	}
	var sum r3.Vec
	for _, p := range pts {
		sum = r3.Add(sum, p)
	}
	return r3.Scale(1/float64(len(pts)), sum)
}

// Unit normalises v. Unlike r3.Unit it maps the zero vector to itself.
func Unit(v r3.Vec) r3.Vec {
	if r3.Norm(v) == 0 {
		return r3.Vec{}
	}
	return r3.Unit(v)
}
