// Package frame builds local frames along polyedges.
//
// Each vertex of a polyedge gets a [Frame] whose X axis is the mesh normal,
// whose Y axis points forward along the strand, and whose Z axis is X×Y.
// Frames place cross-sections when a strand is turned into a ribbon.
package frame

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/matzehuels/kagome/pkg/mesh"
	"github.com/matzehuels/kagome/pkg/polyedge"
)

// Frame is a local coordinate system at one polyedge vertex.
type Frame struct {
	Origin r3.Vec `json:"origin"`
	X      r3.Vec `json:"x"`
	Y      r3.Vec `json:"y"`
	Z      r3.Vec `json:"z"`
}

// For returns one frame per vertex of pe, in polyedge order.
//
// Y points to the next vertex. At the end of an open polyedge it continues
// the direction of the last edge; at the end of a closed polyedge it points
// to pe[1], the vertex after the shared start. Z is not normalised beyond
// the cross product, so it degenerates when the normal is parallel to the
// strand.
func For(topo mesh.Topology, pe polyedge.Polyedge) []Frame {
	if len(pe) < 2 {
		return nil
	}
	last := len(pe) - 1
	closed := pe.IsClosed()
	frames := make([]Frame, len(pe))

	for i, v := range pe {
		origin := topo.VertexCoordinates(v)
		var dir r3.Vec
		switch {
		case i < last:
			dir = r3.Sub(topo.VertexCoordinates(pe[i+1]), origin)
		case closed:
			dir = r3.Sub(topo.VertexCoordinates(pe[1]), origin)
		default:
			dir = r3.Scale(-1, r3.Sub(topo.VertexCoordinates(pe[i-1]), origin))
		}

		x := topo.VertexNormal(v)
		y := mesh.Unit(dir)
		frames[i] = Frame{Origin: origin, X: x, Y: y, Z: r3.Cross(x, y)}
	}
	return frames
}

// All returns the frames of every polyedge in set order.
func All(topo mesh.Topology, set *polyedge.Set) [][]Frame {
	out := make([][]Frame, set.Len())
	for i, pe := range set.Polyedges {
		out[i] = For(topo, pe)
	}
	return out
}
