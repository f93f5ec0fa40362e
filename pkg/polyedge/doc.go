// Package polyedge traces strands ("polyedges") across a mesh.
//
// # Straight-Through Rule
//
// A strand entering vertex b from a continues to the vertex returned by
// [Tracer.Opposite]. On a kagome mesh nearly every vertex is 4-valent and
// the strand leaves through the edge opposite the one it came in on. Along
// the boundary, 3-valent vertices pass the strand on to the next boundary
// edge. Everywhere else the strand stops.
//
// # Partitioning
//
// [Tracer.TraceAll] traces from every edge not yet covered and returns a
// [Set] in which each undirected edge belongs to exactly one polyedge:
//
//	set, err := polyedge.NewTracer(m).TraceAll()
//	if err != nil {
//	    return err
//	}
//	i, _ := set.Owner(u, v)
//
// Results are reproducible: edges are visited in ascending order and the
// neighbour order of the mesh is fixed.
package polyedge
