// Package strand builds the strand graph of a kagome mesh.
//
// The strand graph has one node per polyedge, positioned at the centroid of
// its vertices, and an edge between every two polyedges that meet at a
// mesh vertex. It is a coarse view of how the strands of a weave interlock.
//
//	set, _ := polyedge.NewTracer(m).TraceAll()
//	g, err := strand.Build(m, set)
//
// [ToDOT] writes the graph for Graphviz with nodes pinned to their mesh
// positions, and [RenderSVG] renders it with the neato engine. [ToPDF] and
// [ToPNG] convert the SVG through rsvg-convert.
package strand
