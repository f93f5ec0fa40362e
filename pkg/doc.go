// Package pkg provides the libraries behind kagome, a toolkit for tracing,
// classifying and weaving polyedges on kagome meshes.
//
// # Overview
//
// A kagome mesh has 4-valent interior vertices where triangles alternate
// with hexagons. Continuing straight through every vertex splits its edges
// into polyedges, the strands of a triaxial weave. The pkg directory is
// organized into three areas:
//
//  1. Domain: [mesh], [polyedge], [singular], [frame], [weave], [strand]
//  2. Infrastructure: [cache], [store], [httputil], [observability],
//     [errors], [buildinfo]
//  3. Orchestration: [pipeline]
//
// # Data Flow
//
//	coarse triangle mesh
//	         ↓
//	    [mesh.FromCoarse] (subdivide k times, then ambo)
//	         ↓
//	    [polyedge.Tracer] (edge partition into polyedges)
//	         ↓
//	    [singular], [frame], [weave], [strand] (derived analyses)
//	         ↓
//	    JSON / DOT / SVG / PDF / PNG
//
// # Quick Start
//
//	coarse, _ := mesh.TriangleTorus(6, 6)
//	m, _ := mesh.FromCoarse(coarse, 1)
//
//	set, err := polyedge.NewTracer(m).TraceAll()
//	if err != nil {
//	    return err
//	}
//	offsets, _ := weave.Compute(m, set)
//	g, _ := strand.Build(m, set)
//	dot := strand.ToDOT(g, strand.Options{Scale: 1})
//
// [pipeline.Runner] runs the same steps with caching and is what the CLI
// and the HTTP API use.
package pkg
