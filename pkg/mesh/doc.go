// Package mesh provides the polygon mesh that the kagome analyses run on.
//
// # Overview
//
// A [Mesh] is built once from vertex positions and cyclic face lists with
// [New] and never changes afterwards. Construction indexes every directed
// halfedge, orders the neighbours of each vertex rotationally, collects the
// undirected edges in ascending order, and computes vertex normals.
//
// The analysis packages do not depend on [Mesh] directly. They consume the
// [Topology] interface, which exposes only what polyedge tracing, singularity
// classification, frames, weaving and strand graphs need:
//
//	var topo mesh.Topology = m
//	for _, e := range topo.Edges() {
//	    _ = topo.IsEdgeOnBoundary(e.U, e.V)
//	}
//
// # Building Kagome Meshes
//
// [FromCoarse] turns a coarse triangle mesh into a kagome mesh: [Subdivide]
// splits each triangle k times, then [Ambo] replaces every edge by a vertex.
// The result has 4-valent interior vertices, triangles where the dense mesh
// had faces, and hexagons (or other polygons at singular vertices) where it
// had vertices.
//
//	coarse, _ := mesh.ReadFile("coarse.json")
//	kagome, err := mesh.FromCoarse(coarse, 1)
//
// # Builders
//
// [Grid], [TriangleGrid], [QuadTorus], [TriangleTorus] and [Rosette] create
// small deterministic meshes for demos and tests.
//
// # Serialization
//
// Meshes use a compact JSON document with "vertices" ([x, y, z] triples) and
// "faces" (vertex index lists); see [ReadJSON] and [WriteJSON].
package mesh
