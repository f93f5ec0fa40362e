package cache

import "fmt"

// Keyer builds cache keys for each kind of cached result.
type Keyer interface {
	// MeshKey identifies the kagome mesh built from a coarse mesh at a
	// subdivision level.
	MeshKey(coarseHash string, level int) string
	// PolyedgeKey identifies the traced polyedge set of a mesh.
	PolyedgeKey(meshHash string) string
	// ArtifactKey identifies a rendered strand graph.
	ArtifactKey(meshHash string, opts ArtifactKeyOpts) string
}

// ArtifactKeyOpts are the rendering options that change an artifact.
type ArtifactKeyOpts struct {
	Format   string  `json:"format"`
	Scale    float64 `json:"scale,omitempty"`
	Detailed bool    `json:"detailed,omitempty"`
}

// DefaultKeyer produces unprefixed keys of the form kind:hash.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// MeshKey returns "mesh:<coarseHash>:k<level>".
func (DefaultKeyer) MeshKey(coarseHash string, level int) string {
	return fmt.Sprintf("mesh:%s:k%d", coarseHash, level)
}

// PolyedgeKey returns "polyedges:<meshHash>".
func (DefaultKeyer) PolyedgeKey(meshHash string) string {
	return "polyedges:" + meshHash
}

// ArtifactKey hashes the mesh hash together with the options.
func (DefaultKeyer) ArtifactKey(meshHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", meshHash, opts)
}
