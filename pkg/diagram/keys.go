package diagram

// Layout option keys understood by the built-in engine. Keys follow the
// dotted naming used by diagram frontmatter, so option blocks copied from a
// diagram header apply unchanged. Engines must tolerate keys they do not know.
const (
	KeyAlgorithm             = "elk.algorithm"
	KeyPadding               = "elk.padding"
	KeyDirection             = "elk.direction"
	KeySpacingNodeNode       = "elk.spacing.nodeNode"
	KeySpacingEdgeNode       = "elk.spacing.edgeNode"
	KeySpacingBetweenLayers  = "elk.layered.spacing.nodeNodeBetweenLayers"
	KeyStressEdgeLength      = "elk.stress.desiredEdgeLength"
	KeyForceIterations       = "elk.force.iterations"
	KeyForceRepulsion        = "elk.force.repulsion"
	KeyEdgeLabelsInline      = "elk.edgeLabels.inline"
	KeyEdgeLabelsPlacement   = "elk.edgeLabels.placement"
	KeyRadialCompaction      = "elk.radial.compaction"
	KeyDiscoComponentSpacing = "elk.disco.componentCompaction.componentSpacing"
)
