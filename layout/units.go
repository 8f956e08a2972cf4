package layout

// Artboard units are CSS pixels. The canvas renderer works in millimetres and
// sizes fonts in points.
const (
	PtToMm = 0.352777
	MmToPt = 1.0 / PtToMm
	PxToMm = 25.4 / 96
)
