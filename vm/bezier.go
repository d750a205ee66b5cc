package vm

// ---------------------------------------------------------------------------
// Curve: Composite cubic bezier motion paths
// ---------------------------------------------------------------------------

// CurvePoint is one control point. Coordinates are kept as values so
// relative (delta-tagged) coordinates survive until the host resolves
// them against the current position.
type CurvePoint struct {
	X Value
	Y Value
}

// CurveSegment is one cubic segment: four control points.
type CurveSegment [4]CurvePoint

// Curve is a composite motion path assembled from a bezier literal.
type Curve struct {
	Segments []CurveSegment
}

// curveBuilder accumulates segments while a bezier literal decodes.
// BEZIER_START resets it, so back-to-back literals never share points.
type curveBuilder struct {
	segments []CurveSegment
}

func (b *curveBuilder) start() {
	b.segments = b.segments[:0]
}

func (b *curveBuilder) add(seg CurveSegment) {
	b.segments = append(b.segments, seg)
}

// finish collects the accumulated segments, in production order, into
// an independent curve and clears the accumulator.
func (b *curveBuilder) finish() *Curve {
	c := &Curve{Segments: make([]CurveSegment, len(b.segments))}
	copy(c.Segments, b.segments)
	b.segments = b.segments[:0]
	return c
}
