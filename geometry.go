package transcode

import "math"

// geometry is the output of format negotiation: the dimensions to
// request from the encoder, the rotation tag for the muxed output, and
// the transform adjusted to keep rendered content filling the frame.
type geometry struct {
	encoderWidth  int
	encoderHeight int

	// outputRotationDegrees is 90 when the encoder dimensions were
	// swapped so that width >= height, else 0.
	outputRotationDegrees int

	// swapped records whether the swap occurred. It decides which
	// granted encoder dimension controls fallback comparison.
	swapped bool

	transform Matrix
}

// deriveGeometry computes the encoder request geometry from the input
// format and the transform request. Performed once, at pipeline
// construction.
func deriveGeometry(inputFormat *Format, request *TransformRequest) geometry {
	// The decoder applies the rotation hint, so a 90/270 tag swaps the
	// decoded dimensions.
	decodedWidth, decodedHeight := inputFormat.Width, inputFormat.Height
	if inputFormat.RotationDegrees%180 != 0 {
		decodedWidth, decodedHeight = decodedHeight, decodedWidth
	}

	transform := request.transform()
	outputWidth, outputHeight := decodedWidth, decodedHeight
	if !transform.IsIdentity() {
		// The shader pass works in normalized device coordinates, a
		// square from -1 to 1 on both axes. Scale by the decoded
		// aspect ratio so rotations operate on a true rectangle, then
		// scale back.
		aspect := float64(decodedWidth) / float64(decodedHeight)
		transform = transform.PreScale(aspect, 1)
		transform = transform.PostScale(1/aspect, 1)

		corners := [4]Point{{-1, -1}, {-1, 1}, {1, -1}, {1, 1}}
		xMin, xMax := math.Inf(1), math.Inf(-1)
		yMin, yMax := math.Inf(1), math.Inf(-1)
		for _, c := range corners {
			p := transform.TransformPoint(c)
			xMin = math.Min(xMin, p.X)
			xMax = math.Max(xMax, p.X)
			yMin = math.Min(yMin, p.Y)
			yMax = math.Max(yMax, p.Y)
		}

		// Recenter and rescale so the mapped content exactly fills the
		// normalized square again; the scale factors give the new
		// output dimensions.
		xCenter := (xMax + xMin) / 2
		yCenter := (yMax + yMin) / 2
		transform = transform.PostTranslate(-xCenter, -yCenter)

		const ndcWidthAndHeight = 2.0
		xScale := (xMax - xMin) / ndcWidthAndHeight
		yScale := (yMax - yMin) / ndcWidthAndHeight
		transform = transform.PostScale(1/xScale, 1/yScale)
		outputWidth = int(math.Round(float64(decodedWidth) * xScale))
		outputHeight = int(math.Round(float64(decodedHeight) * yScale))
	}

	// Retarget to the requested output height, preserving aspect ratio.
	if request.OutputHeight != 0 && request.OutputHeight != outputHeight {
		outputWidth = int(math.Round(float64(request.OutputHeight) * float64(outputWidth) / float64(outputHeight)))
		outputHeight = request.OutputHeight
	}

	// Encoders commonly support higher maximum widths than heights.
	// Encode rotated so that width >= height and tag the output with
	// the compensating rotation.
	g := geometry{transform: transform}
	if outputHeight > outputWidth {
		g.swapped = true
		g.outputRotationDegrees = 90
		g.encoderWidth = outputHeight
		g.encoderHeight = outputWidth
		g.transform = g.transform.PostRotateDegrees(90)
	} else {
		g.encoderWidth = outputWidth
		g.encoderHeight = outputHeight
	}
	return g
}

// fallbackTransformRequest reconciles the transform request with the
// format the encoder actually granted. The controlling dimension is the
// granted height when the encoder dimensions were swapped, else the
// granted width. The original request is returned unchanged when the
// grant matches.
func fallbackTransformRequest(original *TransformRequest, swapped bool, requested, granted *Format) *TransformRequest {
	requestedDim, grantedDim := requested.Width, granted.Width
	if swapped {
		requestedDim, grantedDim = requested.Height, granted.Height
	}
	if requested.MimeType == granted.MimeType && requestedDim == grantedDim {
		return original
	}
	fallback := *original
	fallback.VideoMimeType = granted.MimeType
	fallback.OutputHeight = grantedDim
	return &fallback
}
