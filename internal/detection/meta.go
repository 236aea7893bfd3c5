package detection

// Metadata keys written by the detection steps.
const (
	MetaContourMinX = "contour_min_x"
	MetaContourMinY = "contour_min_y"
	MetaContourMaxX = "contour_max_x"
	MetaContourMaxY = "contour_max_y"
	MetaPixelCount  = "pixel_count"
	MetaRadius      = "radius"
	MetaCircularity = "circularity"
	MetaAspectRatio = "aspect_ratio"

	MetaIsCircle   = "is_circle"
	MetaIsWhite    = "is_white"
	MetaBrightness = "brightness"
	MetaChroma     = "chroma"

	MetaOCRText       = "ocr_text"
	MetaOCRConfidence = "ocr_confidence"
)
