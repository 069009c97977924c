package telemetry

// Span and attribute names used for instrumentation.
const (
	SpanHandlePosition = "tour.handle_position"
	SpanCatalogLoad    = "catalog.load"
	SpanCatalogParse   = "catalog.parse"

	AttrSession       = "tour.session"
	AttrSelected      = "tour.selected"
	AttrInstructions  = "tour.instructions"
	AttrCatalogSource = "catalog.source"
	AttrCatalogCached = "catalog.cached"
)

// TracerName is the instrumentation scope for every span in this module.
const TracerName = "github.com/abgtour/planttour"
