package logging

// Standardized attribute keys. Keeping these in one place makes log output
// greppable across the cache tiers and the export engine.
const (
	// FieldComponent identifies the emitting subsystem (e.g. "diskcache").
	FieldComponent = "component"
	// FieldEventType categorizes the event for downstream filtering.
	FieldEventType = "event_type"
	// FieldErrorHint suggests the next step when an operation degrades.
	FieldErrorHint = "error_hint"
	// FieldImpact states the user-facing consequence of a warning.
	FieldImpact = "impact"
	// FieldCacheTier names the cache tier involved (raw, scaled, disk).
	FieldCacheTier = "cache_tier"
	// FieldRunID correlates log lines belonging to one export run.
	FieldRunID = "run_id"
	// FieldSourcePath is the catalog source file a log line refers to.
	FieldSourcePath = "source_path"
	// FieldWord is the logical catalog group of a source item.
	FieldWord = "word"
)
