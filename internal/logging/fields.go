package logging

const (
	// FieldComponent names the emitting subsystem.
	FieldComponent = "component"
	// FieldEventType is a stable machine-readable event name.
	FieldEventType = "event_type"
	// FieldErrorHint tells the operator what to try next.
	FieldErrorHint = "error_hint"
	// FieldImpact is the user-facing consequence of a warning.
	FieldImpact = "impact"
	// FieldDecisionType groups decision logs (match, commit, navigate).
	FieldDecisionType = "decision_type"
	// FieldNovel is the library title a log line is about.
	FieldNovel = "novel"
	// FieldNovelID is the library identifier a log line is about.
	FieldNovelID = "novel_id"
	// FieldWindowTitle is the raw window title under recognition.
	FieldWindowTitle = "window_title"
	// FieldAlert flags anomalies that should stand out.
	FieldAlert = "alert"
)
