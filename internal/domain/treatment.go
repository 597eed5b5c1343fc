package domain

// TreatmentKind identifies the type of a treatment event.
type TreatmentKind string

// Treatment kinds as produced by the connectors.
const (
	TreatmentInsulinBolus      TreatmentKind = "insulin-bolus"
	TreatmentInsulinCorrection TreatmentKind = "insulin-correction"
	TreatmentCarbs             TreatmentKind = "carbs"
	TreatmentGlucoseCheck      TreatmentKind = "glucose-check"
	TreatmentNote              TreatmentKind = "note"
)

// TreatmentEvent represents a discrete treatment record: an insulin dose,
// a carbohydrate entry, a manual glucose check, or a note.
// Corresponds to treatments table in PostgreSQL.
type TreatmentEvent struct {
	ID          string        `json:"id"`        // stable event identifier
	TimestampMs int64         `json:"timestamp"` // Unix timestamp in milliseconds
	Amount      float64       `json:"amount"`    // units of insulin or grams of carbs, 0 for non-dose kinds
	Kind        TreatmentKind `json:"kind"`
}

// IsInsulin reports whether the event delivers insulin.
func (t *TreatmentEvent) IsInsulin() bool {
	return t.Kind == TreatmentInsulinBolus || t.Kind == TreatmentInsulinCorrection
}

// IsCarb reports whether the event is a carbohydrate entry.
func (t *TreatmentEvent) IsCarb() bool {
	return t.Kind == TreatmentCarbs
}
