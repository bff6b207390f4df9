package models

// LogRecord is a single document from a tenant's index. Its "id" is the
// keyword cursor written at ingestion (the backend-assigned id when a
// document carries none); all other fields pass through untouched.
type LogRecord map[string]any

// ID returns the backend-assigned identifier, or "" if absent.
func (r LogRecord) ID() string {
	id, _ := r["id"].(string)
	return id
}
