package tail

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/logtrail/pkg/models"
)

var errNoApplication = errors.New("notification carries no application id")

// decodeNotification extracts the target application and the record from an
// ingestion notification. The payload is either an envelope whose only keys
// are "applicationId" and an object "record", or a bare record. A bare record
// that happens to carry a "record" field stays whole. hint is the id carried
// outside the payload (channel suffix or message key); an id inside the
// envelope wins over it.
func decodeNotification(hint string, payload []byte) (uuid.UUID, models.LogRecord, error) {
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()

	var body map[string]any
	if err := dec.Decode(&body); err != nil {
		return uuid.Nil, nil, fmt.Errorf("decode notification: %w", err)
	}
	if body == nil {
		return uuid.Nil, nil, errors.New("empty notification")
	}

	idText := strings.TrimSpace(hint)
	rec := models.LogRecord(body)

	if inner, ok := envelopeRecord(body); ok {
		rec = models.LogRecord(inner)
		if s, ok := body["applicationId"].(string); ok && s != "" {
			idText = s
		}
	}

	if idText == "" {
		return uuid.Nil, nil, errNoApplication
	}
	id, err := uuid.Parse(idText)
	if err != nil {
		return uuid.Nil, nil, fmt.Errorf("invalid application id %q: %w", idText, err)
	}
	return id, rec, nil
}

// envelopeRecord returns the wrapped record when body is an envelope.
func envelopeRecord(body map[string]any) (map[string]any, bool) {
	inner, ok := body["record"].(map[string]any)
	if !ok {
		return nil, false
	}
	for k := range body {
		if k != "record" && k != "applicationId" {
			return nil, false
		}
	}
	return inner, true
}
