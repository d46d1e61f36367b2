package event

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Fingerprint returns a stable content-addressed key for a (source, payload)
// pair. It deliberately excludes the webhook ID so that identical payloads
// delivered under different IDs share one fingerprint; both the classifier
// cache and ingest deduplication key on it.
func Fingerprint(source string, payload json.RawMessage) string {
	body := struct {
		Source  string          `json:"source"`
		Payload json.RawMessage `json:"payload,omitempty"`
	}{
		Source:  source,
		Payload: payload,
	}

	data, err := json.Marshal(body)
	if err != nil {
		// json.RawMessage only fails to marshal when it holds invalid JSON;
		// hash the raw bytes so malformed payloads still dedupe consistently.
		sum := sha256.Sum256(append([]byte(source+":"), payload...))
		return fmt.Sprintf("%s:%s", source, hex.EncodeToString(sum[:]))
	}

	sum := sha256.Sum256(data)
	return fmt.Sprintf("%s:%s", source, hex.EncodeToString(sum[:]))
}
