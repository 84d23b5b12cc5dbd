package lei

import (
	"errors"
	"net/http"
	"strings"

	"github.com/buger/jsonparser"
)

// parseResponse classifies an upstream response from its status and body.
func parseResponse(status int, body []byte) Result {
	switch {
	case status == http.StatusOK:
		return parseRecords(body)
	case status == http.StatusBadRequest:
		return rejected(rejectionMessage(body))
	default:
		return unavailable("unexpected status " + http.StatusText(status))
	}
}

// parseRecords reads the legal name of the first record. GLEIF encodes text
// nodes under "$"; some mirrors use "value".
func parseRecords(body []byte) Result {
	first, dataType, _, err := jsonparser.Get(body, "[0]")
	if err != nil {
		if errors.Is(err, jsonparser.KeyPathNotFoundError) && isArray(body) {
			return notFound()
		}
		return unavailable("malformed lookup response")
	}
	if dataType != jsonparser.Object {
		return unavailable("malformed lookup record")
	}

	for _, key := range []string{"$", "value"} {
		name, err := jsonparser.GetString(first, "Entity", "LegalName", key)
		if err == nil && strings.TrimSpace(name) != "" {
			return resolved(name)
		}
	}
	return unavailable("lookup record has no legal name")
}

func isArray(body []byte) bool {
	_, dataType, _, err := jsonparser.Get(body)
	return err == nil && dataType == jsonparser.Array
}

func rejectionMessage(body []byte) string {
	if msg, err := jsonparser.GetString(body, "message"); err == nil && msg != "" {
		return msg
	}
	return http.StatusText(http.StatusBadRequest)
}
