package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// extractJSON pulls the first JSON object out of a model reply. Models often
// wrap the payload in prose or markdown fences despite instructions.
func extractJSON(reply string) (string, error) {
	reply = strings.TrimSpace(reply)

	if strings.HasPrefix(reply, "```") {
		reply = strings.TrimPrefix(reply, "```json")
		reply = strings.TrimPrefix(reply, "```")
		if i := strings.Index(reply, "```"); i >= 0 {
			reply = reply[:i]
		}
		reply = strings.TrimSpace(reply)
	}

	start := strings.Index(reply, "{")
	end := strings.LastIndex(reply, "}")
	if start < 0 || end <= start {
		return "", fmt.Errorf("%w: no JSON object found", ErrMalformedResponse)
	}

	return reply[start : end+1], nil
}

// decodeInto parses the JSON object inside reply into out.
func decodeInto(reply string, out any) error {
	payload, err := extractJSON(reply)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(payload), out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}
