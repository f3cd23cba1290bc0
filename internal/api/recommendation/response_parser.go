package recommendation

import (
	"fmt"
	"strings"

	"github.com/FACorreiaa/go-poi-recommender/internal/types"
)

// The reasoning service is asked for a bare JSON object, but models
// still wrap output in markdown fences or prose. Extraction lives here,
// in one place, instead of ad hoc brace hunting in business logic.

// cleanResponse strips markdown code fences and surrounding whitespace.
func cleanResponse(response string) string {
	response = strings.TrimSpace(response)

	if strings.HasPrefix(response, "```json") {
		response = strings.TrimPrefix(response, "```json")
	} else if strings.HasPrefix(response, "```") {
		response = strings.TrimPrefix(response, "```")
	}
	if strings.HasSuffix(response, "```") {
		response = strings.TrimSuffix(response, "```")
	}

	return strings.TrimSpace(response)
}

// ExtractJSONObject returns the first complete top-level JSON object
// embedded in the response. Brace counting is string- and escape-aware,
// so braces inside string values never unbalance the scan.
func ExtractJSONObject(response string) (string, error) {
	response = cleanResponse(response)

	start := strings.Index(response, "{")
	if start == -1 {
		return "", fmt.Errorf("%w: no JSON object found in response", types.ErrMalformedResponse)
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(response); i++ {
		c := response[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return response[start : i+1], nil
				}
			}
		}
	}

	return "", fmt.Errorf("%w: unbalanced JSON object in response", types.ErrMalformedResponse)
}
