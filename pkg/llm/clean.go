package llm

import "strings"

// CleanJSONResponse strips markdown code fences and surrounding prose from
// a model response, slicing down to the outermost JSON object or array.
// Models occasionally wrap JSON in ```json fences even when asked not to.
func CleanJSONResponse(response string) string {
	response = strings.ReplaceAll(response, "```json", "")
	response = strings.ReplaceAll(response, "```JSON", "")
	response = strings.ReplaceAll(response, "```", "")
	response = strings.TrimSpace(response)

	objStart := strings.Index(response, "{")
	arrStart := strings.Index(response, "[")

	if objStart != -1 && (arrStart == -1 || objStart < arrStart) {
		if end := findMatching(response, objStart, '{', '}'); end != -1 {
			response = response[objStart : end+1]
		}
	} else if arrStart != -1 {
		if end := findMatching(response, arrStart, '[', ']'); end != -1 {
			response = response[arrStart : end+1]
		}
	}

	return strings.TrimSpace(response)
}

// findMatching returns the index of the closing delimiter matching the
// opener at start, skipping over string literals.
func findMatching(s string, start int, open, close byte) int {
	if start >= len(s) || s[start] != open {
		return -1
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(s); i++ {
		ch := s[i]

		if escaped {
			escaped = false
			continue
		}
		if ch == '\\' && inString {
			escaped = true
			continue
		}
		if ch == '"' {
			inString = !inString
			continue
		}
		if inString {
			continue
		}

		switch ch {
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return i
			}
		}
	}

	return -1
}
