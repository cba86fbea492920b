package llm

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/kaptinlin/jsonrepair"
	"github.com/rs/zerolog/log"
)

// RepairStats tracks what it took to turn a model response into valid JSON.
type RepairStats struct {
	OriginalBytes    int           `json:"original_bytes"`
	RepairedBytes    int           `json:"repaired_bytes"`
	RepairTime       time.Duration `json:"repair_time"`
	RepairStrategies []string      `json:"repair_strategies"`
	WasRepaired      bool          `json:"was_repaired"`
}

// ExtractJSON pulls the JSON payload out of a raw model response. Models
// routinely wrap JSON in markdown fences or pad it with prose, so this
// strips fences first and then falls back to the outermost brace pair.
func ExtractJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if idx := strings.Index(s, "```json"); idx >= 0 {
		s = s[idx+len("```json"):]
		if end := strings.Index(s, "```"); end >= 0 {
			s = s[:end]
		}
		return strings.TrimSpace(s)
	}
	if idx := strings.Index(s, "```"); idx >= 0 {
		s = s[idx+len("```"):]
		if end := strings.Index(s, "```"); end >= 0 {
			s = s[:end]
		}
		return strings.TrimSpace(s)
	}

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start >= 0 && end > start {
		return s[start : end+1]
	}
	return s
}

// RepairJSON attempts to repair malformed JSON. Cheap string fixes run
// first, the jsonrepair library is the heavyweight fallback.
func RepairJSON(raw string) (string, RepairStats, error) {
	start := time.Now()
	stats := RepairStats{OriginalBytes: len(raw)}

	var probe interface{}
	if json.Unmarshal([]byte(raw), &probe) == nil {
		stats.RepairedBytes = len(raw)
		stats.RepairTime = time.Since(start)
		return raw, stats, nil
	}

	stats.WasRepaired = true
	repaired := raw

	if strings.Contains(repaired, ",}") || strings.Contains(repaired, ",]") {
		repaired = strings.ReplaceAll(repaired, ",}", "}")
		repaired = strings.ReplaceAll(repaired, ",]", "]")
		stats.RepairStrategies = append(stats.RepairStrategies, "trailing_commas")
	}

	if fixed := completeJSON(repaired); fixed != repaired {
		repaired = fixed
		stats.RepairStrategies = append(stats.RepairStrategies, "completion")
	}

	if json.Unmarshal([]byte(repaired), &probe) != nil {
		libFixed, err := jsonrepair.JSONRepair(repaired)
		if err != nil {
			stats.RepairTime = time.Since(start)
			return raw, stats, err
		}
		repaired = libFixed
		stats.RepairStrategies = append(stats.RepairStrategies, "jsonrepair_library")
	}

	stats.RepairedBytes = len(repaired)
	stats.RepairTime = time.Since(start)

	if err := json.Unmarshal([]byte(repaired), &probe); err != nil {
		return raw, stats, err
	}

	log.Debug().
		Strs("strategies", stats.RepairStrategies).
		Int("original_bytes", stats.OriginalBytes).
		Int("repaired_bytes", stats.RepairedBytes).
		Msg("repaired malformed model JSON")
	return repaired, stats, nil
}

// DecodeModelJSON extracts, repairs if necessary, and unmarshals a model
// response into target.
func DecodeModelJSON(raw string, target interface{}) (RepairStats, error) {
	payload := ExtractJSON(raw)
	repaired, stats, err := RepairJSON(payload)
	if err != nil {
		return stats, err
	}
	return stats, json.Unmarshal([]byte(repaired), target)
}

// completeJSON closes unterminated objects and arrays left behind when a
// response is truncated mid-generation.
func completeJSON(s string) string {
	var stack []byte
	inString := false
	escaped := false

	for i := 0; i < len(s); i++ {
		c := s[i]
		if escaped {
			escaped = false
			continue
		}
		switch {
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{' || c == '[':
			stack = append(stack, c)
		case c == '}' || c == ']':
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		}
	}

	if inString {
		s += `"`
	}
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i] == '{' {
			s += "}"
		} else {
			s += "]"
		}
	}
	return s
}
