package logs

import (
	"strconv"
	"strings"

	"ytbili/internal/logging"
)

// ItemFilter keeps lines tagged with the given job id, in either the console
// (item_id=7) or JSON ("item_id":7) encoding.
func ItemFilter(id int64) LineFilter {
	value := strconv.FormatInt(id, 10)
	console := logging.FieldItemID + "=" + value
	jsonKey := `"` + logging.FieldItemID + `":` + value
	return func(line string) bool {
		if idx := strings.Index(line, jsonKey); idx >= 0 {
			return boundary(line, idx+len(jsonKey))
		}
		for _, field := range strings.Fields(line) {
			if field == console {
				return true
			}
		}
		return false
	}
}

// ContainsFilter keeps lines containing needle, ignoring case.
func ContainsFilter(needle string) LineFilter {
	needle = strings.ToLower(strings.TrimSpace(needle))
	if needle == "" {
		return nil
	}
	return func(line string) bool {
		return strings.Contains(strings.ToLower(line), needle)
	}
}

// All combines filters; nil entries are skipped.
func All(filters ...LineFilter) LineFilter {
	active := make([]LineFilter, 0, len(filters))
	for _, f := range filters {
		if f != nil {
			active = append(active, f)
		}
	}
	if len(active) == 0 {
		return nil
	}
	return func(line string) bool {
		for _, f := range active {
			if !f(line) {
				return false
			}
		}
		return true
	}
}

func boundary(line string, idx int) bool {
	if idx >= len(line) {
		return true
	}
	c := line[idx]
	return c < '0' || c > '9'
}
