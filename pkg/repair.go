package leptons

import (
	"fmt"
	"sort"
	"strings"
)

// FlagColumns lists the boolean columns of an event.
func FlagColumns(event *Event) []string {
	names := make([]string, 0, len(event.Flags))
	for name := range event.Flags {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RepairFlags adds every listed boolean column the event lacks, filled
// with false and as long as its collection. Older productions miss some
// id flags; any other kind of missing column cannot be repaired. A listed
// name stored as a non boolean column is logged and left untouched.
func RepairFlags(event *Event, columns []string) []string {
	var added []string
	for _, column := range columns {
		if _, ok := event.Flags[column]; ok {
			continue
		}
		_, isFloat := event.Floats[column]
		_, isInt := event.Ints[column]
		if isFloat || isInt {
			logger.Error(fmt.Sprintf("Event %d: column %s is not boolean", event.ID, column))
			continue
		}
		collection, _, found := strings.Cut(column, "_")
		n := 0
		if found {
			if length, err := event.Len(collection); err == nil {
				n = length
			}
		}
		if event.Flags == nil {
			event.Flags = make(map[string][]bool)
		}
		event.Flags[column] = make([]bool, n)
		added = append(added, column)
	}
	return added
}
