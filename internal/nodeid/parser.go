package nodeid

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// segmentRegex matches a single segment of a path, e.g. `name` or `name[1]`.
var segmentRegex = regexp.MustCompile(`^([a-zA-Z0-9_-]+)(?:\[(\d+)\])?$`)

// nameRegex is the accepted form of a node name.
var nameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// ValidName reports whether name can appear as an address segment.
func ValidName(name string) bool {
	return nameRegex.MatchString(name)
}

// Parse creates an Address from its canonical string representation. The
// first segment must not carry an index and every following one must.
func Parse(raw string) (Address, error) {
	if raw == "" {
		return Address{}, fmt.Errorf("address cannot be empty")
	}

	var addr Address
	for i, part := range strings.Split(raw, ".") {
		if part == "" {
			return Address{}, fmt.Errorf("address %q contains an empty segment", raw)
		}

		matches := segmentRegex.FindStringSubmatch(part)
		if matches == nil {
			return Address{}, fmt.Errorf("invalid address segment %q", part)
		}

		segment := RootSegment(matches[1])
		if matches[2] != "" {
			index, err := strconv.Atoi(matches[2])
			if err != nil {
				return Address{}, fmt.Errorf("invalid index in segment %q: %w", part, err)
			}
			segment.Index = index
		}

		switch {
		case i == 0 && segment.HasIndex():
			return Address{}, fmt.Errorf("root segment %q must not have an index", part)
		case i > 0 && !segment.HasIndex():
			return Address{}, fmt.Errorf("segment %q is missing its sibling index", part)
		}
		addr.Path = append(addr.Path, segment)
	}

	return addr, nil
}
