package config

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// MarkerOptions is a set of margin layers.
type MarkerOptions uint32

const (
	MemberDeclaration MarkerOptions = 1 << iota
	TypeDeclaration
	MethodDeclaration
	LongMemberDeclaration
	RegionDirective
	SymbolReference

	None MarkerOptions = 0

	// MemberMarginMask is every layer drawn by the margin.
	MemberMarginMask = MemberDeclaration | TypeDeclaration | MethodDeclaration |
		LongMemberDeclaration | RegionDirective | SymbolReference
)

var markerNames = []struct {
	name string
	flag MarkerOptions
}{
	{"member", MemberDeclaration},
	{"type", TypeDeclaration},
	{"method", MethodDeclaration},
	{"long-member", LongMemberDeclaration},
	{"region", RegionDirective},
	{"reference", SymbolReference},
}

// Contains reports whether every flag in mask is set.
func (o MarkerOptions) Contains(mask MarkerOptions) bool {
	return o&mask == mask
}

// Intersects reports whether any flag in mask is set.
func (o MarkerOptions) Intersects(mask MarkerOptions) bool {
	return o&mask != 0
}

// Names returns the configuration names of the set flags.
func (o MarkerOptions) Names() []string {
	var names []string
	for _, m := range markerNames {
		if o.Contains(m.flag) {
			names = append(names, m.name)
		}
	}
	return names
}

func (o MarkerOptions) String() string {
	if o == None {
		return "none"
	}
	return strings.Join(o.Names(), ",")
}

// ParseMarkerOptions parses flag names such as "member" or "long-member".
// "all" selects every layer and "none" clears the set.
func ParseMarkerOptions(names []string) (MarkerOptions, error) {
	var o MarkerOptions
	for _, raw := range names {
		name := strings.ToLower(strings.TrimSpace(raw))
		switch name {
		case "":
			continue
		case "all":
			o |= MemberMarginMask
			continue
		case "none":
			o = None
			continue
		}
		found := false
		for _, m := range markerNames {
			if m.name == name {
				o |= m.flag
				found = true
				break
			}
		}
		if !found {
			return None, fmt.Errorf("unknown marker %q", raw)
		}
	}
	return o, nil
}

// UnmarshalYAML decodes either a list of names or a comma-separated string.
func (o *MarkerOptions) UnmarshalYAML(value *yaml.Node) error {
	var names []string
	switch value.Kind {
	case yaml.SequenceNode:
		if err := value.Decode(&names); err != nil {
			return err
		}
	case yaml.ScalarNode:
		names = strings.Split(value.Value, ",")
	default:
		return fmt.Errorf("markers: expected a list or a string at line %d", value.Line)
	}
	parsed, err := ParseMarkerOptions(names)
	if err != nil {
		return fmt.Errorf("markers: %w", err)
	}
	*o = parsed
	return nil
}

// MarshalYAML encodes the set as a list of names.
func (o MarkerOptions) MarshalYAML() (any, error) {
	return o.Names(), nil
}
