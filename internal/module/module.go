// Package module describes the receiver as a linkable unit: its name and the
// libraries it depends on, split into public dependencies that consumers
// see and private ones used only internally.
package module

import (
	"fmt"
	"strings"
)

// Name is the module's name.
const Name = "UDPReceiver"

// Visibility says whether a dependency is re-exported to consumers.
type Visibility int

const (
	Public Visibility = iota
	Private
)

func (v Visibility) String() string {
	if v == Private {
		return "private"
	}
	return "public"
}

// MarshalText encodes the visibility by name.
func (v Visibility) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// Dependency is one declared library. Role names the capability it stands
// for and Package the part of this repository that provides it.
type Dependency struct {
	Name       string     `json:"name"`
	Visibility Visibility `json:"visibility"`
	Role       string     `json:"role"`
	Package    string     `json:"package"`
}

var dependencies = []Dependency{
	{Name: "Core", Visibility: Public, Role: "core runtime", Package: "internal/angle"},
	{Name: "CoreUObject", Visibility: Public, Role: "object system", Package: "internal/receiver"},
	{Name: "Engine", Visibility: Public, Role: "engine runtime", Package: "internal/timeutil"},
	{Name: "Sockets", Visibility: Public, Role: "low-level sockets", Package: "internal/network"},
	{Name: "Networking", Visibility: Public, Role: "high-level networking", Package: "internal/network"},
	{Name: "Slate", Visibility: Private, Role: "UI toolkit", Package: "internal/api"},
	{Name: "SlateCore", Visibility: Private, Role: "UI toolkit core", Package: "internal/api"},
}

// Dependencies returns every declared dependency, public first, in
// declaration order.
func Dependencies() []Dependency {
	return append([]Dependency(nil), dependencies...)
}

// PublicDependencies returns the names of the public dependencies.
func PublicDependencies() []string { return names(Public) }

// PrivateDependencies returns the names of the private dependencies.
func PrivateDependencies() []string { return names(Private) }

func names(v Visibility) []string {
	var out []string
	for _, d := range dependencies {
		if d.Visibility == v {
			out = append(out, d.Name)
		}
	}
	return out
}

// Validate checks that no dependency is declared twice or with an empty
// name.
func Validate(deps []Dependency) error {
	seen := make(map[string]Visibility, len(deps))
	for _, d := range deps {
		if strings.TrimSpace(d.Name) == "" {
			return fmt.Errorf("dependency with empty name")
		}
		if prev, ok := seen[d.Name]; ok {
			return fmt.Errorf("dependency %s declared twice (%s and %s)", d.Name, prev, d.Visibility)
		}
		seen[d.Name] = d.Visibility
	}
	return nil
}

// Describe renders the descriptor in one line per visibility, e.g. for a
// -version flag.
func Describe() string {
	return fmt.Sprintf("%s\n  public:  %s\n  private: %s",
		Name, strings.Join(PublicDependencies(), ", "), strings.Join(PrivateDependencies(), ", "))
}
