package module

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDependencySets(t *testing.T) {
	wantPublic := []string{"Core", "CoreUObject", "Engine", "Sockets", "Networking"}
	wantPrivate := []string{"Slate", "SlateCore"}

	if diff := cmp.Diff(wantPublic, PublicDependencies()); diff != "" {
		t.Errorf("public dependencies mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(wantPrivate, PrivateDependencies()); diff != "" {
		t.Errorf("private dependencies mismatch (-want +got):\n%s", diff)
	}
	if got := len(Dependencies()); got != 7 {
		t.Errorf("len(Dependencies()) = %d, want 7", got)
	}
}

func TestDependenciesIsACopy(t *testing.T) {
	deps := Dependencies()
	deps[0].Name = "Mutated"
	if Dependencies()[0].Name != "Core" {
		t.Error("callers must not be able to change the declared set")
	}
}

func TestValidate(t *testing.T) {
	if err := Validate(Dependencies()); err != nil {
		t.Fatalf("declared set is invalid: %v", err)
	}

	dup := append(Dependencies(), Dependency{Name: "Core", Visibility: Private})
	if err := Validate(dup); err == nil {
		t.Error("duplicate dependency should be rejected")
	}
	if err := Validate([]Dependency{{Name: " "}}); err == nil {
		t.Error("empty name should be rejected")
	}
}

func TestEveryDependencyHasAProvider(t *testing.T) {
	for _, d := range Dependencies() {
		if d.Role == "" || !strings.HasPrefix(d.Package, "internal/") {
			t.Errorf("%s: role %q package %q", d.Name, d.Role, d.Package)
		}
	}
}

func TestDescribe(t *testing.T) {
	got := Describe()
	for _, want := range []string{Name, "public:  Core, CoreUObject, Engine, Sockets, Networking", "private: Slate, SlateCore"} {
		if !strings.Contains(got, want) {
			t.Errorf("Describe() missing %q:\n%s", want, got)
		}
	}
	if Private.String() != "private" || Public.String() != "public" {
		t.Error("Visibility.String")
	}
}

func TestVisibilityJSON(t *testing.T) {
	b, err := json.Marshal(Dependencies()[5])
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), `"visibility":"private"`) {
		t.Errorf("encoded = %s", b)
	}
}
