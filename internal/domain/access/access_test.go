package access

import (
	"reflect"
	"sort"
	"testing"
)

func TestAllPermissionsUnique(t *testing.T) {
	seen := map[string]struct{}{}
	for _, perm := range AllPermissions() {
		if _, ok := seen[perm]; ok {
			t.Fatalf("duplicate permission %s", perm)
		}
		seen[perm] = struct{}{}
	}
	if len(seen) == 0 {
		t.Fatal("expected a non-empty catalog")
	}
}

func TestAllPermissionsReturnsCopy(t *testing.T) {
	first := AllPermissions()
	first[0] = "tampered:value"
	if AllPermissions()[0] == "tampered:value" {
		t.Fatal("AllPermissions must not expose the shared slice")
	}
}

func TestNormalizePermissionsShapes(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  []string
	}{
		{name: "string list", input: []any{"clients:view", "clients:view", "leads:edit"}, want: []string{"clients:view", "leads:edit"}},
		{name: "typed string list", input: []string{"a:b", "a:b"}, want: []string{"a:b"}},
		{name: "mixed list drops non strings", input: []any{"clients:view", 3, nil, true}, want: []string{"clients:view"}},
		{name: "json text", input: `["clients:view","finance:view"]`, want: []string{"clients:view", "finance:view"}},
		{name: "json text of map", input: `{"leads":["view","edit"]}`, want: []string{"leads:view", "leads:edit"}},
		{name: "doubly encoded text fails closed", input: `"[\"clients:view\"]"`, want: []string{}},
		{name: "resource map", input: map[string]any{"clients": []any{"view", "edit", "view"}}, want: []string{"clients:view", "clients:edit"}},
		{name: "typed resource map", input: map[string][]string{"roles": {"view"}}, want: []string{"roles:view"}},
		{name: "resource map with typed actions", input: map[string]any{"clients": []string{"view", "edit"}, "leads": []any{"view"}}, want: []string{"clients:view", "clients:edit", "leads:view"}},
		{name: "map with non list value", input: map[string]any{"clients": "view"}, want: []string{}},
		{name: "number", input: 42, want: []string{}},
		{name: "nil", input: nil, want: []string{}},
		{name: "array of non strings", input: []any{1, 2.5, false}, want: []string{}},
		{name: "invalid json text", input: "not json", want: []string{}},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got := NormalizePermissions(tc.input)
			if got == nil {
				t.Fatal("expected non-nil result")
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestNormalizePermissionsIdempotent(t *testing.T) {
	inputs := []any{
		[]any{"clients:view", "clients:view", "leads:create"},
		`["finance:view","finance:view"]`,
		map[string]any{"invoices": []any{"view", "create"}},
	}
	for _, input := range inputs {
		once := NormalizePermissions(input)
		twice := NormalizePermissions(once)
		if !reflect.DeepEqual(once, twice) {
			t.Fatalf("not idempotent for %v: %v vs %v", input, once, twice)
		}
	}
}

func TestNormalizeRaw(t *testing.T) {
	if got := NormalizeRaw([]byte(`{"clients":["view"]}`)); !reflect.DeepEqual(got, []string{"clients:view"}) {
		t.Fatalf("unexpected map result: %v", got)
	}
	if got := NormalizeRaw([]byte(`"[\"clients:view\"]"`)); !reflect.DeepEqual(got, []string{"clients:view"}) {
		t.Fatalf("json column holding encoded text should decode one level: %v", got)
	}
	if got := NormalizeRaw([]byte(`{broken`)); len(got) != 0 {
		t.Fatalf("expected empty for malformed column, got %v", got)
	}
	if got := NormalizeRaw(nil); got == nil || len(got) != 0 {
		t.Fatalf("expected empty list for nil column, got %v", got)
	}
}

func TestEffectiveAdminShortCircuit(t *testing.T) {
	got := Effective(RoleAdmin, nil, nil)
	want := AllPermissions()
	sort.Strings(got)
	sort.Strings(want)
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("admin should hold the full catalog, got %d of %d", len(got), len(want))
	}

	stale := Effective(RoleAdmin, []string{"clients:view"}, []string{"bogus:perm"})
	if len(stale) != len(want) {
		t.Fatalf("stale admin row must still resolve to catalog, got %v", stale)
	}
}

func TestEffectiveUnion(t *testing.T) {
	got := Effective("sales", []string{"clients:view", "leads:view"}, []string{"leads:view", "invoices:create"})
	want := []string{"clients:view", "leads:view", "invoices:create"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestSubjectDefaultsToEmployeeRole(t *testing.T) {
	s := Subject{UserPermissions: []string{"calendar:view"}}
	if got := s.Effective(); !reflect.DeepEqual(got, []string{"calendar:view"}) {
		t.Fatalf("unexpected effective set %v", got)
	}
}

func TestAllowsViewFallback(t *testing.T) {
	if !Allows([]string{"clients:edit"}, ResourceClients, ActionView) {
		t.Fatal("any clients permission should satisfy clients:view")
	}
	if Allows([]string{"leads:view"}, ResourceClients, ActionView) {
		t.Fatal("leads:view must not satisfy clients:view")
	}
	if Allows([]string{"clients:view"}, ResourceClients, ActionEdit) {
		t.Fatal("view must not satisfy edit")
	}
	if Allows([]string{"clientsx:edit"}, ResourceClients, ActionView) {
		t.Fatal("prefix match must include the separator")
	}
	if !Allows([]string{"finance:export"}, ResourceFinance, ActionExport) {
		t.Fatal("exact permission should pass")
	}
}
