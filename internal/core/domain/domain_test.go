package domain

import (
	"errors"
	"testing"
)

func TestRole_AtLeast(t *testing.T) {
	cases := []struct {
		role Role
		min  Role
		want bool
	}{
		{RoleVolunteer, RoleVolunteer, true},
		{RoleVolunteer, RoleAdmin, false},
		{RoleAdmin, RoleVolunteer, true},
		{RoleWebMaster, RoleAdmin, true},
		{RoleAdmin, RoleWebMaster, false},
		{Role("GUEST"), RoleVolunteer, false},
	}
	for _, tc := range cases {
		if got := tc.role.AtLeast(tc.min); got != tc.want {
			t.Errorf("%s.AtLeast(%s): want %v, got %v", tc.role, tc.min, tc.want, got)
		}
	}
}

func TestParseRole(t *testing.T) {
	r, ok := ParseRole(" web_master ")
	if !ok || r != RoleWebMaster {
		t.Fatalf("expected WEB_MASTER, got %q ok=%v", r, ok)
	}
	if _, ok := ParseRole("owner"); ok {
		t.Fatal("unknown role must not parse")
	}
}

func TestTotalPages(t *testing.T) {
	cases := []struct {
		total   int64
		perPage int
		want    int
	}{
		{0, 10, 0},
		{1, 10, 1},
		{10, 10, 1},
		{11, 10, 2},
		{25, 5, 5},
		{26, 5, 6},
	}
	for _, tc := range cases {
		if got := TotalPages(tc.total, tc.perPage); got != tc.want {
			t.Errorf("TotalPages(%d, %d): want %d, got %d", tc.total, tc.perPage, tc.want, got)
		}
	}
}

func TestListQuery_Normalize(t *testing.T) {
	q := ListQuery{Page: 0, ItemsPerPage: 0}.Normalize()
	if q.Page != 1 || q.ItemsPerPage != DefaultItemsPerPage || q.SortDirection != SortAsc {
		t.Fatalf("unexpected defaults: %+v", q)
	}
	q = ListQuery{Page: 3, ItemsPerPage: 999, SortDirection: SortDesc}.Normalize()
	if q.Page != 3 || q.ItemsPerPage != MaxItemsPerPage || q.SortDirection != SortDesc {
		t.Fatalf("unexpected normalisation: %+v", q)
	}
}

func TestMessages_GenderAndLocale(t *testing.T) {
	report := Noun{Singular: "relatório", Plural: "relatórios"}
	church := Noun{Singular: "igreja", Plural: "igrejas", Feminine: true}

	pt := NewMessages(LocalePortuguese)
	if got := pt.NotFound(report).Error(); got != "relatório não encontrado" {
		t.Errorf("unexpected message %q", got)
	}
	if got := pt.NotFoundMany(church).Error(); got != "igrejas não encontradas" {
		t.Errorf("unexpected message %q", got)
	}
	if got := pt.Forbidden(church).Error(); got != "você não tem permissão para alterar esta igreja" {
		t.Errorf("unexpected message %q", got)
	}

	en := NewMessages("fr")
	if en.Locale() != LocaleEnglish {
		t.Fatalf("unknown locale must fall back to english, got %q", en.Locale())
	}
	if got := en.NotFound(Noun{Singular: "announcement"}).Error(); got != "announcement not found" {
		t.Errorf("unexpected message %q", got)
	}
	if got := en.SearchParity().Error(); got != "the search query must specify the same number of values as fields" {
		t.Errorf("unexpected message %q", got)
	}
}

func TestError_Kinds(t *testing.T) {
	m := NewMessages(LocaleEnglish)
	n := Noun{Singular: "offer", Plural: "offers"}

	if err := m.NotFoundMany(n); !errors.Is(err, ErrNotFound) || IsForbidden(err) {
		t.Errorf("NotFoundMany must be a not-found error")
	}
	if err := m.ForbiddenMany(n); !IsForbidden(err) || IsNotFound(err) {
		t.Errorf("ForbiddenMany must be a forbidden error")
	}
	if err := m.MissingField(); !IsValidation(err) {
		t.Errorf("MissingField must be a validation error")
	}
}

func TestRecord_CloneIsIndependent(t *testing.T) {
	r := &Record{ID: "1", Attributes: map[string]any{"title": "a"}}
	c := r.Clone()
	c.Attributes["title"] = "b"
	if r.Attributes["title"] != "a" {
		t.Fatal("clone must not share attributes")
	}
}
