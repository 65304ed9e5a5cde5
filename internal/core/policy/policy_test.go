package policy

import (
	"testing"

	"github.com/fieldwork/backoffice-api/internal/core/domain"
)

var (
	noun   = domain.Noun{Singular: "report", Plural: "reports"}
	msgs   = domain.NewMessages(domain.LocaleEnglish)
	admin  = domain.Principal{ID: "u1", Role: domain.RoleAdmin, FieldID: "F1"}
	webmas = domain.Principal{ID: "w1", Role: domain.RoleWebMaster}
)

func strPtr(s string) *string { return &s }

func TestCreate_NonWebMasterForcedIntoOwnField(t *testing.T) {
	pl := New(noun, msgs)

	payload := domain.Payload{FieldID: strPtr("F2")}
	if err := pl.Create(admin, &payload); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payload.FieldID == nil || *payload.FieldID != "F1" {
		t.Fatalf("expected field F1, got %v", payload.FieldID)
	}

	payload = domain.Payload{}
	volunteer := domain.Principal{ID: "v", Role: domain.RoleVolunteer, FieldID: "F9"}
	if err := pl.Create(volunteer, &payload); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if *payload.FieldID != "F9" {
		t.Fatalf("expected field F9, got %s", *payload.FieldID)
	}
}

func TestCreate_NonWebMasterWithoutField(t *testing.T) {
	pl := New(noun, msgs)
	payload := domain.Payload{}
	err := pl.Create(domain.Principal{ID: "x", Role: domain.RoleAdmin}, &payload)
	if !domain.IsForbidden(err) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestCreate_WebMasterMustNameField(t *testing.T) {
	pl := New(noun, msgs)

	for _, p := range []domain.Payload{{}, {FieldID: strPtr("  ")}} {
		p := p
		err := pl.Create(webmas, &p)
		if !domain.IsValidation(err) {
			t.Fatalf("expected validation error, got %v", err)
		}
		if err.Error() != "field must not be empty" {
			t.Errorf("unexpected message %q", err.Error())
		}
	}

	payload := domain.Payload{FieldID: strPtr("F7")}
	if err := pl.Create(webmas, &payload); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if *payload.FieldID != "F7" {
		t.Fatalf("web master field must be honoured, got %s", *payload.FieldID)
	}
}

func TestRecord_NotFoundBeforeForbidden(t *testing.T) {
	pl := New(noun, msgs)

	if err := pl.Record(admin, nil); !domain.IsNotFound(err) {
		t.Fatalf("absent record must be not found, got %v", err)
	}
	foreign := &domain.Record{ID: "r", FieldID: "F2"}
	if err := pl.Record(admin, foreign); !domain.IsForbidden(err) {
		t.Fatalf("foreign record must be forbidden, got %v", err)
	}
	if err := pl.Record(webmas, foreign); err != nil {
		t.Fatalf("web master must pass, got %v", err)
	}
	own := &domain.Record{ID: "r", FieldID: "F1"}
	if err := pl.Record(admin, own); err != nil {
		t.Fatalf("own record must pass, got %v", err)
	}
}

func TestUpdate_StripsFieldForNonWebMaster(t *testing.T) {
	pl := New(noun, msgs)

	payload := domain.Payload{FieldID: strPtr("F2")}
	if err := pl.Update(admin, &payload); err != nil {
		t.Fatal(err)
	}
	if payload.FieldID != nil {
		t.Fatal("field must be stripped for admin")
	}

	payload = domain.Payload{FieldID: strPtr("F2")}
	if err := pl.Update(webmas, &payload); err != nil {
		t.Fatal(err)
	}
	if payload.FieldID == nil || *payload.FieldID != "F2" {
		t.Fatal("web master reassignment must be kept")
	}

	payload = domain.Payload{FieldID: strPtr("")}
	if err := pl.Update(webmas, &payload); !domain.IsValidation(err) {
		t.Fatalf("empty reassignment must be rejected, got %v", err)
	}
}

func TestBatch(t *testing.T) {
	pl := New(noun, msgs)
	own1 := &domain.Record{ID: "a", FieldID: "F1"}
	own2 := &domain.Record{ID: "b", FieldID: "F1"}
	foreign := &domain.Record{ID: "c", FieldID: "F2"}

	cases := []struct {
		name  string
		p     domain.Principal
		ids   []string
		found []*domain.Record
		check func(error) bool
	}{
		{"none found", admin, []string{"a"}, nil, domain.IsNotFound},
		{"one missing", admin, []string{"a", "b", "z"}, []*domain.Record{own1, own2}, domain.IsNotFound},
		{"missing wins over foreign", admin, []string{"a", "c", "z"}, []*domain.Record{own1, foreign}, domain.IsNotFound},
		{"one foreign blocks all", admin, []string{"a", "b", "c"}, []*domain.Record{own1, own2, foreign}, domain.IsForbidden},
		{"all own", admin, []string{"a", "b"}, []*domain.Record{own1, own2}, func(err error) bool { return err == nil }},
		{"duplicates collapse", admin, []string{"a", "a"}, []*domain.Record{own1}, func(err error) bool { return err == nil }},
		{"web master cross tenant", webmas, []string{"a", "c"}, []*domain.Record{own1, foreign}, func(err error) bool { return err == nil }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := pl.Batch(tc.p, tc.ids, tc.found)
			if !tc.check(err) {
				t.Fatalf("unexpected result: %v", err)
			}
		})
	}
}

func TestBatch_PluralMessages(t *testing.T) {
	pl := New(noun, msgs)
	err := pl.Batch(admin, []string{"a"}, nil)
	if err.Error() != "reports not found" {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestDistinct(t *testing.T) {
	got := Distinct([]string{"a", " b", "a", "", "b ", "c"})
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("want %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("want %v, got %v", want, got)
		}
	}
}

func TestWebMasterFieldIsTrimmed(t *testing.T) {
	pl := New(noun, msgs)

	created := domain.Payload{FieldID: strPtr("  F1 ")}
	if err := pl.Create(webmas, &created); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if *created.FieldID != "F1" {
		t.Fatalf("expected trimmed field on create, got %q", *created.FieldID)
	}

	updated := domain.Payload{FieldID: strPtr("\tF2\n")}
	if err := pl.Update(webmas, &updated); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if *updated.FieldID != "F2" {
		t.Fatalf("expected trimmed field on update, got %q", *updated.FieldID)
	}
}
