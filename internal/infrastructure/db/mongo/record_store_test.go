package mongo

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/fieldwork/backoffice-api/internal/core/domain"
	"github.com/fieldwork/backoffice-api/internal/core/ports"
)

func TestBuildFilter_Scopes(t *testing.T) {
	active := buildFilter(ports.Filter{})
	if v, ok := active["deleted"]; !ok || v != nil {
		t.Fatalf("active scope must match deleted == null, got %v", active)
	}

	all := buildFilter(ports.Filter{Scope: ports.ScopeAll, IDs: []string{"a", "b"}})
	if _, ok := all["deleted"]; ok {
		t.Fatal("full scope must not constrain deleted")
	}
	in := all["_id"].(bson.M)["$in"].([]string)
	if len(in) != 2 {
		t.Fatalf("unexpected ids %v", in)
	}
}

func TestBuildFilter_SearchAndTerms(t *testing.T) {
	f := buildFilter(ports.Filter{
		FieldID:      "F1",
		Search:       "a.b",
		SearchFields: []string{"title", "text"},
		Terms:        []ports.Term{{Field: "status", Value: "open"}},
	})
	if f["field_id"] != "F1" {
		t.Fatalf("missing field filter: %v", f)
	}
	and := f["$and"].([]bson.M)
	if len(and) != 2 {
		t.Fatalf("expected search and term clauses, got %v", and)
	}
	or := and[0]["$or"].([]bson.M)
	re := or[0]["data.title"].(primitive.Regex)
	if re.Pattern != `a\.b` || re.Options != "i" {
		t.Fatalf("search must be a quoted case-insensitive regex, got %+v", re)
	}
	if _, ok := and[1]["data.status"]; !ok {
		t.Fatalf("term must target data.status, got %v", and[1])
	}
}

func TestBuildSort(t *testing.T) {
	if buildSort(ports.Order{}) != nil {
		t.Fatal("empty order must not sort")
	}
	s := buildSort(ports.Order{Field: ports.OrderCreatedAt, Desc: true})
	if s[0].Key != "created_at" || s[0].Value != -1 || s[1].Key != "_id" {
		t.Fatalf("unexpected sort %v", s)
	}
	if buildSort(ports.Order{Field: "title"})[0].Key != "data.title" {
		t.Fatal("attributes sort under data")
	}
}

func TestBuildUpdate(t *testing.T) {
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	field := "F9"
	set := buildUpdate(ports.Mutation{
		FieldID:    &field,
		Attributes: map[string]any{"title": "x"},
		Deleted:    ports.DeletedMark,
		At:         at,
	})["$set"].(bson.M)

	if set["field_id"] != "F9" || set["data.title"] != "x" {
		t.Fatalf("unexpected $set %v", set)
	}
	if !set["deleted"].(time.Time).Equal(at) || !set["updated_at"].(time.Time).Equal(at) {
		t.Fatalf("timestamps not set: %v", set)
	}

	restore := buildUpdate(ports.Mutation{Deleted: ports.DeletedClear, At: at})["$set"].(bson.M)
	if v, ok := restore["deleted"]; !ok || v != nil {
		t.Fatalf("restore must null deleted, got %v", restore)
	}
	keep := buildUpdate(ports.Mutation{At: at})["$set"].(bson.M)
	if _, ok := keep["deleted"]; ok {
		t.Fatal("plain update must not touch deleted")
	}
}

func TestDocRoundTrip(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Millisecond)
	rec := &domain.Record{ID: "id1", FieldID: "F1", CreatedAt: now, UpdatedAt: now, Attributes: map[string]any{"title": "t"}}
	back := toDoc(rec).toRecord()
	if back.ID != "id1" || back.FieldID != "F1" || back.Attributes["title"] != "t" || back.Deleted != nil {
		t.Fatalf("unexpected record %+v", back)
	}
}
