package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/fieldwork/backoffice-api/internal/core/domain"
	"github.com/fieldwork/backoffice-api/internal/core/ports"
)

// recordDoc is the stored shape of every resource document. Resource
// attributes live under data so they can never shadow lifecycle fields.
type recordDoc struct {
	ID        string     `bson:"_id"`
	FieldID   string     `bson:"field_id"`
	Deleted   *time.Time `bson:"deleted"`
	CreatedAt time.Time  `bson:"created_at"`
	UpdatedAt time.Time  `bson:"updated_at"`
	Data      bson.M     `bson:"data"`
}

func toDoc(r *domain.Record) recordDoc {
	data := bson.M{}
	for k, v := range r.Attributes {
		data[k] = v
	}
	return recordDoc{
		ID:        r.ID,
		FieldID:   r.FieldID,
		Deleted:   r.Deleted,
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
		Data:      data,
	}
}

func (d recordDoc) toRecord() *domain.Record {
	attrs := make(map[string]any, len(d.Data))
	for k, v := range d.Data {
		attrs[k] = v
	}
	return &domain.Record{
		ID:         d.ID,
		FieldID:    d.FieldID,
		Deleted:    d.Deleted,
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
		Attributes: attrs,
	}
}

// Provider hands out one RecordStore per collection of a database.
type Provider struct {
	client *mongo.Client
	db     *mongo.Database
}

func NewProvider(client *mongo.Client, db *mongo.Database) *Provider {
	return &Provider{client: client, db: db}
}

func (p *Provider) Store(collection string) ports.RecordStore {
	return &RecordStore{client: p.client, col: p.db.Collection(collection)}
}

func (p *Provider) Ping(ctx context.Context) error {
	return p.client.Ping(ctx, readpref.Primary())
}

// EnsureIndexes creates the lookup indexes every resource collection needs.
func (p *Provider) EnsureIndexes(ctx context.Context, collections ...string) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "field_id", Value: 1}, {Key: "deleted", Value: 1}}},
		{Keys: bson.D{{Key: "deleted", Value: 1}, {Key: "created_at", Value: 1}}},
	}
	for _, name := range collections {
		if _, err := p.db.Collection(name).Indexes().CreateMany(ctx, indexes); err != nil {
			return fmt.Errorf("indexes %s: %w", name, err)
		}
	}
	return nil
}

// RecordStore implements ports.RecordStore on one collection. Inside InTx
// every call joins the session carried by ctx.
type RecordStore struct {
	client *mongo.Client
	col    *mongo.Collection
}

func (s *RecordStore) FindUnique(ctx context.Context, id string, scope ports.Scope) (*domain.Record, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := buildFilter(ports.Filter{Scope: scope})
	filter["_id"] = id
	return s.findOne(ctx, filter)
}

func (s *RecordStore) FindFirst(ctx context.Context, f ports.Filter) (*domain.Record, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	return s.findOne(ctx, buildFilter(f))
}

func (s *RecordStore) findOne(ctx context.Context, filter bson.M) (*domain.Record, error) {
	var doc recordDoc
	if err := s.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ports.ErrNoRecord
		}
		return nil, err
	}
	return doc.toRecord(), nil
}

func (s *RecordStore) FindMany(ctx context.Context, f ports.Filter, w ports.Window, o ports.Order) ([]*domain.Record, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetSkip(int64(w.Skip))
	if w.Take > 0 {
		opts.SetLimit(int64(w.Take))
	}
	if sort := buildSort(o); sort != nil {
		opts.SetSort(sort)
	}

	cur, err := s.col.Find(ctx, buildFilter(f), opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var docs []recordDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]*domain.Record, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toRecord())
	}
	return out, nil
}

func (s *RecordStore) Count(ctx context.Context, f ports.Filter) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	return s.col.CountDocuments(ctx, buildFilter(f))
}

func (s *RecordStore) Create(ctx context.Context, r *domain.Record) (*domain.Record, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := toDoc(r)
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if _, err := s.col.InsertOne(ctx, doc); err != nil {
		return nil, err
	}
	return doc.toRecord(), nil
}

func (s *RecordStore) Update(ctx context.Context, id string, scope ports.Scope, m ports.Mutation) (*domain.Record, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := buildFilter(ports.Filter{Scope: scope})
	filter["_id"] = id

	var doc recordDoc
	err := s.col.FindOneAndUpdate(ctx, filter, buildUpdate(m),
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ports.ErrNoRecord
		}
		return nil, err
	}
	return doc.toRecord(), nil
}

// UpdateMany reports matched rather than modified documents so that a no-op
// restore of an active id still counts.
func (s *RecordStore) UpdateMany(ctx context.Context, ids []string, m ports.Mutation) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := s.col.UpdateMany(ctx, bson.M{"_id": bson.M{"$in": ids}}, buildUpdate(m))
	if err != nil {
		return 0, err
	}
	return res.MatchedCount, nil
}

func (s *RecordStore) DeleteMany(ctx context.Context, ids []string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := s.col.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// InTx runs fn inside a multi-document transaction. Requires a replica set.
func (s *RecordStore) InTx(ctx context.Context, fn func(ctx context.Context, tx ports.RecordStore) error) error {
	sess, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc, s)
	})
	return err
}

func buildFilter(f ports.Filter) bson.M {
	filter := bson.M{}
	if f.Scope == ports.ScopeActive {
		filter["deleted"] = nil
	}
	if len(f.IDs) > 0 {
		filter["_id"] = bson.M{"$in": f.IDs}
	}
	if f.FieldID != "" {
		filter["field_id"] = f.FieldID
	}

	var and []bson.M
	if f.Search != "" && len(f.SearchFields) > 0 {
		or := make([]bson.M, 0, len(f.SearchFields))
		for _, field := range f.SearchFields {
			or = append(or, bson.M{"data." + field: containsRegex(f.Search)})
		}
		and = append(and, bson.M{"$or": or})
	}
	for _, t := range f.Terms {
		and = append(and, bson.M{"data." + t.Field: containsRegex(t.Value)})
	}
	if len(and) > 0 {
		filter["$and"] = and
	}
	return filter
}

func containsRegex(v string) primitive.Regex {
	return primitive.Regex{Pattern: regexp.QuoteMeta(v), Options: "i"}
}

func buildSort(o ports.Order) bson.D {
	if o.Field == "" {
		return nil
	}
	dir := 1
	if o.Desc {
		dir = -1
	}
	return bson.D{{Key: sortKey(o.Field), Value: dir}, {Key: "_id", Value: dir}}
}

func sortKey(field string) string {
	switch field {
	case ports.OrderCreatedAt:
		return "created_at"
	case ports.OrderUpdatedAt:
		return "updated_at"
	default:
		return "data." + field
	}
}

func buildUpdate(m ports.Mutation) bson.M {
	set := bson.M{"updated_at": m.At.UTC()}
	if m.FieldID != nil {
		set["field_id"] = *m.FieldID
	}
	for k, v := range m.Attributes {
		set["data."+k] = v
	}
	switch m.Deleted {
	case ports.DeletedMark:
		set["deleted"] = m.At.UTC()
	case ports.DeletedClear:
		set["deleted"] = nil
	}
	return bson.M{"$set": set}
}
