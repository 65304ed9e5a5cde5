package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fieldwork/backoffice-api/internal/core/domain"
	"github.com/fieldwork/backoffice-api/internal/core/ports"
)

type recordRow struct {
	ID        string     `gorm:"column:id;primaryKey"`
	FieldID   string     `gorm:"column:field_id"`
	Deleted   *time.Time `gorm:"column:deleted"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime:false"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime:false"`
	Data      string     `gorm:"column:data;type:jsonb"`
}

func toRow(r *domain.Record) (recordRow, error) {
	attrs := r.Attributes
	if attrs == nil {
		attrs = map[string]any{}
	}
	data, err := json.Marshal(attrs)
	if err != nil {
		return recordRow{}, fmt.Errorf("encode attributes: %w", err)
	}
	return recordRow{
		ID:        r.ID,
		FieldID:   r.FieldID,
		Deleted:   r.Deleted,
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
		Data:      string(data),
	}, nil
}

func (row recordRow) toRecord() (*domain.Record, error) {
	attrs := map[string]any{}
	if row.Data != "" {
		if err := json.Unmarshal([]byte(row.Data), &attrs); err != nil {
			return nil, fmt.Errorf("decode attributes of %s: %w", row.ID, err)
		}
	}
	return &domain.Record{
		ID:         row.ID,
		FieldID:    row.FieldID,
		Deleted:    row.Deleted,
		CreatedAt:  row.CreatedAt,
		UpdatedAt:  row.UpdatedAt,
		Attributes: attrs,
	}, nil
}

// RecordStore implements ports.RecordStore on one table. Attributes are kept
// in a jsonb column and addressed with ->>.
type RecordStore struct {
	db    *gorm.DB
	table string
	inTx  bool
}

func (s *RecordStore) scoped(ctx context.Context, f ports.Filter) *gorm.DB {
	q := s.db.WithContext(ctx).Table(s.table)
	if f.Scope == ports.ScopeActive {
		q = q.Where("deleted IS NULL")
	}
	if len(f.IDs) > 0 {
		q = q.Where("id IN ?", f.IDs)
	}
	if f.FieldID != "" {
		q = q.Where("field_id = ?", f.FieldID)
	}
	if f.Search != "" && len(f.SearchFields) > 0 {
		conds := make([]string, 0, len(f.SearchFields))
		args := make([]any, 0, 2*len(f.SearchFields))
		for _, field := range f.SearchFields {
			conds = append(conds, "data->>? ILIKE ?")
			args = append(args, field, likePattern(f.Search))
		}
		q = q.Where("("+strings.Join(conds, " OR ")+")", args...)
	}
	for _, t := range f.Terms {
		q = q.Where("data->>? ILIKE ?", t.Field, likePattern(t.Value))
	}
	return q
}

func (s *RecordStore) FindUnique(ctx context.Context, id string, scope ports.Scope) (*domain.Record, error) {
	var row recordRow
	err := s.scoped(ctx, ports.Filter{Scope: scope}).Where("id = ?", id).Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNoRecord
		}
		return nil, err
	}
	return row.toRecord()
}

func (s *RecordStore) FindFirst(ctx context.Context, f ports.Filter) (*domain.Record, error) {
	recs, err := s.FindMany(ctx, f, ports.Window{Take: 1}, ports.Order{})
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, ports.ErrNoRecord
	}
	return recs[0], nil
}

// FindMany locks the selected rows when called inside InTx with explicit ids.
func (s *RecordStore) FindMany(ctx context.Context, f ports.Filter, w ports.Window, o ports.Order) ([]*domain.Record, error) {
	q := s.scoped(ctx, f)
	if s.inTx && len(f.IDs) > 0 {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	if o.Field != "" {
		q = q.Order(orderBy(o))
	}
	if w.Skip > 0 {
		q = q.Offset(w.Skip)
	}
	if w.Take > 0 {
		q = q.Limit(w.Take)
	}

	var rows []recordRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*domain.Record, 0, len(rows))
	for _, row := range rows {
		rec, err := row.toRecord()
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func (s *RecordStore) Count(ctx context.Context, f ports.Filter) (int64, error) {
	var n int64
	if err := s.scoped(ctx, f).Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

func (s *RecordStore) Create(ctx context.Context, r *domain.Record) (*domain.Record, error) {
	row, err := toRow(r)
	if err != nil {
		return nil, err
	}
	if row.ID == "" {
		row.ID = uuid.NewString()
	}
	if err := s.db.WithContext(ctx).Table(s.table).Create(&row).Error; err != nil {
		return nil, err
	}
	return row.toRecord()
}

func (s *RecordStore) Update(ctx context.Context, id string, scope ports.Scope, m ports.Mutation) (*domain.Record, error) {
	values, err := updates(m)
	if err != nil {
		return nil, err
	}
	res := s.scoped(ctx, ports.Filter{Scope: scope}).Where("id = ?", id).Updates(values)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ports.ErrNoRecord
	}
	return s.FindUnique(ctx, id, ports.ScopeAll)
}

func (s *RecordStore) UpdateMany(ctx context.Context, ids []string, m ports.Mutation) (int64, error) {
	values, err := updates(m)
	if err != nil {
		return 0, err
	}
	res := s.db.WithContext(ctx).Table(s.table).Where("id IN ?", ids).Updates(values)
	return res.RowsAffected, res.Error
}

func (s *RecordStore) DeleteMany(ctx context.Context, ids []string) (int64, error) {
	res := s.db.WithContext(ctx).Table(s.table).Where("id IN ?", ids).Delete(&recordRow{})
	return res.RowsAffected, res.Error
}

func (s *RecordStore) InTx(ctx context.Context, fn func(ctx context.Context, tx ports.RecordStore) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, &RecordStore{db: tx, table: s.table, inTx: true})
	})
}

func updates(m ports.Mutation) (map[string]any, error) {
	values := map[string]any{"updated_at": m.At.UTC()}
	if m.FieldID != nil {
		values["field_id"] = *m.FieldID
	}
	if len(m.Attributes) > 0 {
		patch, err := json.Marshal(m.Attributes)
		if err != nil {
			return nil, fmt.Errorf("encode attributes: %w", err)
		}
		values["data"] = gorm.Expr("data || ?::jsonb", string(patch))
	}
	switch m.Deleted {
	case ports.DeletedMark:
		values["deleted"] = m.At.UTC()
	case ports.DeletedClear:
		values["deleted"] = nil
	}
	return values, nil
}

func orderBy(o ports.Order) clause.OrderBy {
	switch o.Field {
	case ports.OrderCreatedAt, ports.OrderUpdatedAt:
		col := "created_at"
		if o.Field == ports.OrderUpdatedAt {
			col = "updated_at"
		}
		return clause.OrderBy{Columns: []clause.OrderByColumn{
			{Column: clause.Column{Name: col}, Desc: o.Desc},
			{Column: clause.Column{Name: "id"}, Desc: o.Desc},
		}}
	default:
		dir := "ASC"
		if o.Desc {
			dir = "DESC"
		}
		return clause.OrderBy{Expression: clause.Expr{
			SQL:                "data->>? " + dir + ", id " + dir,
			Vars:               []any{o.Field},
			WithoutParentheses: true,
		}}
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func likePattern(v string) string {
	return "%" + likeEscaper.Replace(v) + "%"
}
