package domain

import "time"

// Record is a tenant-owned resource row. Attributes carry the resource-specific
// fields; the lifecycle engine never inspects them.
type Record struct {
	ID         string
	FieldID    string
	Deleted    *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
	Attributes map[string]any
}

// IsDeleted reports whether the record is soft-deleted.
func (r *Record) IsDeleted() bool {
	return r.Deleted != nil
}

// Clone returns a copy that shares no maps with r.
func (r *Record) Clone() *Record {
	c := *r
	if r.Deleted != nil {
		d := *r.Deleted
		c.Deleted = &d
	}
	c.Attributes = make(map[string]any, len(r.Attributes))
	for k, v := range r.Attributes {
		c.Attributes[k] = v
	}
	return &c
}

// Payload is the caller-supplied body of a create or update.
type Payload struct {
	FieldID    *string
	Attributes map[string]any
}

// Noun names a resource type in user-facing messages.
type Noun struct {
	Singular string `yaml:"singular"`
	Plural   string `yaml:"plural"`
	Feminine bool   `yaml:"feminine"`
}
