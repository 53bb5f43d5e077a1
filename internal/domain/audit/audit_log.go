package audit

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Action is what happened to the audited model
type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionDeleted Action = "deleted"
)

// Filtered replaces sensitive values before they are stored
const Filtered = "[FILTERED]"

var sensitiveKeys = map[string]struct{}{
	"password":       {},
	"remember_token": {},
	"api_token":      {},
}

// Values is a JSON object stored in the audit log
type Values map[string]any

// Value implements driver.Valuer
func (v Values) Value() (driver.Value, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(map[string]any(v))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (v *Values) Scan(value any) error {
	if value == nil {
		*v = nil
		return nil
	}
	var raw []byte
	switch t := value.(type) {
	case []byte:
		raw = t
	case string:
		raw = []byte(t)
	default:
		return errors.New("unsupported type for audit.Values")
	}
	return json.Unmarshal(raw, (*map[string]any)(v))
}

// Log is an append-only audit entry
type Log struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey"`
	CompanyID uuid.UUID  `gorm:"type:uuid;not null;index"`
	UserID    *uuid.UUID `gorm:"type:uuid;index"`
	ModelType string     `gorm:"type:varchar(100);not null;index:idx_audit_logs_model,priority:1"`
	ModelID   uuid.UUID  `gorm:"type:uuid;not null;index:idx_audit_logs_model,priority:2"`
	Action    Action     `gorm:"type:varchar(20);not null"`
	OldValues Values     `gorm:"type:text"`
	NewValues Values     `gorm:"type:text"`
	IPAddress string     `gorm:"type:varchar(64)"`
	UserAgent string     `gorm:"type:varchar(500)"`
	URL       string     `gorm:"type:varchar(1000)"`
	CreatedAt time.Time  `gorm:"not null"`
}

// TableName returns the table name for GORM
func (Log) TableName() string {
	return "audit_logs"
}

// NewLog creates an entry with sensitive values filtered out
func NewLog(ctx context.Context, companyID, userID uuid.UUID, modelType string, modelID uuid.UUID, action Action, oldValues, newValues Values) *Log {
	l := &Log{
		ID:        uuid.New(),
		CompanyID: companyID,
		ModelType: modelType,
		ModelID:   modelID,
		Action:    action,
		OldValues: FilterSensitive(oldValues),
		NewValues: FilterSensitive(newValues),
		CreatedAt: time.Now(),
	}
	if userID != uuid.Nil {
		l.UserID = &userID
	}
	if info, ok := RequestInfoFrom(ctx); ok {
		l.IPAddress = info.IPAddress
		l.UserAgent = info.UserAgent
		l.URL = info.URL
	}
	return l
}

// FilterSensitive returns a copy of values with sensitive keys masked
func FilterSensitive(values Values) Values {
	if values == nil {
		return nil
	}
	out := make(Values, len(values))
	for k, v := range values {
		if _, ok := sensitiveKeys[strings.ToLower(k)]; ok {
			out[k] = Filtered
			continue
		}
		out[k] = v
	}
	return out
}

// Snapshot converts a struct into audit values through its JSON form
func Snapshot(entity any) Values {
	if entity == nil {
		return nil
	}
	b, err := json.Marshal(entity)
	if err != nil {
		return nil
	}
	var v Values
	if err := json.Unmarshal(b, &v); err != nil {
		return nil
	}
	return v
}

// Diff returns the keys of after whose values differ from before
func Diff(before, after Values) Values {
	changes := Values{}
	for k, v := range after {
		old, ok := before[k]
		if !ok {
			changes[k] = v
			continue
		}
		ob, _ := json.Marshal(old)
		nb, _ := json.Marshal(v)
		if string(ob) != string(nb) {
			changes[k] = v
		}
	}
	return changes
}

// Repository appends audit entries
type Repository interface {
	Append(ctx context.Context, entry *Log) error
	FindByModel(ctx context.Context, companyID uuid.UUID, modelType string, modelID uuid.UUID) ([]Log, error)
}

// RequestInfo is the HTTP request metadata recorded with audit entries
type RequestInfo struct {
	IPAddress string
	UserAgent string
	URL       string
}

type requestInfoKey struct{}

// WithRequestInfo stores request metadata on the context
func WithRequestInfo(ctx context.Context, info RequestInfo) context.Context {
	return context.WithValue(ctx, requestInfoKey{}, info)
}

// RequestInfoFrom reads request metadata from the context
func RequestInfoFrom(ctx context.Context) (RequestInfo, bool) {
	info, ok := ctx.Value(requestInfoKey{}).(RequestInfo)
	return info, ok
}
