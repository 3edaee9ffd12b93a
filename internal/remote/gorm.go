package remote

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"gorm.io/gorm"
)

// GormService implements Service on top of a GORM database. Row-level change
// notifications are produced by GORM callbacks registered at construction, so
// every create, update, and delete that goes through the same *gorm.DB is
// published to subscribers, whether it was issued through this type or not.
type GormService struct {
	db  *gorm.DB
	bus *Bus
}

// NewGormService wraps db and hooks the change feed into its callback chain.
func NewGormService(db *gorm.DB) (*GormService, error) {
	s := &GormService{db: db, bus: NewBus()}

	callbacks := db.Callback()
	if err := callbacks.Create().After("gorm:create").Register("glidepath:notify_create", s.notify(ChangeInsert)); err != nil {
		return nil, fmt.Errorf("register create callback: %w", err)
	}
	if err := callbacks.Update().After("gorm:update").Register("glidepath:notify_update", s.notify(ChangeUpdate)); err != nil {
		return nil, fmt.Errorf("register update callback: %w", err)
	}
	if err := callbacks.Delete().After("gorm:delete").Register("glidepath:notify_delete", s.notify(ChangeDelete)); err != nil {
		return nil, fmt.Errorf("register delete callback: %w", err)
	}

	return s, nil
}

// Query implements Service.Query. A pointer-to-slice dest gets every match;
// a pointer-to-struct dest gets the first match or ErrNoRows.
func (s *GormService) Query(ctx context.Context, table string, dest interface{}, opts QueryOptions) error {
	tx := s.db.WithContext(ctx).Table(table)
	for _, f := range opts.Filters {
		tx = tx.Where(fmt.Sprintf("%s %s ?", f.Column, f.Op), f.Value)
	}
	if opts.OrderBy != nil {
		direction := "ASC"
		if opts.OrderBy.Desc {
			direction = "DESC"
		}
		tx = tx.Order(fmt.Sprintf("%s %s", opts.OrderBy.Column, direction))
	}
	if opts.Limit > 0 {
		tx = tx.Limit(opts.Limit)
	}

	if isSlicePtr(dest) {
		return tx.Find(dest).Error
	}
	if err := tx.First(dest).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNoRows
		}
		return err
	}
	return nil
}

// Insert implements Service.Insert.
func (s *GormService) Insert(ctx context.Context, table string, record interface{}) error {
	return s.db.WithContext(ctx).Table(table).Create(record).Error
}

// Update implements Service.Update.
func (s *GormService) Update(ctx context.Context, table string, updates map[string]interface{}, filters ...Filter) error {
	tx := s.db.WithContext(ctx).Table(table)
	for _, f := range filters {
		tx = tx.Where(fmt.Sprintf("%s %s ?", f.Column, f.Op), f.Value)
	}
	return tx.Updates(updates).Error
}

// Subscribe implements Service.Subscribe.
func (s *GormService) Subscribe(table string, handler ChangeHandler) (Subscription, error) {
	return s.bus.Subscribe(table, handler), nil
}

// CurrentIdentity implements Service.CurrentIdentity.
func (s *GormService) CurrentIdentity(ctx context.Context) (string, bool) {
	return IdentityFrom(ctx)
}

// Bus exposes the underlying change feed, used by tests and by components
// that publish synthetic changes.
func (s *GormService) Bus() *Bus {
	return s.bus
}

// notify builds the GORM after-callback for one change kind.
func (s *GormService) notify(kind ChangeKind) func(*gorm.DB) {
	return func(tx *gorm.DB) {
		if tx.Error != nil || tx.Statement == nil || tx.Statement.Table == "" {
			return
		}
		row, ok := statementRecord(tx)
		if !ok {
			return
		}
		s.bus.Publish(Change{Kind: kind, Table: tx.Statement.Table, Row: row})
	}
}

// statementRecord extracts the affected row from a GORM statement. Map-based
// updates without a model value carry no identifiable row and are skipped.
func statementRecord(tx *gorm.DB) (Record, bool) {
	for _, candidate := range []interface{}{tx.Statement.Model, tx.Statement.Dest} {
		if candidate == nil {
			continue
		}
		if rec, ok := candidate.(Record); ok && rec.RecordID() != "" {
			return rec, true
		}
	}
	return nil, false
}

func isSlicePtr(dest interface{}) bool {
	v := reflect.ValueOf(dest)
	return v.Kind() == reflect.Ptr && v.Elem().Kind() == reflect.Slice
}
