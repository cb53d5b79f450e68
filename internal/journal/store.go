package journal

import (
	"context"

	"execcore/internal/schema"
	"execcore/pkg/conn"
	"execcore/pkg/exception"

	"github.com/yanun0323/errors"
)

// EventRecord is the table row of one journaled event. Prices and quantities
// stay in fixed-point units.
type EventRecord struct {
	Seq       uint64 `gorm:"primaryKey;autoIncrement:false"`
	Type      string `gorm:"size:32;index"`
	Code      int32
	OrderID   uint64 `gorm:"index"`
	Symbol    string `gorm:"size:16;index"`
	Price     int64
	Quantity  int64
	Timestamp int64
	Message   string `gorm:"size:64"`
}

func (EventRecord) TableName() string {
	return "execution_events"
}

func newEventRecord(r Record) EventRecord {
	return EventRecord{
		Seq:       r.Seq,
		Type:      r.Event.Type.String(),
		Code:      int32(r.Event.Error),
		OrderID:   r.Event.OrderID,
		Symbol:    r.Event.Symbol.String(),
		Price:     int64(r.Event.Price),
		Quantity:  int64(r.Event.Quantity),
		Timestamp: r.Event.Timestamp,
		Message:   r.Event.Message.String(),
	}
}

// Store writes records into a SQL table through gorm.
type Store struct {
	client *conn.Client
	batch  int
	rows   []EventRecord
}

// NewStore migrates the events table and takes ownership of client.
func NewStore(client *conn.Client, batch int) (*Store, error) {
	if client.DB() == nil {
		return nil, errors.Wrap(exception.ErrNilInstance, "journal store client")
	}
	if batch <= 0 {
		batch = DefaultBatchSize
	}
	if err := client.DB().AutoMigrate(&EventRecord{}); err != nil {
		return nil, errors.Wrap(err, "migrate execution_events")
	}
	return &Store{client: client, batch: batch}, nil
}

func (s *Store) Write(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}
	s.rows = s.rows[:0]
	for _, r := range records {
		s.rows = append(s.rows, newEventRecord(r))
	}
	if err := s.client.DB().WithContext(ctx).CreateInBatches(s.rows, s.batch).Error; err != nil {
		return errors.Wrapf(err, "insert %d events", len(s.rows))
	}
	return nil
}

// Events returns up to limit records for symbol in sequence order. An empty
// symbol matches every record.
func (s *Store) Events(ctx context.Context, symbol string, limit int) ([]EventRecord, error) {
	q := s.client.DB().WithContext(ctx).Order("seq")
	if symbol != "" {
		q = q.Where("symbol = ?", symbol)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	var out []EventRecord
	if err := q.Find(&out).Error; err != nil {
		return nil, errors.Wrap(err, "query events")
	}
	return out, nil
}

func (s *Store) Count(ctx context.Context, typ schema.EventType) (int64, error) {
	var n int64
	err := s.client.DB().WithContext(ctx).Model(&EventRecord{}).Where("type = ?", typ.String()).Count(&n).Error
	if err != nil {
		return 0, errors.Wrap(err, "count events")
	}
	return n, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}
