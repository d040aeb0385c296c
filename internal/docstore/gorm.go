package docstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type documentRow struct {
	Collection string    `gorm:"primaryKey;size:64"`
	Key        string    `gorm:"column:doc_key;primaryKey;size:255"`
	Partition  string    `gorm:"index;size:255"`
	Version    int64     `gorm:"not null"`
	Data       string    `gorm:"type:text;not null"`
	UpdatedAt  time.Time `gorm:"not null"`
}

func (documentRow) TableName() string { return "documents" }

func (r documentRow) toDocument() Document {
	return Document{
		Key:       r.Key,
		Partition: r.Partition,
		Version:   r.Version,
		Data:      []byte(r.Data),
		UpdatedAt: r.UpdatedAt,
	}
}

// GormStore keeps every collection in one "documents" table. It runs on
// PostgreSQL in production and on SQLite for local runs and tests.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore migrates the documents table and returns the store.
func NewGormStore(ctx context.Context, db *gorm.DB) (*GormStore, error) {
	if err := db.WithContext(ctx).AutoMigrate(&documentRow{}); err != nil {
		return nil, fmt.Errorf("migrate documents: %w", err)
	}
	return &GormStore{db: db}, nil
}

func (s *GormStore) Get(ctx context.Context, collection, key string) (Document, error) {
	var row documentRow
	err := s.db.WithContext(ctx).
		Where("collection = ? AND doc_key = ?", collection, key).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Document{}, ErrNotFound
	}
	if err != nil {
		return Document{}, fmt.Errorf("get %s/%s: %w", collection, key, err)
	}
	return row.toDocument(), nil
}

func (s *GormStore) Create(ctx context.Context, collection string, doc Document) (int64, error) {
	row := documentRow{
		Collection: collection,
		Key:        doc.Key,
		Partition:  doc.Partition,
		Version:    1,
		Data:       string(doc.Data),
		UpdatedAt:  time.Now().UTC(),
	}
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&row)
	if res.Error != nil {
		return 0, fmt.Errorf("create %s/%s: %w", collection, doc.Key, res.Error)
	}
	if res.RowsAffected == 0 {
		return 0, ErrAlreadyExists
	}
	return 1, nil
}

func (s *GormStore) Put(ctx context.Context, collection string, doc Document, expectedVersion int64) (int64, error) {
	if expectedVersion == AnyVersion {
		return s.upsert(ctx, collection, doc)
	}

	res := s.db.WithContext(ctx).
		Model(&documentRow{}).
		Where("collection = ? AND doc_key = ? AND version = ?", collection, doc.Key, expectedVersion).
		Updates(map[string]any{
			"partition":  doc.Partition,
			"data":       string(doc.Data),
			"version":    gorm.Expr("version + 1"),
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return 0, fmt.Errorf("put %s/%s: %w", collection, doc.Key, res.Error)
	}
	if res.RowsAffected == 0 {
		return 0, s.missOrConflict(ctx, collection, doc.Key)
	}
	return expectedVersion + 1, nil
}

func (s *GormStore) upsert(ctx context.Context, collection string, doc Document) (int64, error) {
	var version int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()
		ins := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&documentRow{
			Collection: collection,
			Key:        doc.Key,
			Partition:  doc.Partition,
			Version:    1,
			Data:       string(doc.Data),
			UpdatedAt:  now,
		})
		if ins.Error != nil {
			return ins.Error
		}
		if ins.RowsAffected == 1 {
			version = 1
			return nil
		}

		upd := tx.Model(&documentRow{}).
			Where("collection = ? AND doc_key = ?", collection, doc.Key).
			Updates(map[string]any{
				"partition":  doc.Partition,
				"data":       string(doc.Data),
				"version":    gorm.Expr("version + 1"),
				"updated_at": now,
			})
		if upd.Error != nil {
			return upd.Error
		}

		var row documentRow
		if err := tx.Select("version").
			Where("collection = ? AND doc_key = ?", collection, doc.Key).
			Take(&row).Error; err != nil {
			return err
		}
		version = row.Version
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("upsert %s/%s: %w", collection, doc.Key, err)
	}
	return version, nil
}

func (s *GormStore) Delete(ctx context.Context, collection, key string, expectedVersion int64) error {
	q := s.db.WithContext(ctx).Where("collection = ? AND doc_key = ?", collection, key)
	if expectedVersion != AnyVersion {
		q = q.Where("version = ?", expectedVersion)
	}
	res := q.Delete(&documentRow{})
	if res.Error != nil {
		return fmt.Errorf("delete %s/%s: %w", collection, key, res.Error)
	}
	if res.RowsAffected == 0 {
		if expectedVersion == AnyVersion {
			return ErrNotFound
		}
		return s.missOrConflict(ctx, collection, key)
	}
	return nil
}

func (s *GormStore) Query(ctx context.Context, collection string, f Filter) ([]Document, error) {
	q := s.db.WithContext(ctx).Where("collection = ?", collection)
	if f.Partition != "" {
		q = q.Where("partition = ?", f.Partition)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}

	var rows []documentRow
	if err := q.Order("doc_key").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("query %s: %w", collection, err)
	}

	out := make([]Document, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDocument())
	}
	return out, nil
}

func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *GormStore) Close(context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// missOrConflict tells a missing row from a stale version after a
// conditional statement matched nothing.
func (s *GormStore) missOrConflict(ctx context.Context, collection, key string) error {
	var n int64
	err := s.db.WithContext(ctx).
		Model(&documentRow{}).
		Where("collection = ? AND doc_key = ?", collection, key).
		Count(&n).Error
	if err != nil {
		return fmt.Errorf("check %s/%s: %w", collection, key, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return ErrVersionConflict
}
