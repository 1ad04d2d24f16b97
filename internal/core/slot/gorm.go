package slot

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SlotModel kv_slots 表的一行
type SlotModel struct {
	Key       string `gorm:"primaryKey;size:128"`
	Value     []byte `gorm:"not null"`
	UpdatedAt time.Time
}

func (SlotModel) TableName() string { return "kv_slots" }

type GormSlot struct {
	db  *gorm.DB
	key string
}

func NewGormSlot(db *gorm.DB, key string) *GormSlot { return &GormSlot{db: db, key: key} }

func (s *GormSlot) Load(ctx context.Context) ([]byte, error) {
	var row SlotModel
	err := s.db.WithContext(ctx).Where(&SlotModel{Key: s.key}).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, persistErr("db load "+s.key, err)
	}
	return row.Value, nil
}

func (s *GormSlot) Save(ctx context.Context, b []byte) error {
	row := SlotModel{Key: s.key, Value: b, UpdatedAt: time.Now()}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return persistErr("db save "+s.key, err)
	}
	return nil
}
