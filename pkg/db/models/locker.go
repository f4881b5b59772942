package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Device groups lockers installed at one physical site.
type Device struct {
	ID                  uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Name                string    `gorm:"column:name;type:text;not null"`
	University          string    `gorm:"column:university;type:text;not null;index"`
	LocationDescription string    `gorm:"column:location_description;type:text;not null"`
	CreatedAt           time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (d *Device) BeforeCreate(*gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

// Locker is one slot on a Device. Available=false means an active rental holds it.
type Locker struct {
	ID                  uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	DeviceID            uuid.UUID  `gorm:"column:device_id;type:uuid;not null;index;uniqueIndex:uq_lockers_device_number,priority:1"`
	Number              int        `gorm:"column:number;not null;uniqueIndex:uq_lockers_device_number,priority:2"`
	Available           bool       `gorm:"column:available;not null;default:true"`
	University          string     `gorm:"column:university;type:text;not null;index"`
	LocationDescription string     `gorm:"column:location_description;type:text;not null"`
	ActivatedAt         *time.Time `gorm:"column:activated_at"`
	CreatedAt           time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (l *Locker) BeforeCreate(*gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
