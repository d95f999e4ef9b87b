package Models

import (
	"time"

	"gorm.io/gorm"
)

// OrganizationalUnit (VO) groups stations under one chief.
type OrganizationalUnit struct {
	gorm.Model
	Name        string    `json:"name" gorm:"not null;uniqueIndex"`
	ChiefUserID *uint     `json:"chief_user_id" gorm:"index"`
	Stations    []Station `json:"stations,omitempty" gorm:"foreignKey:OrganizationalUnitID"`
}

type Station struct {
	gorm.Model
	Name                 string              `json:"name" gorm:"not null"`
	OrganizationalUnitID uint                `json:"organizational_unit_id" gorm:"not null;index"`
	OrganizationalUnit   *OrganizationalUnit `json:"organizational_unit,omitempty" gorm:"foreignKey:OrganizationalUnitID"`
}

// UserStationLink is a membership row. ID keeps insertion order, which is
// what "first membership" means when a user belongs to several stations.
type UserStationLink struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"user_id" gorm:"not null;uniqueIndex:idx_user_station"`
	StationID uint      `json:"station_id" gorm:"not null;uniqueIndex:idx_user_station;index"`
	CreatedAt time.Time `json:"created_at"`
	Station   *Station  `json:"station,omitempty" gorm:"foreignKey:StationID"`
}
