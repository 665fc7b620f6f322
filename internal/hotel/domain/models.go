package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type Hotel struct {
	ID        snowflake.ID `json:"id" gorm:"primaryKey"`
	Name      string       `json:"name" gorm:"type:varchar(255);not null"`
	Currency  string       `json:"currency" gorm:"type:char(3);not null"`
	CreatedAt time.Time    `json:"created_at" gorm:"not null"`
}

func (Hotel) TableName() string { return "hotels" }

type RoomType struct {
	ID        snowflake.ID `json:"id" gorm:"primaryKey"`
	HotelID   snowflake.ID `json:"hotel_id" gorm:"not null;index"`
	Code      string       `json:"code" gorm:"type:varchar(64);not null"`
	Name      string       `json:"name" gorm:"type:varchar(255);not null"`
	CreatedAt time.Time    `json:"created_at" gorm:"not null"`
}

func (RoomType) TableName() string { return "room_types" }

// MealPlan is a board basis such as room only or half board.
type MealPlan struct {
	ID        snowflake.ID `json:"id" gorm:"primaryKey"`
	Code      string       `json:"code" gorm:"type:varchar(32);not null;uniqueIndex"`
	Name      string       `json:"name" gorm:"type:varchar(255);not null"`
	Active    bool         `json:"active" gorm:"not null;default:true"`
	CreatedAt time.Time    `json:"created_at" gorm:"not null"`
}

func (MealPlan) TableName() string { return "meal_plans" }
