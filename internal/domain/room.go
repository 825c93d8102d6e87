package domain

import "time"

type Location struct {
	ID          int64     `json:"id" gorm:"column:id;primaryKey"`
	Name        string    `json:"name" validate:"required" gorm:"column:name;uniqueIndex"`
	Address     string    `json:"address" validate:"required" gorm:"column:address"`
	City        string    `json:"city" gorm:"column:city"`
	Description string    `json:"description,omitempty" gorm:"column:description"`
	Active      bool      `json:"active" gorm:"column:active"`
	CreatedAt   time.Time `json:"created_at" gorm:"column:created_at"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"column:updated_at"`
}

func (Location) TableName() string { return "locations" }

type Resource struct {
	ID          int64  `json:"id" gorm:"column:id;primaryKey"`
	Name        string `json:"name" validate:"required" gorm:"column:name;uniqueIndex"`
	Description string `json:"description,omitempty" gorm:"column:description"`
}

func (Resource) TableName() string { return "resources" }

type Room struct {
	ID         int64     `json:"id" gorm:"column:id;primaryKey"`
	Name       string    `json:"name" validate:"required" gorm:"column:name;index:idx_room_name_location,unique"`
	LocationID int64     `json:"location_id" validate:"required" gorm:"column:location_id;index:idx_room_name_location,unique"`
	Capacity   int       `json:"capacity" validate:"required,gt=0" gorm:"column:capacity"`
	Active     bool      `json:"active" gorm:"column:active"`
	CreatedAt  time.Time `json:"created_at" gorm:"column:created_at"`
	UpdatedAt  time.Time `json:"updated_at" gorm:"column:updated_at"`

	Location  *Location  `json:"location,omitempty" gorm:"foreignKey:LocationID"`
	Resources []Resource `json:"resources,omitempty" gorm:"many2many:room_resources"`
}

func (Room) TableName() string { return "rooms" }
