package models

import "time"

// Center is a neighborhood community center that hosts activities
type Center struct {
	ID           int64     `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Village      string    `json:"village" db:"village"`
	Neighborhood string    `json:"neighborhood" db:"neighborhood"`
	Address      string    `json:"address" db:"address"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}
