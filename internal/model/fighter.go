package model

import (
	"database/sql"
	"time"
)

// Fighter mirrors the `fighters` table. Height, weight and reach are stored
// in centimetres; record is the number of professional wins.
type Fighter struct {
	ID        uint64         // fighters.id
	Name      string         // fighters.name
	Record    int            // fighters.record
	Age       sql.NullInt64  // fighters.age (nullable)
	Height    float64        // fighters.height
	Weight    float64        // fighters.weight
	Reach     float64        // fighters.reach
	Image     sql.NullString // fighters.image (stored filename)
	CreatedAt time.Time      // fighters.created_at
	UpdatedAt time.Time      // fighters.updated_at
}
