package domain

// User Model
type User struct {
	ID       uint    `gorm:"primaryKey" json:"id"`                                   // Primary key
	Email    string  `gorm:"size:255;uniqueIndex;not null" json:"email"`             // Unique login email
	Password string  `gorm:"not null" json:"-"`                                      // Hashed password
	Entries  []Entry `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"` // One-to-many relationship with Entry
}
