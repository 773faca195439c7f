package domain

// User is one managed account. Avatar is a public /uploads/ path or nil.
type User struct {
	ID        int64   `json:"id" db:"id"`
	Name      string  `json:"name" db:"name"`
	Email     string  `json:"email" db:"email"`
	Avatar    *string `json:"avatar" db:"avatar"`
	CreatedAt string  `json:"created_at" db:"created_at"`
}

// GrowthPoint is the number of users created on one calendar date (YYYY-MM-DD).
type GrowthPoint struct {
	Date  string `json:"date" db:"date"`
	Count int64  `json:"count" db:"count"`
}
