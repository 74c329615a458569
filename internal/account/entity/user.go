package entity

import "time"

// User is an account row in the `users` table. Password holds the bcrypt
// hash, never the plain text.
type User struct {
	ID          int64
	Email       string
	Password    string
	Active      bool
	ActivatedAt *time.Time
	CreatedAt   time.Time
}

// ActivationToken is the single-use credential mailed out on registration.
// One row per registration event; looked up once to activate the account.
type ActivationToken struct {
	ID     int64
	Token  string
	UserID int64
}
