package model

import "time"

// DefaultRating is assigned to newly registered users
const DefaultRating = 1000

// GameRecord is one entry of a user's append-only game history
type GameRecord struct {
	Result         string    `json:"result" bson:"result"`
	Opponent       string    `json:"opponent" bson:"opponent"`
	Moves          string    `json:"moves" bson:"moves"`
	Date           time.Time `json:"date" bson:"date"`
	OpponentRating int       `json:"opponent_rating" bson:"opponent_rating"`
}

// User is a registered account
type User struct {
	UserID       string       `json:"userId" bson:"userId"`
	Username     string       `json:"username" bson:"username"`
	Email        string       `json:"email" bson:"email"`
	PasswordHash string       `json:"password_hash" bson:"password"`
	Rating       int          `json:"rating" bson:"rating"`
	Games        []GameRecord `json:"games" bson:"games"`
	CreatedAt    time.Time    `json:"created_at" bson:"createdAt"`
}

// Profile is the public subset of a user returned to clients
type Profile struct {
	Username string `json:"username"`
	UserID   string `json:"userId"`
	Rating   int    `json:"rating"`
}

// Profile returns the public view of the user
func (u *User) Profile() Profile {
	return Profile{
		Username: u.Username,
		UserID:   u.UserID,
		Rating:   u.Rating,
	}
}
