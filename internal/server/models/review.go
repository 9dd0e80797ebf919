package models

import (
	"strings"
	"time"
)

type Review struct {
	ID        string    `db:"id" json:"id"`
	Review    string    `db:"review" json:"review"`
	Rating    int       `db:"rating" json:"rating"`
	TourID    string    `db:"tour_id" json:"tour"`
	UserID    string    `db:"user_id" json:"userId"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	Version   int64     `db:"version" json:"version"`

	// Author is filled when the "user" relation is expanded.
	Author *Author `db:"-" json:"user,omitempty"`
}

// Author is the public part of a User shown next to a review.
type Author struct {
	ID    string `db:"id" json:"id"`
	Name  string `db:"name" json:"name"`
	Photo string `db:"photo" json:"photo"`
}

func (r *Review) Validate() error {
	var f fieldErrors
	f.check(strings.TrimSpace(r.Review) != "", "Review can not be empty!")
	f.check(r.Rating >= 1 && r.Rating <= 5, "Rating must be between 1 and 5")
	f.check(r.TourID != "", "Review must belong to a tour.")
	f.check(r.UserID != "", "Review must belong to a user")
	return f.err()
}
