package models

import "time"

type Booking struct {
	ID        string    `db:"id" json:"id"`
	TourID    string    `db:"tour_id" json:"tour"`
	UserID    string    `db:"user_id" json:"user"`
	Price     float64   `db:"price" json:"price"`
	Paid      bool      `db:"paid" json:"paid"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	Version   int64     `db:"version" json:"version"`
}

func (b *Booking) Validate() error {
	var f fieldErrors
	f.check(b.TourID != "", "Booking must belong to a Tour!")
	f.check(b.UserID != "", "Booking must belong to a User!")
	f.check(b.Price > 0, "Booking must have a price.")
	return f.err()
}
