package models

import (
	"strings"
	"time"
	"unicode"
)

const DefaultRatingsAverage = 4.5

var difficulties = map[string]bool{"easy": true, "medium": true, "difficult": true}

type Tour struct {
	ID              string    `db:"id" json:"id"`
	Name            string    `db:"name" json:"name"`
	Slug            string    `db:"slug" json:"slug"`
	Duration        int       `db:"duration" json:"duration"`
	MaxGroupSize    int       `db:"max_group_size" json:"maxGroupSize"`
	Difficulty      string    `db:"difficulty" json:"difficulty"`
	RatingsAverage  float64   `db:"ratings_average" json:"ratingsAverage"`
	RatingsQuantity int       `db:"ratings_quantity" json:"ratingsQuantity"`
	Price           float64   `db:"price" json:"price"`
	Summary         string    `db:"summary" json:"summary"`
	Description     string    `db:"description" json:"description"`
	ImageCover      string    `db:"image_cover" json:"imageCover"`
	CreatedAt       time.Time `db:"created_at" json:"createdAt"`
	Version         int64     `db:"version" json:"version"`

	// Reviews is only filled when the "reviews" relation is expanded.
	Reviews []*Review `db:"-" json:"reviews,omitempty"`
}

func (t *Tour) Prepare() {
	t.Name = strings.TrimSpace(t.Name)
	t.Slug = Slugify(t.Name)
	if t.RatingsAverage == 0 {
		t.RatingsAverage = DefaultRatingsAverage
	}
}

func (t *Tour) Validate() error {
	var f fieldErrors
	f.check(len(t.Name) >= 10 && len(t.Name) <= 40, "A tour name must have between 10 and 40 characters")
	f.check(t.Duration > 0, "A tour must have a duration")
	f.check(t.MaxGroupSize > 0, "A tour must have a group size")
	f.check(difficulties[t.Difficulty], "Difficulty is either: easy, medium, difficult")
	f.check(t.RatingsAverage >= 1 && t.RatingsAverage <= 5, "Rating must be between 1.0 and 5.0")
	f.check(t.Price > 0, "A tour must have a price")
	f.check(strings.TrimSpace(t.Summary) != "", "A tour must have a summary")
	return f.err()
}

// Slugify lowercases s and joins its alphanumeric runs with '-'.
func Slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
