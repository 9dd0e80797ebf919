package resources

import "github.com/dmitrijs2005/tourbook/internal/server/query"

var TourSchema = query.NewSchema("tours",
	query.Field{Name: "id", Column: "id", Kind: query.UUID, Managed: true},
	query.Field{Name: "name", Column: "name", Kind: query.Text, Writable: true},
	query.Field{Name: "slug", Column: "slug", Kind: query.Text},
	query.Field{Name: "duration", Column: "duration", Kind: query.Number, Writable: true},
	query.Field{Name: "maxGroupSize", Column: "max_group_size", Kind: query.Number, Writable: true},
	query.Field{Name: "difficulty", Column: "difficulty", Kind: query.Text, Writable: true},
	query.Field{Name: "ratingsAverage", Column: "ratings_average", Kind: query.Number, Writable: true},
	query.Field{Name: "ratingsQuantity", Column: "ratings_quantity", Kind: query.Number, Writable: true},
	query.Field{Name: "price", Column: "price", Kind: query.Number, Writable: true},
	query.Field{Name: "summary", Column: "summary", Kind: query.Text, Writable: true},
	query.Field{Name: "description", Column: "description", Kind: query.Text, Writable: true},
	query.Field{Name: "imageCover", Column: "image_cover", Kind: query.Text, Writable: true},
	query.Field{Name: "createdAt", Column: "created_at", Kind: query.Timestamp, Managed: true},
	query.Field{Name: "version", Column: "version", Kind: query.Number, Managed: true},
)

var ReviewSchema = query.NewSchema("reviews",
	query.Field{Name: "id", Column: "id", Kind: query.UUID, Managed: true},
	query.Field{Name: "review", Column: "review", Kind: query.Text, Writable: true},
	query.Field{Name: "rating", Column: "rating", Kind: query.Number, Writable: true},
	query.Field{Name: "tour", Column: "tour_id", Kind: query.UUID},
	query.Field{Name: "userId", Column: "user_id", Kind: query.UUID},
	query.Field{Name: "createdAt", Column: "created_at", Kind: query.Timestamp, Managed: true},
	query.Field{Name: "version", Column: "version", Kind: query.Number, Managed: true},
)

var BookingSchema = query.NewSchema("bookings",
	query.Field{Name: "id", Column: "id", Kind: query.UUID, Managed: true},
	query.Field{Name: "tour", Column: "tour_id", Kind: query.UUID, Writable: true},
	query.Field{Name: "user", Column: "user_id", Kind: query.UUID, Writable: true},
	query.Field{Name: "price", Column: "price", Kind: query.Number, Writable: true},
	query.Field{Name: "paid", Column: "paid", Kind: query.Bool, Writable: true},
	query.Field{Name: "createdAt", Column: "created_at", Kind: query.Timestamp, Managed: true},
	query.Field{Name: "version", Column: "version", Kind: query.Number, Managed: true},
)

// UserSchema is the public face of the users table. Credential columns
// are not part of it, so no query can filter, sort or project on them.
var UserSchema = query.NewSchema("users",
	query.Field{Name: "id", Column: "id", Kind: query.UUID, Managed: true},
	query.Field{Name: "name", Column: "name", Kind: query.Text, Writable: true},
	query.Field{Name: "email", Column: "email", Kind: query.Text, Writable: true},
	query.Field{Name: "photo", Column: "photo", Kind: query.Text, Writable: true},
	query.Field{Name: "role", Column: "role", Kind: query.Text, Writable: true},
	query.Field{Name: "active", Column: "active", Kind: query.Bool},
	query.Field{Name: "createdAt", Column: "created_at", Kind: query.Timestamp, Managed: true},
	query.Field{Name: "version", Column: "version", Kind: query.Number, Managed: true},
)
