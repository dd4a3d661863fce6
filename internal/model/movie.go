package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Movie is a catalog entry available for purchase.  The UUID is
// the public identifier exposed in API responses; the numeric ID
// is internal.  Price is a DECIMAL(10,2) column and is carried as
// a decimal.Decimal to avoid float rounding on money.  A movie
// referenced by order items is never hard-deleted; IsAvailable is
// cleared instead so historical orders keep their reference.
//
// Fields:
//  ID          – primary key identifier.
//  UUID        – public identifier (36 char UUID string).
//  Title       – movie title.
//  ReleaseYear – year of release.
//  DurationMin – running time in minutes.
//  IMDb        – IMDb score.
//  Votes       – number of IMDb votes.
//  Description – synopsis text.
//  Price       – catalog price.
//  IsAvailable – whether the movie can currently be purchased.
//  CreatedAt   – creation timestamp.
//  UpdatedAt   – last update timestamp.
type Movie struct {
	ID          uint64          // movies.id
	UUID        string          // movies.uuid
	Title       string          // movies.title
	ReleaseYear int             // movies.release_year
	DurationMin int             // movies.duration_min
	IMDb        float64         // movies.imdb
	Votes       int             // movies.votes
	Description string          // movies.description
	Price       decimal.Decimal // movies.price
	IsAvailable bool            // movies.is_available
	CreatedAt   time.Time       // movies.created_at
	UpdatedAt   time.Time       // movies.updated_at
}

// Genre is a row in the `genres` table.  Movies and genres are
// linked through the movie_genres join table.
type Genre struct {
	ID   uint64 // genres.id
	Name string // genres.name
}
