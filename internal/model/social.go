package model

import "time"

// Reaction values stored in movie_reactions.value.
const (
	ReactionLike    = 1
	ReactionDislike = -1
)

// Favorite marks a movie as saved by a user.  A (user, movie) pair
// is unique.
//
// Fields:
//  ID      – primary key identifier.
//  UserID  – user who saved the movie.
//  MovieID – saved movie.
//  AddedAt – creation timestamp.
type Favorite struct {
	ID      uint64    // movie_favorites.id
	UserID  uint64    // movie_favorites.user_id
	MovieID uint64    // movie_favorites.movie_id
	AddedAt time.Time // movie_favorites.added_at
}

// Rating is one user's 1..10 score for a movie.  Re-rating
// overwrites the previous score.
type Rating struct {
	ID      uint64    // movie_ratings.id
	UserID  uint64    // movie_ratings.user_id
	MovieID uint64    // movie_ratings.movie_id
	Score   int       // movie_ratings.score
	RatedAt time.Time // movie_ratings.rated_at
}

// Comment is a user comment on a movie.  ParentID points at the
// commented-on comment for replies and is nil for top-level
// comments.
//
// Fields:
//  ID        – primary key identifier.
//  MovieID   – commented movie.
//  UserID    – author.
//  ParentID  – parent comment for replies, nil for top level.
//  Body      – comment text.
//  CreatedAt – creation timestamp.
type Comment struct {
	ID        uint64    `json:"id"`         // movie_comments.id
	MovieID   uint64    `json:"movie_id"`   // movie_comments.movie_id
	UserID    uint64    `json:"user_id"`    // movie_comments.user_id
	ParentID  *uint64   `json:"parent_id"`  // movie_comments.parent_id
	Body      string    `json:"body"`       // movie_comments.body
	CreatedAt time.Time `json:"created_at"` // movie_comments.created_at
}

// ValidRatingScore reports whether a score is inside the 1..10
// rating scale.
func ValidRatingScore(score int) bool { return score >= 1 && score <= 10 }

// ValidReaction reports whether a reaction value is a like or a
// dislike.
func ValidReaction(value int) bool {
	return value == ReactionLike || value == ReactionDislike
}
