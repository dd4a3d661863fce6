package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/online-movie-store/internal/model"
)

// ErrAlreadyFavorite is returned when the movie is already in the
// user's favorites.
var ErrAlreadyFavorite = errors.New("movie already in favorites")

// EngagementRepo persists the per-user catalog engagement rows:
// favorites, like/dislike reactions, ratings and comments. All
// (user, movie) pairs are unique; re-rating and re-reacting
// overwrite through upserts.
type EngagementRepo struct{ db *sql.DB }

func NewEngagementRepo(db *sql.DB) *EngagementRepo { return &EngagementRepo{db: db} }

// AddFavorite saves a movie for the user.
func (r *EngagementRepo) AddFavorite(ctx context.Context, userID, movieID uint64) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO movie_favorites (user_id, movie_id) VALUES (?,?)",
		userID, movieID)
	if err != nil && strings.Contains(strings.ToLower(err.Error()), "1062") {
		return ErrAlreadyFavorite
	}
	return err
}

// RemoveFavorite drops a movie from the user's favorites.
func (r *EngagementRepo) RemoveFavorite(ctx context.Context, userID, movieID uint64) error {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM movie_favorites WHERE user_id=? AND movie_id=?",
		userID, movieID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// FavoriteLine is a favorite joined with catalog data for display.
type FavoriteLine struct {
	MovieID     uint64    `json:"movie_id"`
	Title       string    `json:"title"`
	Price       string    `json:"price"`
	IsAvailable bool      `json:"is_available"`
	AddedAt     time.Time `json:"added_at"`
}

// ListFavorites returns the user's saved movies, newest first.
func (r *EngagementRepo) ListFavorites(ctx context.Context, userID uint64) ([]FavoriteLine, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT f.movie_id, m.title, m.price, m.is_available, f.added_at
		 FROM movie_favorites f
		 JOIN movies m ON m.id = f.movie_id
		 WHERE f.user_id = ?
		 ORDER BY f.id DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []FavoriteLine{}
	for rows.Next() {
		var l FavoriteLine
		if err := rows.Scan(&l.MovieID, &l.Title, &l.Price, &l.IsAvailable, &l.AddedAt); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// React records a like or dislike, overwriting any previous
// reaction of the user on the movie.
func (r *EngagementRepo) React(ctx context.Context, userID, movieID uint64, value int) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO movie_reactions (user_id, movie_id, value) VALUES (?,?,?)
		 ON DUPLICATE KEY UPDATE value=VALUES(value)`,
		userID, movieID, value)
	return err
}

// RemoveReaction withdraws the user's like or dislike.
func (r *EngagementRepo) RemoveReaction(ctx context.Context, userID, movieID uint64) error {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM movie_reactions WHERE user_id=? AND movie_id=?",
		userID, movieID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Rate records the user's 1..10 score for a movie, overwriting any
// previous score. Score validation is the caller's job.
func (r *EngagementRepo) Rate(ctx context.Context, userID, movieID uint64, score int) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO movie_ratings (user_id, movie_id, score) VALUES (?,?,?)
		 ON DUPLICATE KEY UPDATE score=VALUES(score)`,
		userID, movieID, score)
	return err
}

// EngagementSummary aggregates a movie's reactions and ratings.
type EngagementSummary struct {
	Likes       int     `json:"likes"`
	Dislikes    int     `json:"dislikes"`
	RatingCount int     `json:"rating_count"`
	RatingAvg   float64 `json:"rating_avg"`
	Favorites   int     `json:"favorites"`
}

// Summary returns the aggregate engagement counters of a movie.
func (r *EngagementRepo) Summary(ctx context.Context, movieID uint64) (EngagementSummary, error) {
	var s EngagementSummary
	err := r.db.QueryRowContext(ctx,
		`SELECT
		   (SELECT COUNT(*) FROM movie_reactions WHERE movie_id=? AND value=1),
		   (SELECT COUNT(*) FROM movie_reactions WHERE movie_id=? AND value=-1),
		   (SELECT COUNT(*) FROM movie_ratings WHERE movie_id=?),
		   (SELECT COALESCE(AVG(score),0) FROM movie_ratings WHERE movie_id=?),
		   (SELECT COUNT(*) FROM movie_favorites WHERE movie_id=?)`,
		movieID, movieID, movieID, movieID, movieID).
		Scan(&s.Likes, &s.Dislikes, &s.RatingCount, &s.RatingAvg, &s.Favorites)
	return s, err
}

// AddComment stores a comment or reply. A reply's parent must be a
// comment on the same movie; ErrNotFound is returned otherwise.
func (r *EngagementRepo) AddComment(ctx context.Context, movieID, userID uint64, parentID *uint64, body string) (model.Comment, error) {
	var cmt model.Comment
	if parentID != nil {
		var parentMovie uint64
		err := r.db.QueryRowContext(ctx,
			"SELECT movie_id FROM movie_comments WHERE id=? LIMIT 1",
			*parentID).Scan(&parentMovie)
		if err == sql.ErrNoRows || (err == nil && parentMovie != movieID) {
			return cmt, ErrNotFound
		}
		if err != nil {
			return cmt, err
		}
	}
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO movie_comments (movie_id, user_id, parent_id, body) VALUES (?,?,?,?)",
		movieID, userID, parentID, body)
	if err != nil {
		return cmt, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return cmt, err
	}
	err = r.db.QueryRowContext(ctx,
		"SELECT id, movie_id, user_id, parent_id, body, created_at FROM movie_comments WHERE id=?",
		id).Scan(&cmt.ID, &cmt.MovieID, &cmt.UserID, &cmt.ParentID, &cmt.Body, &cmt.CreatedAt)
	return cmt, err
}

// ListComments returns a movie's comments oldest first, replies
// included; callers nest them client-side via parent_id.
func (r *EngagementRepo) ListComments(ctx context.Context, movieID uint64) ([]model.Comment, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, movie_id, user_id, parent_id, body, created_at FROM movie_comments WHERE movie_id=? ORDER BY id",
		movieID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Comment{}
	for rows.Next() {
		var cmt model.Comment
		if err := rows.Scan(&cmt.ID, &cmt.MovieID, &cmt.UserID, &cmt.ParentID, &cmt.Body, &cmt.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, cmt)
	}
	return out, rows.Err()
}

// DeleteComment removes a comment the user authored. Replies to it
// are removed by the FK cascade. ErrForbidden is returned when the
// comment belongs to someone else and the caller is not an admin.
func (r *EngagementRepo) DeleteComment(ctx context.Context, commentID, userID uint64, admin bool) error {
	var owner uint64
	err := r.db.QueryRowContext(ctx,
		"SELECT user_id FROM movie_comments WHERE id=? LIMIT 1", commentID).Scan(&owner)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if owner != userID && !admin {
		return ErrForbidden
	}
	_, err = r.db.ExecContext(ctx, "DELETE FROM movie_comments WHERE id=?", commentID)
	return err
}
