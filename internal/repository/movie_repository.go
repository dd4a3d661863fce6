package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/online-movie-store/internal/model"
)

// ErrMovieExists is returned when a movie with the same title,
// release year and duration already exists in the catalog.
var ErrMovieExists = errors.New("movie already exists")

// MovieRepo provides catalog persistence. Movies referenced by
// order items are never hard-deleted; Delete reports ErrConflict
// and callers fall back to clearing the availability flag.
type MovieRepo struct{ db *sql.DB }

func NewMovieRepo(db *sql.DB) *MovieRepo { return &MovieRepo{db: db} }

const movieCols = "id, uuid, title, release_year, duration_min, imdb, votes, description, price, is_available, created_at, updated_at"

func scanMovie(row interface{ Scan(...any) error }) (model.Movie, error) {
	var m model.Movie
	err := row.Scan(&m.ID, &m.UUID, &m.Title, &m.ReleaseYear, &m.DurationMin,
		&m.IMDb, &m.Votes, &m.Description, &m.Price, &m.IsAvailable,
		&m.CreatedAt, &m.UpdatedAt)
	return m, err
}

// Create inserts a movie with a generated public UUID and returns
// the stored record.
func (r *MovieRepo) Create(ctx context.Context, m *model.Movie) error {
	m.UUID = uuid.NewString()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO movies (uuid, title, release_year, duration_min, imdb, votes, description, price, is_available)
		 VALUES (?,?,?,?,?,?,?,?,?)`,
		m.UUID, m.Title, m.ReleaseYear, m.DurationMin, m.IMDb, m.Votes,
		m.Description, m.Price, m.IsAvailable)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return ErrMovieExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = uint64(id)
	stored, err := r.GetByID(ctx, m.ID)
	if err != nil {
		return err
	}
	*m = stored
	return nil
}

// GetByID fetches a movie by its internal id.
func (r *MovieRepo) GetByID(ctx context.Context, id uint64) (model.Movie, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+movieCols+" FROM movies WHERE id=? LIMIT 1", id)
	m, err := scanMovie(row)
	if err == sql.ErrNoRows {
		return m, ErrNotFound
	}
	return m, err
}

// List returns a page of the catalog ordered by newest first.
// When availableOnly is set, unavailable movies are filtered out.
func (r *MovieRepo) List(ctx context.Context, limit, offset int, availableOnly bool) ([]model.Movie, error) {
	q := "SELECT " + movieCols + " FROM movies"
	args := []any{}
	if availableOnly {
		q += " WHERE is_available=1"
	}
	q += " ORDER BY id DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Movie{}
	for rows.Next() {
		m, err := scanMovie(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Update overwrites the mutable fields of a movie.
func (r *MovieRepo) Update(ctx context.Context, m model.Movie) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE movies SET title=?, release_year=?, duration_min=?, imdb=?, votes=?, description=?, price=?, is_available=?
		 WHERE id=?`,
		m.Title, m.ReleaseYear, m.DurationMin, m.IMDb, m.Votes,
		m.Description, m.Price, m.IsAvailable, m.ID)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return ErrMovieExists
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.GetByID(ctx, m.ID); err != nil {
			return ErrNotFound
		}
	}
	return nil
}

// SetAvailability toggles the is_available flag only.
func (r *MovieRepo) SetAvailability(ctx context.Context, id uint64, available bool) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE movies SET is_available=? WHERE id=?", available, id)
	return err
}

// UpdatePrice changes the catalog price. Existing order items are
// unaffected since they carry their own price_at_order.
func (r *MovieRepo) UpdatePrice(ctx context.Context, id uint64, price decimal.Decimal) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE movies SET price=? WHERE id=?", price, id)
	return err
}

// Delete removes a movie from the catalog. If any order item
// references it the movie must be kept for order history and
// ErrConflict is returned instead.
func (r *MovieRepo) Delete(ctx context.Context, id uint64) error {
	var refs int
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM order_items WHERE movie_id=?", id).Scan(&refs); err != nil {
		return err
	}
	if refs > 0 {
		return ErrConflict
	}
	res, err := r.db.ExecContext(ctx, "DELETE FROM movies WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// SetGenres replaces the genre set of a movie. Genre rows are
// created on demand by name.
func (r *MovieRepo) SetGenres(ctx context.Context, movieID uint64, names []string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM movie_genres WHERE movie_id=?", movieID); err != nil {
		return err
	}
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT IGNORE INTO genres (name) VALUES (?)", name); err != nil {
			return err
		}
		var genreID uint64
		if err := tx.QueryRowContext(ctx,
			"SELECT id FROM genres WHERE name=? LIMIT 1", name).Scan(&genreID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT IGNORE INTO movie_genres (movie_id, genre_id) VALUES (?,?)",
			movieID, genreID); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// ListGenres returns every genre name in the catalog, sorted.
func (r *MovieRepo) ListGenres(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT name FROM genres ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

// ListByGenre returns a page of available movies tagged with the
// named genre. ErrNotFound is returned for an unknown genre so
// callers can distinguish it from an empty page.
func (r *MovieRepo) ListByGenre(ctx context.Context, name string, limit, offset int) ([]model.Movie, error) {
	var genreID uint64
	err := r.db.QueryRowContext(ctx,
		"SELECT id FROM genres WHERE name=? LIMIT 1", name).Scan(&genreID)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT m.id, m.uuid, m.title, m.release_year, m.duration_min, m.imdb, m.votes, m.description, m.price, m.is_available, m.created_at, m.updated_at
		 FROM movies m
		 JOIN movie_genres mg ON mg.movie_id = m.id
		 WHERE mg.genre_id = ? AND m.is_available = 1
		 ORDER BY m.id DESC LIMIT ? OFFSET ?`, genreID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Movie{}
	for rows.Next() {
		m, err := scanMovie(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// GenresByMovie returns the genre names attached to a movie.
func (r *MovieRepo) GenresByMovie(ctx context.Context, movieID uint64) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT g.name FROM genres g
		 JOIN movie_genres mg ON mg.genre_id = g.id
		 WHERE mg.movie_id=? ORDER BY g.name`, movieID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	return out, rows.Err()
}
