package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/online-movie-store/internal/model"
	"github.com/iliyamo/online-movie-store/internal/repository"
)

// MovieHandler serves the public catalog and the admin catalog
// management endpoints.
type MovieHandler struct {
	Movies *repository.MovieRepo
}

func NewMovieHandler(m *repository.MovieRepo) *MovieHandler { return &MovieHandler{Movies: m} }

type movieReq struct {
	Title       string   `json:"title"`
	ReleaseYear int      `json:"release_year"`
	DurationMin int      `json:"duration_min"`
	IMDb        float64  `json:"imdb"`
	Votes       int      `json:"votes"`
	Description string   `json:"description"`
	Price       string   `json:"price"`
	IsAvailable *bool    `json:"is_available"`
	Genres      []string `json:"genres"`
}

type movieResp struct {
	ID          uint64    `json:"id"`
	UUID        string    `json:"uuid"`
	Title       string    `json:"title"`
	ReleaseYear int       `json:"release_year"`
	DurationMin int       `json:"duration_min"`
	IMDb        float64   `json:"imdb"`
	Votes       int       `json:"votes"`
	Description string    `json:"description"`
	Price       string    `json:"price"`
	IsAvailable bool      `json:"is_available"`
	Genres      []string  `json:"genres,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toMovieResp(m model.Movie, genres []string) movieResp {
	return movieResp{
		ID: m.ID, UUID: m.UUID, Title: m.Title,
		ReleaseYear: m.ReleaseYear, DurationMin: m.DurationMin,
		IMDb: m.IMDb, Votes: m.Votes, Description: m.Description,
		Price: m.Price.StringFixed(2), IsAvailable: m.IsAvailable,
		Genres: genres, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt,
	}
}

func (r movieReq) validate() (decimal.Decimal, string) {
	if r.Title == "" {
		return decimal.Zero, "title required"
	}
	if r.ReleaseYear < 1888 || r.ReleaseYear > time.Now().Year()+1 {
		return decimal.Zero, "invalid release_year"
	}
	if r.DurationMin <= 0 {
		return decimal.Zero, "invalid duration_min"
	}
	price, err := decimal.NewFromString(r.Price)
	if err != nil || price.IsNegative() {
		return decimal.Zero, "invalid price"
	}
	return price, ""
}

// List returns a page of the catalog. Unavailable movies are hidden
// unless ?all=true is passed (admins browsing retired titles).
func (h *MovieHandler) List(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	size, _ := strconv.Atoi(c.QueryParam("page_size"))
	if size < 1 {
		size = 20
	}
	if size > 100 {
		size = 100
	}
	availableOnly := c.QueryParam("all") != "true"

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	movies, err := h.Movies.List(ctx, size, (page-1)*size, availableOnly)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]movieResp, 0, len(movies))
	for _, m := range movies {
		out = append(out, toMovieResp(m, nil))
	}
	return c.JSON(http.StatusOK, echo.Map{"movies": out, "page": page, "page_size": size})
}

// Get returns one movie with its genres.
func (h *MovieHandler) Get(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	m, err := h.Movies.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "movie not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	genres, err := h.Movies.GenresByMovie(ctx, m.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, toMovieResp(m, genres))
}

// Create adds a movie to the catalog. Admin only.
func (h *MovieHandler) Create(c echo.Context) error {
	var req movieReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	price, msg := req.validate()
	if msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	available := true
	if req.IsAvailable != nil {
		available = *req.IsAvailable
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	m := model.Movie{
		Title:       req.Title,
		ReleaseYear: req.ReleaseYear,
		DurationMin: req.DurationMin,
		IMDb:        req.IMDb,
		Votes:       req.Votes,
		Description: req.Description,
		Price:       price,
		IsAvailable: available,
	}
	if err := h.Movies.Create(ctx, &m); err != nil {
		if err == repository.ErrMovieExists {
			return c.JSON(http.StatusConflict, echo.Map{"error": "movie already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create failed"})
	}
	if len(req.Genres) > 0 {
		if err := h.Movies.SetGenres(ctx, m.ID, req.Genres); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save genres failed"})
		}
	}
	genres, _ := h.Movies.GenresByMovie(ctx, m.ID)
	return c.JSON(http.StatusCreated, toMovieResp(m, genres))
}

// Update overwrites a movie's fields and genre set. Admin only.
func (h *MovieHandler) Update(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req movieReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	price, msg := req.validate()
	if msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	m, err := h.Movies.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "movie not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	m.Title = req.Title
	m.ReleaseYear = req.ReleaseYear
	m.DurationMin = req.DurationMin
	m.IMDb = req.IMDb
	m.Votes = req.Votes
	m.Description = req.Description
	m.Price = price
	if req.IsAvailable != nil {
		m.IsAvailable = *req.IsAvailable
	}
	if err := h.Movies.Update(ctx, m); err != nil {
		switch err {
		case repository.ErrNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "movie not found"})
		case repository.ErrMovieExists:
			return c.JSON(http.StatusConflict, echo.Map{"error": "movie already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	if req.Genres != nil {
		if err := h.Movies.SetGenres(ctx, m.ID, req.Genres); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save genres failed"})
		}
	}
	stored, err := h.Movies.GetByID(ctx, m.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	genres, _ := h.Movies.GenresByMovie(ctx, m.ID)
	return c.JSON(http.StatusOK, toMovieResp(stored, genres))
}

type updatePriceReq struct {
	Price string `json:"price"`
}

// UpdatePrice changes only the catalog price. Admin only. Existing
// orders keep their price_at_order snapshots.
func (h *MovieHandler) UpdatePrice(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req updatePriceReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	price, err := decimal.NewFromString(req.Price)
	if err != nil || price.IsNegative() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid price"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Movies.GetByID(ctx, id); err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "movie not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if err := h.Movies.UpdatePrice(ctx, id, price); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"id": id, "price": price.StringFixed(2)})
}

// Genres returns every genre name present in the catalog.
func (h *MovieHandler) Genres(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	genres, err := h.Movies.ListGenres(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"genres": genres})
}

// ByGenre returns a page of available movies tagged with the genre.
func (h *MovieHandler) ByGenre(c echo.Context) error {
	name := c.Param("name")
	if name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "genre required"})
	}
	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	size, _ := strconv.Atoi(c.QueryParam("page_size"))
	if size < 1 {
		size = 20
	}
	if size > 100 {
		size = 100
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	movies, err := h.Movies.ListByGenre(ctx, name, size, (page-1)*size)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "genre not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]movieResp, 0, len(movies))
	for _, m := range movies {
		out = append(out, toMovieResp(m, nil))
	}
	return c.JSON(http.StatusOK, echo.Map{
		"genre": name, "movies": out, "page": page, "page_size": size,
	})
}

// Delete removes a movie, or retires it when order history still
// references it.
func (h *MovieHandler) Delete(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	err := h.Movies.Delete(ctx, id)
	switch err {
	case nil:
		return c.NoContent(http.StatusNoContent)
	case repository.ErrNotFound:
		return c.JSON(http.StatusNotFound, echo.Map{"error": "movie not found"})
	case repository.ErrConflict:
		// Referenced by orders; keep the row for history.
		if err := h.Movies.SetAvailability(ctx, id, false); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "retire failed"})
		}
		return c.JSON(http.StatusOK, echo.Map{"detail": "movie retired from catalog"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
}
