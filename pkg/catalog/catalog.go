// Package catalog implements the movie and genre catalog on top of an entity
// store, with a cache-aside layer that populates cached snapshots on read and
// invalidates them after writes.
package catalog

// Movie is a catalog movie record. Genres holds the ids of referenced genres.
type Movie struct {
	ID       string   `json:"id" firestore:"-"`
	Name     string   `json:"name" firestore:"name"`
	Director string   `json:"director" firestore:"director"`
	Actors   []string `json:"actors" firestore:"actors"`
	Rating   string   `json:"rating" firestore:"rating"`
	Image    string   `json:"image,omitempty" firestore:"image,omitempty"`
	Genres   []string `json:"genres" firestore:"genres"`
}

// Genre is a catalog genre. Movies is a denormalized back-reference list that is
// appended to by movie writes and never pruned.
type Genre struct {
	ID     string   `json:"id" firestore:"-"`
	Name   string   `json:"name" firestore:"name"`
	Movies []string `json:"movies" firestore:"movies"`
}

// GenreWithMovies is a Genre whose movie ids have been expanded into records.
type GenreWithMovies struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Movies []Movie `json:"movies"`
}

// MovieInput is the payload for creating a movie.
type MovieInput struct {
	Name     string   `json:"name" validate:"required"`
	Director string   `json:"director" validate:"required"`
	Actors   []string `json:"actors" validate:"required,min=1,dive,required"`
	Rating   string   `json:"rating" validate:"required,numeric"`
	Image    string   `json:"image,omitempty"`
	Genres   []string `json:"genres,omitempty" validate:"omitempty,dive,required"`
}

// Movie converts the input into a record without an id.
func (in MovieInput) Movie() Movie {
	return Movie{
		Name:     in.Name,
		Director: in.Director,
		Actors:   in.Actors,
		Rating:   in.Rating,
		Image:    in.Image,
		Genres:   nonNil(in.Genres),
	}
}

// MoviePatch is a partial movie update. Nil fields are left unchanged.
type MoviePatch struct {
	Name     *string  `json:"name,omitempty" validate:"omitempty,min=1"`
	Director *string  `json:"director,omitempty" validate:"omitempty,min=1"`
	Actors   []string `json:"actors,omitempty" validate:"omitempty,min=1,dive,required"`
	Rating   *string  `json:"rating,omitempty" validate:"omitempty,numeric"`
	Image    *string  `json:"image,omitempty"`
	Genres   []string `json:"genres,omitempty" validate:"omitempty,dive,required"`
}

// Apply returns m with the patch fields written over it.
func (p MoviePatch) Apply(m Movie) Movie {
	if p.Name != nil {
		m.Name = *p.Name
	}
	if p.Director != nil {
		m.Director = *p.Director
	}
	if p.Actors != nil {
		m.Actors = p.Actors
	}
	if p.Rating != nil {
		m.Rating = *p.Rating
	}
	if p.Image != nil {
		m.Image = *p.Image
	}
	if p.Genres != nil {
		m.Genres = p.Genres
	}
	return m
}

// GenreInput is the payload for creating a genre.
type GenreInput struct {
	Name string `json:"name" validate:"required"`
}

// Normalize replaces nil slices with empty ones so records always encode
// lists as [] rather than null.
func (m Movie) Normalize() Movie {
	m.Actors = nonNil(m.Actors)
	m.Genres = nonNil(m.Genres)
	return m
}

// Normalize replaces a nil movie list with an empty one.
func (g Genre) Normalize() Genre {
	g.Movies = nonNil(g.Movies)
	return g
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
