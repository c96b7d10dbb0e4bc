package api

import (
	"marquee/internal/recommend"
	"marquee/internal/tmdb"
	"marquee/internal/watchlist"
)

// FromMovie converts a catalog entry, resolving the poster against imageBase.
func FromMovie(m tmdb.Movie, imageBase string) Movie {
	return Movie{
		ID:               m.ID,
		Title:            m.DisplayTitle(),
		OriginalTitle:    m.OriginalTitle,
		OriginalLanguage: m.OriginalLanguage,
		Overview:         m.Overview,
		ReleaseDate:      m.ReleaseDate,
		Year:             m.Year(),
		PosterPath:       m.PosterPath,
		PosterURL:        m.PosterURL(imageBase),
		BackdropPath:     m.BackdropPath,
		GenreIDs:         m.GenreIDs,
		Popularity:       m.Popularity,
		VoteAverage:      m.VoteAverage,
		VoteCount:        m.VoteCount,
		Adult:            m.Adult,
	}
}

// FromMovies converts a slice of catalog entries. The result is never nil.
func FromMovies(movies []tmdb.Movie, imageBase string) []Movie {
	out := make([]Movie, 0, len(movies))
	for _, m := range movies {
		out = append(out, FromMovie(m, imageBase))
	}
	return out
}

// ToTMDB converts a transport movie back into a catalog entry.
func (m Movie) ToTMDB() tmdb.Movie {
	return tmdb.Movie{
		ID:               m.ID,
		Title:            m.Title,
		OriginalTitle:    m.OriginalTitle,
		OriginalLanguage: m.OriginalLanguage,
		Overview:         m.Overview,
		PosterPath:       m.PosterPath,
		BackdropPath:     m.BackdropPath,
		ReleaseDate:      m.ReleaseDate,
		GenreIDs:         m.GenreIDs,
		Popularity:       m.Popularity,
		VoteAverage:      m.VoteAverage,
		VoteCount:        m.VoteCount,
		Adult:            m.Adult,
	}
}

// FromOutcome converts a pipeline outcome.
func FromOutcome(outcome recommend.Outcome, imageBase string) Recommendation {
	return fromResult(outcome.Result, outcome.State, outcome.Source, outcome.Notice, imageBase)
}

func fromResult(result recommend.ResolutionResult, state recommend.PipelineState, source recommend.Source, notice, imageBase string) Recommendation {
	titles := result.Titles
	if titles == nil {
		titles = []string{}
	}
	rec := Recommendation{
		State:          state.String(),
		Source:         string(source),
		Notice:         notice,
		Titles:         titles,
		ResultsByTitle: make([][]Movie, len(result.ResultsByTitle)),
	}
	for i, movies := range result.ResultsByTitle {
		rec.ResultsByTitle[i] = FromMovies(movies, imageBase)
	}
	return rec
}

// FromSnapshot converts the shared pipeline state.
func FromSnapshot(snap recommend.Snapshot, imageBase string) RecommendationState {
	dto := RecommendationState{
		State:      snap.State.String(),
		Busy:       snap.Busy,
		Generation: snap.Generation,
		Prompt:     snap.Prompt,
		Notice:     snap.Notice,
		Error:      snap.Error,
	}
	if !snap.UpdatedAt.IsZero() {
		dto.UpdatedAt = snap.UpdatedAt.UTC().Format(dateTimeFormat)
	}
	if snap.Result != nil {
		rec := fromResult(*snap.Result, snap.State, snap.Source, snap.Notice, imageBase)
		dto.Result = &rec
	}
	return dto
}

// FromPage converts a listing page.
func FromPage(category tmdb.Category, page *tmdb.Page, imageBase string) MovieListResponse {
	resp := MovieListResponse{Category: string(category), Movies: []Movie{}}
	if page == nil {
		return resp
	}
	resp.Page = page.Page
	resp.TotalPages = page.TotalPages
	resp.TotalResults = page.TotalResults
	resp.Movies = FromMovies(page.Results, imageBase)
	return resp
}

// FromVideo converts a TMDB video.
func FromVideo(v tmdb.Video) Video {
	return Video{
		Key:      v.Key,
		Name:     v.Name,
		Site:     v.Site,
		Type:     v.Type,
		Official: v.Official,
		URL:      v.WatchURL(),
	}
}

// FromEntries converts watchlist entries.
func FromEntries(list watchlist.List, entries []watchlist.Entry, imageBase string) WatchlistResponse {
	resp := WatchlistResponse{
		List:    string(list),
		Count:   len(entries),
		Entries: make([]WatchlistEntry, 0, len(entries)),
	}
	for _, e := range entries {
		resp.Entries = append(resp.Entries, FromEntry(e, imageBase))
	}
	return resp
}

// FromEntry converts a single watchlist entry.
func FromEntry(e watchlist.Entry, imageBase string) WatchlistEntry {
	dto := WatchlistEntry{
		List:  string(e.List),
		Movie: FromMovie(e.Movie, imageBase),
	}
	if !e.AddedAt.IsZero() {
		dto.AddedAt = e.AddedAt.UTC().Format(dateTimeFormat)
	}
	return dto
}
