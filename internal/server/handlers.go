package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"marquee/internal/api"
	"marquee/internal/logging"
	"marquee/internal/services"
	"marquee/internal/tmdb"
	"marquee/internal/watchlist"
)

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	cfg := s.svc.Config
	payload := api.StatusResponse{
		Catalog: api.BackendStatus{
			Name:       "tmdb",
			Configured: s.svc.Catalog.Configured(),
			Detail:     cfg.TMDB.BaseURL,
		},
		Completion: api.BackendStatus{
			Name:       "completion",
			Configured: s.svc.Completion.Available(),
			Detail:     s.svc.Completion.Model(),
		},
		Watchlist: api.BackendStatus{
			Name:       "watchlist",
			Configured: s.svc.Watchlist != nil,
		},
		Recommendations: api.FromSnapshot(s.svc.State.Snapshot(), s.imageBase),
	}
	if s.svc.Watchlist != nil {
		payload.Watchlist.Detail = s.svc.Watchlist.Path()
	}
	s.writeJSON(w, http.StatusOK, payload)
}

func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	var req api.RecommendationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeServiceError(w, r, "recommend", err)
		return
	}
	// A disconnecting client must not abort the run: the result is still
	// published to the shared state other clients observe.
	ctx := context.WithoutCancel(r.Context())
	outcome, err := s.svc.Pipeline.Run(ctx, req.Prompt)
	if err != nil {
		s.writeServiceError(w, r, "recommend", err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.FromOutcome(outcome, s.imageBase))
}

func (s *Server) handleRecommendationState(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, api.FromSnapshot(s.svc.State.Snapshot(), s.imageBase))
}

func (s *Server) handleRecommendationReset(w http.ResponseWriter, r *http.Request) {
	s.svc.State.Reset()
	s.writeJSON(w, http.StatusOK, api.FromSnapshot(s.svc.State.Snapshot(), s.imageBase))
}

// handleRecommendationEvents streams state snapshots as server-sent events
// until the client disconnects or the server stops.
func (s *Server) handleRecommendationEvents(w http.ResponseWriter, r *http.Request) {
	rc := http.NewResponseController(w)
	_ = rc.SetWriteDeadline(time.Time{})

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	updates := s.svc.State.Subscribe(ctx)
	for {
		select {
		case <-s.closing:
			return
		case snap, ok := <-updates:
			if !ok {
				return
			}
			data, err := json.Marshal(api.FromSnapshot(snap, s.imageBase))
			if err != nil {
				s.logger.Error("failed to encode snapshot", logging.Error(err))
				return
			}
			if _, err := fmt.Fprintf(w, "id: %d\nevent: state\ndata: %s\n\n", snap.Generation, data); err != nil {
				return
			}
			if err := rc.Flush(); err != nil {
				return
			}
		}
	}
}

// handleMovies serves a category listing, or movie details when the path
// segment is numeric.
func (s *Server) handleMovies(w http.ResponseWriter, r *http.Request) {
	if s.svc.TMDB == nil {
		s.writeServiceError(w, r, "movies", catalogUnavailable("movies"))
		return
	}
	segment := r.PathValue("category")
	if id, err := strconv.ParseInt(segment, 10, 64); err == nil {
		details, err := s.svc.TMDB.MovieDetails(r.Context(), id)
		if err != nil {
			s.writeServiceError(w, r, "movie_details", err)
			return
		}
		s.writeJSON(w, http.StatusOK, api.FromMovie(details.Movie, s.imageBase))
		return
	}

	category, ok := tmdb.ParseCategory(segment)
	if !ok {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown category %q", segment))
		return
	}
	page := 1
	if raw := strings.TrimSpace(r.URL.Query().Get("page")); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil || value < 1 {
			s.writeError(w, http.StatusBadRequest, "invalid page")
			return
		}
		page = value
	}
	result, err := s.svc.TMDB.ListMovies(r.Context(), category, page)
	if err != nil {
		s.writeServiceError(w, r, "movies", err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.FromPage(category, result, s.imageBase))
}

func (s *Server) handleTrailer(w http.ResponseWriter, r *http.Request) {
	if s.svc.TMDB == nil {
		s.writeServiceError(w, r, "trailer", catalogUnavailable("trailer"))
		return
	}
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		s.writeError(w, http.StatusBadRequest, "invalid movie id")
		return
	}
	videos, err := s.svc.TMDB.MovieVideos(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, "trailer", err)
		return
	}
	resp := api.TrailerResponse{MovieID: id}
	if video, ok := tmdb.SelectTrailer(videos); ok {
		dto := api.FromVideo(video)
		resp.Trailer = &dto
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleWatchlist(w http.ResponseWriter, r *http.Request) {
	user, list, ok := s.watchlistScope(w, r)
	if !ok {
		return
	}
	ctx := services.WithUserID(r.Context(), user)
	entries, err := s.svc.Watchlist.List(ctx, user, list)
	if err != nil {
		s.writeServiceError(w, r, "watchlist_list", err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.FromEntries(list, entries, s.imageBase))
}

func (s *Server) handleWatchlistAdd(w http.ResponseWriter, r *http.Request) {
	user, list, ok := s.watchlistScope(w, r)
	if !ok {
		return
	}
	var req api.WatchlistAddRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeServiceError(w, r, "watchlist_add", err)
		return
	}
	ctx := services.WithUserID(r.Context(), user)
	movie, err := s.resolveMovie(ctx, req)
	if err != nil {
		s.writeServiceError(w, r, "watchlist_add", err)
		return
	}
	entry, err := s.svc.Watchlist.Add(ctx, user, list, movie)
	if err != nil {
		s.writeServiceError(w, r, "watchlist_add", err)
		return
	}
	logging.WithContext(ctx, s.logger).Info("watchlist entry added",
		logging.String("list", string(list)),
		logging.Int64("movie_id", movie.ID),
	)
	s.writeJSON(w, http.StatusCreated, api.FromEntry(entry, s.imageBase))
}

func (s *Server) handleWatchlistRemove(w http.ResponseWriter, r *http.Request) {
	user, list, ok := s.watchlistScope(w, r)
	if !ok {
		return
	}
	movieID, err := strconv.ParseInt(r.PathValue("movieID"), 10, 64)
	if err != nil || movieID <= 0 {
		s.writeError(w, http.StatusBadRequest, "invalid movie id")
		return
	}
	ctx := services.WithUserID(r.Context(), user)
	if err := s.svc.Watchlist.Remove(ctx, user, list, movieID); err != nil {
		s.writeServiceError(w, r, "watchlist_remove", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// watchlistScope validates the store, caller, and list for watchlist routes,
// writing the error response itself when any is missing.
func (s *Server) watchlistScope(w http.ResponseWriter, r *http.Request) (string, watchlist.List, bool) {
	if s.svc.Watchlist == nil {
		s.writeServiceError(w, r, "watchlist", services.Wrap(services.ErrUnavailable, "server", "watchlist", "watchlist is disabled", nil))
		return "", "", false
	}
	user, err := userFromRequest(r)
	if err != nil {
		s.writeError(w, http.StatusUnauthorized, err.Error())
		return "", "", false
	}
	list, ok := watchlist.ParseList(r.PathValue("list"))
	if !ok {
		s.writeError(w, http.StatusNotFound, fmt.Sprintf("unknown list %q", r.PathValue("list")))
		return "", "", false
	}
	return user, list, true
}

// resolveMovie prefers the movie payload supplied by the client and falls
// back to a details lookup when only an id was sent.
func (s *Server) resolveMovie(ctx context.Context, req api.WatchlistAddRequest) (tmdb.Movie, error) {
	if req.Movie != nil {
		movie := req.Movie.ToTMDB()
		if movie.ID == 0 {
			movie.ID = req.MovieID
		}
		return movie, nil
	}
	if req.MovieID <= 0 {
		return tmdb.Movie{}, services.Wrap(services.ErrValidation, "server", "watchlist_add", "movieId or movie is required", nil)
	}
	if s.svc.TMDB == nil {
		return tmdb.Movie{}, catalogUnavailable("watchlist_add")
	}
	details, err := s.svc.TMDB.MovieDetails(ctx, req.MovieID)
	if err != nil {
		return tmdb.Movie{}, err
	}
	return details.Movie, nil
}

func catalogUnavailable(operation string) error {
	return services.Wrap(services.ErrUnavailable, "server", operation, "catalog provider not configured", nil)
}
