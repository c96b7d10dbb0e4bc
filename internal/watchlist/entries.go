package watchlist

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"marquee/internal/services"
	"marquee/internal/tmdb"
)

// List names one of a user's saved lists.
type List string

const (
	WatchLater List = "watch_later"
	Favorites  List = "favorites"
)

// Lists returns every supported list.
func Lists() []List {
	return []List{WatchLater, Favorites}
}

// ParseList accepts the stored spelling as well as dashed/spaced variants
// such as "watch-later" and "favourites".
func ParseList(value string) (List, bool) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	normalized = strings.NewReplacer("-", "_", " ", "_").Replace(normalized)
	switch normalized {
	case "watch_later", "watchlater", "later":
		return WatchLater, true
	case "favorites", "favourites", "favorite", "favs":
		return Favorites, true
	default:
		return "", false
	}
}

// Entry is a movie saved to a list.
type Entry struct {
	UserID  string     `json:"user_id"`
	List    List       `json:"list"`
	Movie   tmdb.Movie `json:"movie"`
	AddedAt time.Time  `json:"added_at"`
}

func validateScope(operation, userID string, list List) (string, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", services.Wrap(services.ErrValidation, "watchlist", operation, "user id required", nil)
	}
	if list != WatchLater && list != Favorites {
		return "", services.Wrap(services.ErrValidation, "watchlist", operation, fmt.Sprintf("unknown list %q", list), nil)
	}
	return userID, nil
}

// Add saves movie to the user's list. Adding a movie that is already on the
// list returns ErrDuplicate and leaves the existing entry untouched.
func (s *Store) Add(ctx context.Context, userID string, list List, movie tmdb.Movie) (Entry, error) {
	userID, err := validateScope("add", userID, list)
	if err != nil {
		return Entry{}, err
	}
	if movie.ID <= 0 {
		return Entry{}, services.Wrap(services.ErrValidation, "watchlist", "add", "movie id must be positive", nil)
	}
	payload, err := json.Marshal(movie)
	if err != nil {
		return Entry{}, fmt.Errorf("encode movie: %w", err)
	}
	addedAt := s.now().UTC()
	res, err := s.execWithRetry(ctx,
		`INSERT INTO entries (user_id, list, movie_id, title, payload, added_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (user_id, list, movie_id) DO NOTHING`,
		userID, string(list), movie.ID, movie.DisplayTitle(), string(payload), addedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return Entry{}, fmt.Errorf("insert entry: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return Entry{}, fmt.Errorf("insert entry rows affected: %w", err)
	}
	if affected == 0 {
		return Entry{}, services.Wrap(services.ErrDuplicate, "watchlist", "add",
			fmt.Sprintf("%q is already in %s", movie.DisplayTitle(), list), nil)
	}
	return Entry{UserID: userID, List: list, Movie: movie, AddedAt: addedAt}, nil
}

// Remove deletes a movie from the user's list.
func (s *Store) Remove(ctx context.Context, userID string, list List, movieID int64) error {
	userID, err := validateScope("remove", userID, list)
	if err != nil {
		return err
	}
	res, err := s.execWithRetry(ctx,
		"DELETE FROM entries WHERE user_id = ? AND list = ? AND movie_id = ?",
		userID, string(list), movieID,
	)
	if err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete entry rows affected: %w", err)
	}
	if affected == 0 {
		return services.Wrap(services.ErrNotFound, "watchlist", "remove",
			fmt.Sprintf("movie %d is not in %s", movieID, list), nil)
	}
	return nil
}

// List returns the user's entries, newest first.
func (s *Store) List(ctx context.Context, userID string, list List) ([]Entry, error) {
	userID, err := validateScope("list", userID, list)
	if err != nil {
		return nil, err
	}
	ctx = ensureContext(ctx)
	var rows *sql.Rows
	if err := retryOnBusy(ctx, func() error {
		var queryErr error
		rows, queryErr = s.db.QueryContext(ctx,
			"SELECT payload, added_at FROM entries WHERE user_id = ? AND list = ? ORDER BY id DESC",
			userID, string(list),
		)
		return queryErr
	}); err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var payload, addedAt string
		if err := rows.Scan(&payload, &addedAt); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		entry := Entry{UserID: userID, List: list}
		if err := json.Unmarshal([]byte(payload), &entry.Movie); err != nil {
			return nil, fmt.Errorf("decode entry payload: %w", err)
		}
		if ts, err := time.Parse(time.RFC3339Nano, addedAt); err == nil {
			entry.AddedAt = ts
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return entries, nil
}

// Contains reports whether movieID is on the user's list.
func (s *Store) Contains(ctx context.Context, userID string, list List, movieID int64) (bool, error) {
	userID, err := validateScope("contains", userID, list)
	if err != nil {
		return false, err
	}
	var count int
	err = s.db.QueryRowContext(ensureContext(ctx),
		"SELECT COUNT(1) FROM entries WHERE user_id = ? AND list = ? AND movie_id = ?",
		userID, string(list), movieID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("query entry: %w", err)
	}
	return count > 0, nil
}

// Count returns the number of entries on the user's list.
func (s *Store) Count(ctx context.Context, userID string, list List) (int, error) {
	userID, err := validateScope("count", userID, list)
	if err != nil {
		return 0, err
	}
	var count int
	err = s.db.QueryRowContext(ensureContext(ctx),
		"SELECT COUNT(1) FROM entries WHERE user_id = ? AND list = ?",
		userID, string(list),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count entries: %w", err)
	}
	return count, nil
}
