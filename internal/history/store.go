package history

import (
	"context"
	"fmt"

	"github.com/raphaelgruber/wayword-go/internal/models"
	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// schemaSQL defines the place table. Moment groups are nested flexible
// objects; embeddings live inline with their moments so one snapshot query
// returns everything scoring needs.
const schemaSQL = `
    DEFINE TABLE IF NOT EXISTS place SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS name ON place TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS location ON place FLEXIBLE TYPE option<object>;
    DEFINE FIELD IF NOT EXISTS hour ON place TYPE option<int>;
    DEFINE FIELD IF NOT EXISTS time_label ON place TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS created_at ON place TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS context ON place TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS groups ON place FLEXIBLE TYPE array DEFAULT [];
    DEFINE FIELD IF NOT EXISTS stored ON place TYPE datetime DEFAULT time::now();

    DEFINE INDEX IF NOT EXISTS place_hour ON place FIELDS hour;
`

// placeRecord is the database shape of a historical place.
type placeRecord struct {
	ID        *surrealmodels.RecordID `json:"id,omitempty"`
	Name      *string                 `json:"name,omitempty"`
	Location  *models.LatLng          `json:"location,omitempty"`
	Hour      *int                    `json:"hour,omitempty"`
	TimeLabel *string                 `json:"time_label,omitempty"`
	CreatedAt *string                 `json:"created_at,omitempty"`
	Context   *string                 `json:"context,omitempty"`
	Groups    []models.MomentGroup    `json:"groups"`
}

func toRecord(p models.HistoricalPlace) placeRecord {
	return placeRecord{
		Name:      p.Name,
		Location:  p.Location,
		Hour:      p.Hour,
		TimeLabel: p.TimeLabel,
		CreatedAt: p.CreatedAt,
		Context:   p.Context,
		Groups:    p.Groups,
	}
}

func (r placeRecord) toPlace() (models.HistoricalPlace, error) {
	p := models.HistoricalPlace{
		Name:      r.Name,
		Location:  r.Location,
		Hour:      r.Hour,
		TimeLabel: r.TimeLabel,
		CreatedAt: r.CreatedAt,
		Context:   r.Context,
		Groups:    r.Groups,
	}
	if r.ID == nil {
		return p, fmt.Errorf("place record without id")
	}
	id, ok := r.ID.ID.(string)
	if !ok {
		return p, fmt.Errorf("unexpected place id type %T", r.ID.ID)
	}
	p.ID = "place:" + id
	return p, nil
}

// AddPlace stores a visited place and returns its assigned ID.
func (s *Store) AddPlace(ctx context.Context, place models.HistoricalPlace) (string, error) {
	results, err := surrealdb.Query[[]placeRecord](ctx, s.db,
		"CREATE place CONTENT $data", map[string]any{"data": toRecord(place)})
	if err != nil {
		return "", fmt.Errorf("add place: %w", err)
	}
	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return "", fmt.Errorf("add place: empty result")
	}
	stored, err := (*results)[0].Result[0].toPlace()
	if err != nil {
		return "", fmt.Errorf("add place: %w", err)
	}
	return stored.ID, nil
}

// Snapshot returns up to limit places, most recently stored first. The
// result is a read-only copy; the engine never writes back.
func (s *Store) Snapshot(ctx context.Context, limit int) ([]models.HistoricalPlace, error) {
	if limit <= 0 {
		limit = 500
	}
	results, err := surrealdb.Query[[]placeRecord](ctx, s.db,
		"SELECT * FROM place ORDER BY stored DESC LIMIT $limit",
		map[string]any{"limit": limit})
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	if results == nil || len(*results) == 0 {
		return []models.HistoricalPlace{}, nil
	}

	records := (*results)[0].Result
	places := make([]models.HistoricalPlace, 0, len(records))
	for _, r := range records {
		p, err := r.toPlace()
		if err != nil {
			// One malformed record degrades itself, not the snapshot.
			s.logger.Warn("skipping malformed place record", "error", err)
			continue
		}
		places = append(places, p)
	}
	return places, nil
}

// Count returns the number of stored places.
func (s *Store) Count(ctx context.Context) (int, error) {
	type countRow struct {
		Count int `json:"count"`
	}
	results, err := surrealdb.Query[[]countRow](ctx, s.db,
		"SELECT count() AS count FROM place GROUP ALL", nil)
	if err != nil {
		return 0, fmt.Errorf("count places: %w", err)
	}
	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return 0, nil
	}
	return (*results)[0].Result[0].Count, nil
}
