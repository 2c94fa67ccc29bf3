package importer

import (
	"context"
	"errors"
	"strings"

	"github.com/cheru-estates/listing-service/internal/models"
	"github.com/google/uuid"
)

// CatalogStore is the relational boundary the resolver works against:
// lookup-by-name and insert for the three catalog tables.
type CatalogStore interface {
	FindLocationByName(ctx context.Context, name string) (string, bool, error)
	CreateLocation(ctx context.Context, loc *models.Location) (string, error)
	FindNeighbourhoodByName(ctx context.Context, name, locationID string) (string, bool, error)
	CreateNeighbourhood(ctx context.Context, n *models.Neighbourhood) (string, error)
	FindAmenityByName(ctx context.Context, name string) (string, bool, error)
	CreateAmenity(ctx context.Context, a *models.Amenity) (string, error)
}

// Resolver maps free-text names from import rows to stable catalog entity
// ids, creating entities on first use. Lookups are trim + case-insensitive
// exact match. The lookup-then-create sequence holds no lock; the store's
// unique indexes are what keep racing imports from duplicating entries.
type Resolver struct {
	store CatalogStore
}

func NewResolver(store CatalogStore) *Resolver {
	return &Resolver{store: store}
}

// ResolveLocation returns the id of the existing location with the given
// name, creating it (with a derived slug) when absent.
func (r *Resolver) ResolveLocation(ctx context.Context, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.New("location name is required")
	}

	id, found, err := r.store.FindLocationByName(ctx, name)
	if err != nil {
		return "", err
	}
	if found {
		return id, nil
	}

	return r.store.CreateLocation(ctx, &models.Location{
		ID:   uuid.New().String(),
		Name: name,
		Slug: Slugify(name),
	})
}

// ResolveNeighbourhood returns the id of the named neighbourhood within the
// given location, creating it when absent. An empty name resolves to no
// neighbourhood at all.
func (r *Resolver) ResolveNeighbourhood(ctx context.Context, name, locationID string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", nil
	}

	id, found, err := r.store.FindNeighbourhoodByName(ctx, name, locationID)
	if err != nil {
		return "", err
	}
	if found {
		return id, nil
	}

	return r.store.CreateNeighbourhood(ctx, &models.Neighbourhood{
		ID:         uuid.New().String(),
		Name:       name,
		LocationID: locationID,
	})
}

// ResolveAmenities maps a list of amenity names to ids, creating missing
// amenities. Empty names are skipped and repeated names (case-insensitive)
// resolve once, so "Pool, Gym, Pool" yields two ids.
func (r *Resolver) ResolveAmenities(ctx context.Context, names []string) ([]string, error) {
	var ids []string
	seen := make(map[string]struct{}, len(names))

	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		key := strings.ToLower(name)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}

		id, found, err := r.store.FindAmenityByName(ctx, name)
		if err != nil {
			return nil, err
		}
		if !found {
			id, err = r.store.CreateAmenity(ctx, &models.Amenity{
				ID:   uuid.New().String(),
				Name: name,
			})
			if err != nil {
				return nil, err
			}
		}

		ids = append(ids, id)
	}

	return ids, nil
}
