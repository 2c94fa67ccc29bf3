package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/cheru-estates/listing-service/internal/models"
)

// fakeStore is an in-memory stand-in for the Postgres storage, implementing
// both the CatalogStore and ListingStore ports.
type fakeStore struct {
	mu sync.Mutex

	locations      map[string]*models.Location      // lower(name) -> location
	neighbourhoods map[string]*models.Neighbourhood // locationID + "|" + lower(name)
	amenities      map[string]*models.Amenity       // lower(name) -> amenity
	listings       map[string]*models.Listing
	amenityLinks   map[string][]string
	images         map[string][]*models.ListingImage

	locationCreates int
	amenityCreates  int

	failCreateListing bool
	failAmenityLookup bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		locations:      make(map[string]*models.Location),
		neighbourhoods: make(map[string]*models.Neighbourhood),
		amenities:      make(map[string]*models.Amenity),
		listings:       make(map[string]*models.Listing),
		amenityLinks:   make(map[string][]string),
		images:         make(map[string][]*models.ListingImage),
	}
}

func (s *fakeStore) FindLocationByName(_ context.Context, name string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if loc, ok := s.locations[strings.ToLower(name)]; ok {
		return loc.ID, true, nil
	}
	return "", false, nil
}

func (s *fakeStore) CreateLocation(_ context.Context, loc *models.Location) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locations[strings.ToLower(loc.Name)] = loc
	s.locationCreates++
	return loc.ID, nil
}

func (s *fakeStore) FindNeighbourhoodByName(_ context.Context, name, locationID string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n, ok := s.neighbourhoods[locationID+"|"+strings.ToLower(name)]; ok {
		return n.ID, true, nil
	}
	return "", false, nil
}

func (s *fakeStore) CreateNeighbourhood(_ context.Context, n *models.Neighbourhood) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.neighbourhoods[n.LocationID+"|"+strings.ToLower(n.Name)] = n
	return n.ID, nil
}

func (s *fakeStore) FindAmenityByName(_ context.Context, name string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAmenityLookup {
		return "", false, errors.New("amenity lookup failed")
	}
	if a, ok := s.amenities[strings.ToLower(name)]; ok {
		return a.ID, true, nil
	}
	return "", false, nil
}

func (s *fakeStore) CreateAmenity(_ context.Context, a *models.Amenity) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.amenities[strings.ToLower(a.Name)] = a
	s.amenityCreates++
	return a.ID, nil
}

func (s *fakeStore) CreateListing(_ context.Context, listing *models.Listing) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failCreateListing {
		return errors.New("listing insert failed")
	}
	copied := *listing
	s.listings[listing.ID] = &copied
	return nil
}

func (s *fakeStore) SetFeaturedImage(_ context.Context, listingID, imagePath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	listing, ok := s.listings[listingID]
	if !ok {
		return fmt.Errorf("listing %s not found", listingID)
	}
	listing.FeaturedImage = imagePath
	return nil
}

func (s *fakeStore) AddListingAmenity(_ context.Context, listingID, amenityID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.listings[listingID]; !ok {
		return fmt.Errorf("listing %s not found", listingID)
	}
	s.amenityLinks[listingID] = append(s.amenityLinks[listingID], amenityID)
	return nil
}

func (s *fakeStore) AddListingImage(_ context.Context, img *models.ListingImage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.listings[img.ListingID]; !ok {
		return fmt.Errorf("listing %s not found", img.ListingID)
	}
	s.images[img.ListingID] = append(s.images[img.ListingID], img)
	return nil
}

func (s *fakeStore) listingByTitle(title string) *models.Listing {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, listing := range s.listings {
		if listing.Title == title {
			return listing
		}
	}
	return nil
}

// fakeUploader records object-storage uploads.
type fakeUploader struct {
	mu      sync.Mutex
	keys    []string
	types   []string
	failAll bool
}

func (u *fakeUploader) UploadObject(_ context.Context, objectKey string, reader io.Reader, size int64, contentType string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.failAll {
		return errors.New("upload failed")
	}
	if _, err := io.Copy(io.Discard, reader); err != nil {
		return err
	}
	u.keys = append(u.keys, objectKey)
	u.types = append(u.types, contentType)
	return nil
}

// fakePublisher records listing.imported events.
type fakePublisher struct {
	mu      sync.Mutex
	events  []*models.ListingImportedEvent
	failAll bool
}

func (p *fakePublisher) PublishListingImported(_ context.Context, event *models.ListingImportedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failAll {
		return errors.New("publish failed")
	}
	p.events = append(p.events, event)
	return nil
}
