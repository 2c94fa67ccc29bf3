package importer

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cheru-estates/listing-service/internal/models"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ErrNoRows is returned when a batch arrives with no rows to process.
var ErrNoRows = errors.New("no rows provided")

// ListingStore is the relational boundary for listing writes.
type ListingStore interface {
	CreateListing(ctx context.Context, listing *models.Listing) error
	SetFeaturedImage(ctx context.Context, listingID, imagePath string) error
	AddListingAmenity(ctx context.Context, listingID, amenityID string) error
	AddListingImage(ctx context.Context, img *models.ListingImage) error
}

// EventPublisher announces committed listings to downstream consumers.
type EventPublisher interface {
	PublishListingImported(ctx context.Context, event *models.ListingImportedEvent) error
}

// Importer runs bulk listing imports: rows in, per-row success/failure
// report out.
type Importer struct {
	resolver *Resolver
	assets   *AssetIngestor
	listings ListingStore
	events   EventPublisher
}

// New creates an Importer. events may be nil, in which case no
// listing.imported events are published.
func New(resolver *Resolver, assets *AssetIngestor, listings ListingStore, events EventPublisher) *Importer {
	return &Importer{
		resolver: resolver,
		assets:   assets,
		listings: listings,
		events:   events,
	}
}

// Run processes the rows strictly in input order. A row failure never stops
// the batch; it becomes an entry in the report carrying the 1-based row
// number and the failure reason. The whole batch is attempted before the
// report is returned. An empty batch is rejected with ErrNoRows.
func (i *Importer) Run(ctx context.Context, rows []models.ImportRow) (*models.ImportReport, error) {
	if len(rows) == 0 {
		return nil, ErrNoRows
	}

	log.Info().Int("rows", len(rows)).Msg("Starting bulk listing import")

	report := &models.ImportReport{
		FailedRows: []models.FailedRow{},
	}

	for idx, row := range rows {
		if err := i.processRow(ctx, row); err != nil {
			log.Warn().Err(err).Int("row", idx+1).Msg("Row import failed")
			report.FailedRows = append(report.FailedRows, models.FailedRow{
				Row:     idx + 1,
				Message: err.Error(),
			})
			continue
		}
		report.SuccessCount++
	}

	report.FailedCount = len(report.FailedRows)

	log.Info().
		Int("success_count", report.SuccessCount).
		Int("failed_count", report.FailedCount).
		Msg("Bulk listing import finished")

	return report, nil
}

// processRow imports one listing. There is no compensating rollback: when a
// later step fails, the listing and whatever links and images were written
// before the failure stay persisted, and the operator resubmits the row.
func (i *Importer) processRow(ctx context.Context, row models.ImportRow) error {
	title := strings.TrimSpace(row.Title)
	listingType := strings.TrimSpace(row.ListingType)
	propertyType := strings.TrimSpace(row.PropertyType)
	locationName := strings.TrimSpace(row.Location)
	neighbourhoodName := strings.TrimSpace(row.Neighbourhood)

	if title == "" || listingType == "" || locationName == "" {
		return errors.New("Missing required fields.")
	}

	locationID, err := i.resolver.ResolveLocation(ctx, locationName)
	if err != nil {
		return err
	}

	neighbourhoodID, err := i.resolver.ResolveNeighbourhood(ctx, neighbourhoodName, locationID)
	if err != nil {
		return err
	}

	status := strings.TrimSpace(row.Status)
	if status == "" {
		status = models.StatusDraft
	}

	listing := &models.Listing{
		ID:              uuid.New().String(),
		Title:           title,
		Description:     strings.TrimSpace(row.Description),
		Price:           parseFloat(row.Price),
		PropertyType:    propertyType,
		ListingType:     listingType,
		LocationID:      locationID,
		NeighbourhoodID: neighbourhoodID,
		Size:            parseFloat(row.Size),
		LandSize:        parseFloat(row.LandSize),
		Bedrooms:        parseInt(row.Bedrooms),
		Bathrooms:       parseInt(row.Bathrooms),
		YearBuilt:       parseInt(row.YearBuilt),
		Floor:           parseInt(row.Floor),
		ApartmentName:   strings.TrimSpace(row.ApartmentName),
		Status:          status,
	}

	if err := i.listings.CreateListing(ctx, listing); err != nil {
		return err
	}

	amenityIDs, err := i.resolver.ResolveAmenities(ctx, splitList(row.Amenities))
	if err != nil {
		return err
	}
	for _, amenityID := range amenityIDs {
		if err := i.listings.AddListingAmenity(ctx, listing.ID, amenityID); err != nil {
			return err
		}
	}

	if featured := strings.TrimSpace(row.FeaturedImage); featured != "" {
		imagePath, err := i.assets.Ingest(ctx, listing.ID, featured, "featured")
		if err != nil {
			return err
		}
		if err := i.listings.SetFeaturedImage(ctx, listing.ID, imagePath); err != nil {
			return err
		}
		if err := i.listings.AddListingImage(ctx, &models.ListingImage{
			ID:         uuid.New().String(),
			ListingID:  listing.ID,
			ImagePath:  imagePath,
			IsFeatured: true,
		}); err != nil {
			return err
		}
	}

	for n, reference := range splitList(row.GalleryImages) {
		imagePath, err := i.assets.Ingest(ctx, listing.ID, reference, fmt.Sprintf("gallery-%d", n+1))
		if err != nil {
			return err
		}
		if err := i.listings.AddListingImage(ctx, &models.ListingImage{
			ID:        uuid.New().String(),
			ListingID: listing.ID,
			ImagePath: imagePath,
			Position:  n + 1,
		}); err != nil {
			return err
		}
	}

	if i.events != nil {
		event := &models.ListingImportedEvent{
			ListingID:   listing.ID,
			Title:       listing.Title,
			ListingType: listing.ListingType,
			LocationID:  listing.LocationID,
			Status:      listing.Status,
			Timestamp:   time.Now(),
		}
		// Best effort: the listing is already committed, a publish failure
		// must not fail the row.
		if err := i.events.PublishListingImported(ctx, event); err != nil {
			log.Error().Err(err).Str("listing_id", listing.ID).Msg("Failed to publish listing.imported event")
		}
	}

	return nil
}

// splitList parses a comma-separated cell into trimmed, non-empty tokens.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parseFloat parses a numeric cell permissively: an absent or unparsable
// value is stored as NULL rather than failing the row.
func parseFloat(v models.FlexString) *float64 {
	s := strings.TrimSpace(string(v))
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}

func parseInt(v models.FlexString) *int {
	s := strings.TrimSpace(string(v))
	if s == "" {
		return nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		return &n
	}
	// spreadsheet exports sometimes write integers as "3.0"
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	n := int(f)
	return &n
}
