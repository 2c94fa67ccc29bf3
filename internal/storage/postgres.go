package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/cheru-estates/listing-service/internal/models"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

type PostgresStorage struct {
	db *sql.DB
}

func NewPostgresStorage(host, port, user, password, dbName, sslMode string) (*PostgresStorage, error) {
	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		host, port, user, password, dbName, sslMode)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping db: %w", err)
	}

	storage := &PostgresStorage{db: db}
	if err := storage.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize db schema: %w", err)
	}

	return storage, nil
}

// Init creates necessary tables. The unique indexes on lower(name) back the
// get-or-create paths: racing imports that insert the same name resolve to a
// single row instead of producing duplicates.
func (s *PostgresStorage) Init() error {
	query := `
	CREATE TABLE IF NOT EXISTS locations (
		id VARCHAR(36) PRIMARY KEY,
		name TEXT NOT NULL,
		slug TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_locations_name_unique ON locations (lower(name));
	CREATE UNIQUE INDEX IF NOT EXISTS idx_locations_slug_unique ON locations (slug);

	CREATE TABLE IF NOT EXISTS neighbourhoods (
		id VARCHAR(36) PRIMARY KEY,
		name TEXT NOT NULL,
		location_id VARCHAR(36) NOT NULL REFERENCES locations(id) ON DELETE CASCADE,
		created_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_neighbourhoods_name_unique ON neighbourhoods (location_id, lower(name));

	CREATE TABLE IF NOT EXISTS amenities (
		id VARCHAR(36) PRIMARY KEY,
		name TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_amenities_name_unique ON amenities (lower(name));

	CREATE TABLE IF NOT EXISTS listings (
		id VARCHAR(36) PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT,
		price NUMERIC,
		property_type VARCHAR(100),
		listing_type VARCHAR(100) NOT NULL,
		location_id VARCHAR(36) NOT NULL REFERENCES locations(id),
		neighbourhood_id VARCHAR(36) REFERENCES neighbourhoods(id),
		size NUMERIC,
		land_size NUMERIC,
		bedrooms INTEGER,
		bathrooms INTEGER,
		year_built INTEGER,
		floor INTEGER,
		apartment_name TEXT,
		featured_image TEXT,
		status VARCHAR(50) NOT NULL DEFAULT 'draft',
		created_at TIMESTAMP NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_listings_location_id ON listings(location_id);
	CREATE INDEX IF NOT EXISTS idx_listings_status ON listings(status);

	CREATE TABLE IF NOT EXISTS listing_amenities (
		listing_id VARCHAR(36) NOT NULL REFERENCES listings(id) ON DELETE CASCADE,
		amenity_id VARCHAR(36) NOT NULL REFERENCES amenities(id) ON DELETE CASCADE,
		created_at TIMESTAMP NOT NULL DEFAULT NOW(),
		PRIMARY KEY (listing_id, amenity_id)
	);

	CREATE TABLE IF NOT EXISTS listing_images (
		id VARCHAR(36) PRIMARY KEY,
		listing_id VARCHAR(36) NOT NULL REFERENCES listings(id) ON DELETE CASCADE,
		image_path TEXT NOT NULL,
		is_featured BOOLEAN NOT NULL DEFAULT FALSE,
		position INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_listing_images_listing_id ON listing_images(listing_id);`

	_, err := s.db.Exec(query)
	return err
}

// FindLocationByName looks up a location by case-insensitive exact name
func (s *PostgresStorage) FindLocationByName(ctx context.Context, name string) (string, bool, error) {
	var id string
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM locations WHERE lower(name) = lower($1)`, name).Scan(&id)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to query location by name: %w", err)
	}
	return id, true, nil
}

// CreateLocation inserts a location and returns its id. A concurrent insert
// of the same name falls back to the existing row via the unique index.
func (s *PostgresStorage) CreateLocation(ctx context.Context, loc *models.Location) (string, error) {
	query := `
	INSERT INTO locations (id, name, slug, created_at)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT ((lower(name))) DO UPDATE SET name = EXCLUDED.name
	RETURNING id`

	if loc.CreatedAt.IsZero() {
		loc.CreatedAt = time.Now()
	}

	var id string
	err := s.db.QueryRowContext(ctx, query, loc.ID, loc.Name, loc.Slug, loc.CreatedAt).Scan(&id)
	if err != nil {
		log.Error().Err(err).Str("name", loc.Name).Msg("Failed to create location")
		return "", fmt.Errorf("failed to create location: %w", err)
	}
	return id, nil
}

// FindNeighbourhoodByName looks up a neighbourhood by case-insensitive exact
// name within one location
func (s *PostgresStorage) FindNeighbourhoodByName(ctx context.Context, name, locationID string) (string, bool, error) {
	var id string
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM neighbourhoods WHERE location_id = $1 AND lower(name) = lower($2)`,
		locationID, name).Scan(&id)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to query neighbourhood by name: %w", err)
	}
	return id, true, nil
}

// CreateNeighbourhood inserts a neighbourhood scoped to its location and
// returns its id
func (s *PostgresStorage) CreateNeighbourhood(ctx context.Context, n *models.Neighbourhood) (string, error) {
	query := `
	INSERT INTO neighbourhoods (id, name, location_id, created_at)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (location_id, (lower(name))) DO UPDATE SET name = EXCLUDED.name
	RETURNING id`

	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}

	var id string
	err := s.db.QueryRowContext(ctx, query, n.ID, n.Name, n.LocationID, n.CreatedAt).Scan(&id)
	if err != nil {
		log.Error().Err(err).Str("name", n.Name).Str("location_id", n.LocationID).Msg("Failed to create neighbourhood")
		return "", fmt.Errorf("failed to create neighbourhood: %w", err)
	}
	return id, nil
}

// FindAmenityByName looks up an amenity by case-insensitive exact name
func (s *PostgresStorage) FindAmenityByName(ctx context.Context, name string) (string, bool, error) {
	var id string
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM amenities WHERE lower(name) = lower($1)`, name).Scan(&id)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to query amenity by name: %w", err)
	}
	return id, true, nil
}

// CreateAmenity inserts an amenity and returns its id
func (s *PostgresStorage) CreateAmenity(ctx context.Context, a *models.Amenity) (string, error) {
	query := `
	INSERT INTO amenities (id, name, created_at)
	VALUES ($1, $2, $3)
	ON CONFLICT ((lower(name))) DO UPDATE SET name = EXCLUDED.name
	RETURNING id`

	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}

	var id string
	err := s.db.QueryRowContext(ctx, query, a.ID, a.Name, a.CreatedAt).Scan(&id)
	if err != nil {
		log.Error().Err(err).Str("name", a.Name).Msg("Failed to create amenity")
		return "", fmt.Errorf("failed to create amenity: %w", err)
	}
	return id, nil
}

// CreateListing inserts a new listing row
func (s *PostgresStorage) CreateListing(ctx context.Context, listing *models.Listing) error {
	query := `
	INSERT INTO listings (
		id, title, description, price, property_type, listing_type,
		location_id, neighbourhood_id, size, land_size, bedrooms, bathrooms,
		year_built, floor, apartment_name, featured_image, status,
		created_at, updated_at
	) VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19
	)`

	now := time.Now()
	if listing.CreatedAt.IsZero() {
		listing.CreatedAt = now
	}
	listing.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, query,
		listing.ID, listing.Title, nullString(listing.Description), listing.Price,
		nullString(listing.PropertyType), listing.ListingType,
		listing.LocationID, nullString(listing.NeighbourhoodID),
		listing.Size, listing.LandSize, listing.Bedrooms, listing.Bathrooms,
		listing.YearBuilt, listing.Floor, nullString(listing.ApartmentName),
		nullString(listing.FeaturedImage), listing.Status,
		listing.CreatedAt, listing.UpdatedAt,
	)
	if err != nil {
		log.Error().Err(err).Str("title", listing.Title).Msg("Failed to create listing")
		return fmt.Errorf("failed to create listing: %w", err)
	}

	return nil
}

// SetFeaturedImage attaches the resolved featured image path to a listing
func (s *PostgresStorage) SetFeaturedImage(ctx context.Context, listingID, imagePath string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE listings SET featured_image = $2, updated_at = $3 WHERE id = $1`,
		listingID, imagePath, time.Now())
	if err != nil {
		log.Error().Err(err).Str("listing_id", listingID).Msg("Failed to set featured image")
		return fmt.Errorf("failed to set featured image: %w", err)
	}
	return nil
}

// AddListingAmenity links an amenity to a listing
func (s *PostgresStorage) AddListingAmenity(ctx context.Context, listingID, amenityID string) error {
	query := `
	INSERT INTO listing_amenities (listing_id, amenity_id, created_at)
	VALUES ($1, $2, $3)
	ON CONFLICT (listing_id, amenity_id) DO NOTHING`

	_, err := s.db.ExecContext(ctx, query, listingID, amenityID, time.Now())
	if err != nil {
		log.Error().Err(err).Str("listing_id", listingID).Str("amenity_id", amenityID).Msg("Failed to add listing amenity")
		return fmt.Errorf("failed to add listing amenity: %w", err)
	}
	return nil
}

// AddListingImage records a stored image for a listing
func (s *PostgresStorage) AddListingImage(ctx context.Context, img *models.ListingImage) error {
	query := `
	INSERT INTO listing_images (id, listing_id, image_path, is_featured, position, created_at)
	VALUES ($1, $2, $3, $4, $5, $6)`

	if img.CreatedAt.IsZero() {
		img.CreatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, query,
		img.ID, img.ListingID, img.ImagePath, img.IsFeatured, img.Position, img.CreatedAt)
	if err != nil {
		log.Error().Err(err).Str("listing_id", img.ListingID).Msg("Failed to add listing image")
		return fmt.Errorf("failed to add listing image: %w", err)
	}
	return nil
}

// ListListings returns recent listings for the admin console
func (s *PostgresStorage) ListListings(ctx context.Context, limit int) ([]*models.Listing, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
	SELECT id, title, description, price, property_type, listing_type,
		   location_id, neighbourhood_id, size, land_size, bedrooms, bathrooms,
		   year_built, floor, apartment_name, featured_image, status,
		   created_at, updated_at
	FROM listings
	ORDER BY created_at DESC
	LIMIT $1`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var listings []*models.Listing
	for rows.Next() {
		listing, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		listings = append(listings, listing)
	}

	return listings, rows.Err()
}

// GetListingDetails retrieves one listing with catalog names, amenities and
// images for the admin detail view
func (s *PostgresStorage) GetListingDetails(ctx context.Context, id string) (*models.ListingDetails, bool, error) {
	query := `
	SELECT l.id, l.title, l.description, l.price, l.property_type, l.listing_type,
		   l.location_id, l.neighbourhood_id, l.size, l.land_size, l.bedrooms, l.bathrooms,
		   l.year_built, l.floor, l.apartment_name, l.featured_image, l.status,
		   l.created_at, l.updated_at,
		   loc.name, COALESCE(n.name, '')
	FROM listings l
	JOIN locations loc ON loc.id = l.location_id
	LEFT JOIN neighbourhoods n ON n.id = l.neighbourhood_id
	WHERE l.id = $1`

	details := &models.ListingDetails{}
	var description, propertyType, neighbourhoodID, apartmentName, featuredImage sql.NullString

	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&details.ID, &details.Title, &description, &details.Price,
		&propertyType, &details.ListingType,
		&details.LocationID, &neighbourhoodID,
		&details.Size, &details.LandSize, &details.Bedrooms, &details.Bathrooms,
		&details.YearBuilt, &details.Floor, &apartmentName, &featuredImage,
		&details.Status, &details.CreatedAt, &details.UpdatedAt,
		&details.LocationName, &details.NeighbourhoodName,
	)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get listing details: %w", err)
	}

	details.Description = description.String
	details.PropertyType = propertyType.String
	details.NeighbourhoodID = neighbourhoodID.String
	details.ApartmentName = apartmentName.String
	details.FeaturedImage = featuredImage.String

	amenities, err := s.listingAmenityNames(ctx, id)
	if err != nil {
		return nil, false, err
	}
	details.Amenities = amenities

	images, err := s.listingImages(ctx, id)
	if err != nil {
		return nil, false, err
	}
	details.Images = images

	return details, true, nil
}

func (s *PostgresStorage) listingAmenityNames(ctx context.Context, listingID string) ([]string, error) {
	query := `
	SELECT a.name
	FROM amenities a
	INNER JOIN listing_amenities la ON la.amenity_id = a.id
	WHERE la.listing_id = $1
	ORDER BY a.name`

	rows, err := s.db.QueryContext(ctx, query, listingID)
	if err != nil {
		return nil, fmt.Errorf("failed to query listing amenities: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}

	return names, rows.Err()
}

func (s *PostgresStorage) listingImages(ctx context.Context, listingID string) ([]*models.ListingImage, error) {
	query := `
	SELECT id, listing_id, image_path, is_featured, position, created_at
	FROM listing_images
	WHERE listing_id = $1
	ORDER BY is_featured DESC, position ASC`

	rows, err := s.db.QueryContext(ctx, query, listingID)
	if err != nil {
		return nil, fmt.Errorf("failed to query listing images: %w", err)
	}
	defer rows.Close()

	var images []*models.ListingImage
	for rows.Next() {
		img := &models.ListingImage{}
		if err := rows.Scan(&img.ID, &img.ListingID, &img.ImagePath,
			&img.IsFeatured, &img.Position, &img.CreatedAt); err != nil {
			return nil, err
		}
		images = append(images, img)
	}

	return images, rows.Err()
}

// ListLocations returns all locations ordered by name
func (s *PostgresStorage) ListLocations(ctx context.Context) ([]*models.Location, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, slug, created_at FROM locations ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var locations []*models.Location
	for rows.Next() {
		loc := &models.Location{}
		if err := rows.Scan(&loc.ID, &loc.Name, &loc.Slug, &loc.CreatedAt); err != nil {
			return nil, err
		}
		locations = append(locations, loc)
	}

	return locations, rows.Err()
}

// ListNeighbourhoods returns all neighbourhoods ordered by name
func (s *PostgresStorage) ListNeighbourhoods(ctx context.Context) ([]*models.Neighbourhood, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, location_id, created_at FROM neighbourhoods ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var neighbourhoods []*models.Neighbourhood
	for rows.Next() {
		n := &models.Neighbourhood{}
		if err := rows.Scan(&n.ID, &n.Name, &n.LocationID, &n.CreatedAt); err != nil {
			return nil, err
		}
		neighbourhoods = append(neighbourhoods, n)
	}

	return neighbourhoods, rows.Err()
}

// ListAmenities returns all amenities ordered by name
func (s *PostgresStorage) ListAmenities(ctx context.Context) ([]*models.Amenity, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, created_at FROM amenities ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var amenities []*models.Amenity
	for rows.Next() {
		a := &models.Amenity{}
		if err := rows.Scan(&a.ID, &a.Name, &a.CreatedAt); err != nil {
			return nil, err
		}
		amenities = append(amenities, a)
	}

	return amenities, rows.Err()
}

// HealthCheck verifies the database connection
func (s *PostgresStorage) HealthCheck(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the underlying connection pool
func (s *PostgresStorage) Close() error {
	return s.db.Close()
}

func scanListing(rows *sql.Rows) (*models.Listing, error) {
	listing := &models.Listing{}
	var description, propertyType, neighbourhoodID, apartmentName, featuredImage sql.NullString

	err := rows.Scan(
		&listing.ID, &listing.Title, &description, &listing.Price,
		&propertyType, &listing.ListingType,
		&listing.LocationID, &neighbourhoodID,
		&listing.Size, &listing.LandSize, &listing.Bedrooms, &listing.Bathrooms,
		&listing.YearBuilt, &listing.Floor, &apartmentName, &featuredImage,
		&listing.Status, &listing.CreatedAt, &listing.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	listing.Description = description.String
	listing.PropertyType = propertyType.String
	listing.NeighbourhoodID = neighbourhoodID.String
	listing.ApartmentName = apartmentName.String
	listing.FeaturedImage = featuredImage.String

	return listing, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
