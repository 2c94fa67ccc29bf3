package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/cheru-estates/listing-service/internal/importer"
	"github.com/cheru-estates/listing-service/internal/models"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
)

// BatchRunner runs one bulk import batch
type BatchRunner interface {
	Run(ctx context.Context, rows []models.ImportRow) (*models.ImportReport, error)
}

// ListingReader serves the admin console read endpoints
type ListingReader interface {
	ListListings(ctx context.Context, limit int) ([]*models.Listing, error)
	GetListingDetails(ctx context.Context, id string) (*models.ListingDetails, bool, error)
	ListLocations(ctx context.Context) ([]*models.Location, error)
	ListNeighbourhoods(ctx context.Context) ([]*models.Neighbourhood, error)
	ListAmenities(ctx context.Context) ([]*models.Amenity, error)
	HealthCheck(ctx context.Context) error
}

// HealthChecker is implemented by backends the health endpoint reports on
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// ImageStore is the object-storage view the read endpoints need: health plus
// the public URL for a stored image path.
type ImageStore interface {
	HealthChecker
	GetImageURL(objectKey string) string
}

// Handler contains all HTTP handlers
type Handler struct {
	imports BatchRunner
	store   ListingReader
	images  ImageStore
	broker  HealthChecker
}

// NewHandler creates a new handler instance. images may be nil when object
// storage is not configured, broker when event publishing is disabled.
func NewHandler(imports BatchRunner, store ListingReader, images ImageStore, broker HealthChecker) *Handler {
	return &Handler{
		imports: imports,
		store:   store,
		images:  images,
		broker:  broker,
	}
}

// BulkImportRequest is the batch submitted by the admin console: one entry
// per spreadsheet row, already column-mapped by the client.
type BulkImportRequest struct {
	Rows []models.ImportRow `json:"rows"`
}

// BulkImportHandler handles POST /api/admin/listings/bulk
func (h *Handler) BulkImportHandler(w http.ResponseWriter, r *http.Request) {
	var req BulkImportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error().Err(err).Msg("Invalid bulk import request body")
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	report, err := h.imports.Run(r.Context(), req.Rows)
	if err != nil {
		if errors.Is(err, importer.ErrNoRows) {
			writeError(w, http.StatusBadRequest, "No rows provided.")
			return
		}
		log.Error().Err(err).Msg("Bulk import failed")
		writeError(w, http.StatusInternalServerError, "Bulk import failed")
		return
	}

	writeJSON(w, http.StatusOK, report)
}

// ListListingsHandler handles GET /api/admin/listings
func (h *Handler) ListListingsHandler(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 1000 {
			limit = n
		}
	}

	listings, err := h.store.ListListings(r.Context(), limit)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list listings")
		writeError(w, http.StatusInternalServerError, "Failed to list listings")
		return
	}
	for _, listing := range listings {
		listing.FeaturedImage = h.publicImageURL(listing.FeaturedImage)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"listings": emptyIfNil(listings),
	})
}

// ListingDetailHandler handles GET /api/admin/listings/{id}
func (h *Handler) ListingDetailHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	details, found, err := h.store.GetListingDetails(r.Context(), id)
	if err != nil {
		log.Error().Err(err).Str("id", id).Msg("Failed to get listing")
		writeError(w, http.StatusInternalServerError, "Failed to get listing")
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "Listing not found")
		return
	}

	details.FeaturedImage = h.publicImageURL(details.FeaturedImage)
	for _, img := range details.Images {
		img.ImagePath = h.publicImageURL(img.ImagePath)
	}

	writeJSON(w, http.StatusOK, details)
}

// CatalogHandler handles GET /api/admin/catalog, returning the reference
// entities the import pipeline resolves against
func (h *Handler) CatalogHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	locations, locErr := h.store.ListLocations(ctx)
	neighbourhoods, nbErr := h.store.ListNeighbourhoods(ctx)
	amenities, amErr := h.store.ListAmenities(ctx)
	if err := errors.Join(locErr, nbErr, amErr); err != nil {
		log.Error().Err(err).Msg("Failed to list catalog")
		writeError(w, http.StatusInternalServerError, "Failed to list catalog")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"locations":      emptyIfNil(locations),
		"neighbourhoods": emptyIfNil(neighbourhoods),
		"amenities":      emptyIfNil(amenities),
	})
}

// HealthCheckHandler handles GET /health
func (h *Handler) HealthCheckHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	status := http.StatusOK

	checks := map[string]string{}

	if err := h.store.HealthCheck(ctx); err != nil {
		checks["database"] = err.Error()
		status = http.StatusServiceUnavailable
	} else {
		checks["database"] = "ok"
	}

	if h.images != nil {
		if err := h.images.HealthCheck(ctx); err != nil {
			checks["object_storage"] = err.Error()
			status = http.StatusServiceUnavailable
		} else {
			checks["object_storage"] = "ok"
		}
	}

	if h.broker != nil {
		if err := h.broker.HealthCheck(ctx); err != nil {
			checks["broker"] = err.Error()
			status = http.StatusServiceUnavailable
		} else {
			checks["broker"] = "ok"
		}
	}

	writeJSON(w, status, map[string]interface{}{
		"status": http.StatusText(status),
		"checks": checks,
	})
}

// publicImageURL maps a storage-relative image path to its public URL.
// Paths that already carry a scheme pass through untouched.
func (h *Handler) publicImageURL(path string) string {
	if path == "" || h.images == nil || strings.Contains(path, "://") {
		return path
	}
	return h.images.GetImageURL(path)
}

func emptyIfNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
