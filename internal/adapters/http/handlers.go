package http

import (
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/dkarolys/fleetpulse/internal/core/domain"
)

// FleetStats holds row counts across the fleet tables.
type FleetStats struct {
	Companies int    `json:"companies"`
	Drivers   int    `json:"drivers"`
	Vehicles  int    `json:"vehicles"`
	Trips     int    `json:"trips"`
	Positions int    `json:"positions"`
	Events    int    `json:"events"`
	LastPing  string `json:"last_ping,omitempty"`
}

// FleetStatsHandler returns row counts from the fleet tables.
func FleetStatsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.DB == nil {
			return errInternal(c, "database not available")
		}

		var stats FleetStats
		row := deps.DB.Pool.QueryRow(c.Context(), `
			SELECT
				(SELECT count(*) FROM companies),
				(SELECT count(*) FROM drivers),
				(SELECT count(*) FROM vehicles),
				(SELECT count(*) FROM trips),
				(SELECT count(*) FROM trip_positions),
				(SELECT count(*) FROM security_events),
				COALESCE((SELECT max(captured_at)::text FROM trip_positions), '')
		`)
		if err := row.Scan(&stats.Companies, &stats.Drivers, &stats.Vehicles,
			&stats.Trips, &stats.Positions, &stats.Events, &stats.LastPing); err != nil {
			return errInternal(c, err.Error())
		}

		c.Set("Cache-Control", "public, max-age=60")
		return c.JSON(stats)
	}
}

// ListCompaniesHandler returns all fleet operator companies.
func ListCompaniesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		companies, err := deps.Companies.List(c.Context())
		if err != nil {
			return errInternal(c, err.Error())
		}

		// Apply offset/limit pagination on the full list
		offset := c.QueryInt("offset", 0)
		limit := c.QueryInt("limit", 100)
		if offset < 0 {
			offset = 0
		}
		if limit <= 0 || limit > 200 {
			limit = 100
		}

		total := len(companies)
		if offset >= total {
			companies = nil
		} else {
			end := offset + limit
			if end > total {
				end = total
			}
			companies = companies[offset:end]
		}

		pg := Pagination{Offset: offset, Limit: limit, Total: total}
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: companies, Pagination: pg})
	}
}

// GetCompanyHandler returns a single company by slug.
func GetCompanyHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		slug := c.Params("slug")
		if slug == "" {
			return errBadRequest(c, "company slug is required")
		}
		company, err := deps.Companies.GetBySlug(c.Context(), slug)
		if err != nil {
			return errNotFound(c, "company not found")
		}
		return c.JSON(company)
	}
}

// CompanyVehiclesHandler returns a company's fleet roster.
func CompanyVehiclesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		slug := c.Params("slug")
		if slug == "" {
			return errBadRequest(c, "company slug is required")
		}
		company, err := deps.Companies.GetBySlug(c.Context(), slug)
		if err != nil {
			return errNotFound(c, "company not found")
		}
		vehicles, err := deps.Vehicles.ListByCompany(c.Context(), company.ID)
		if err != nil {
			return errInternal(c, err.Error())
		}
		c.Set("Cache-Control", "public, max-age=60")
		return c.JSON(vehicles)
	}
}

// CompanyPositionsHandler returns the latest known position of each
// vehicle in a company's fleet. Feeds the live map.
func CompanyPositionsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		slug := c.Params("slug")
		if slug == "" {
			return errBadRequest(c, "company slug is required")
		}
		company, err := deps.Companies.GetBySlug(c.Context(), slug)
		if err != nil {
			return errNotFound(c, "company not found")
		}
		positions, err := deps.Vehicles.LatestPositions(c.Context(), company.ID)
		if err != nil {
			return errInternal(c, err.Error())
		}
		return c.JSON(positions)
	}
}

// CompanyDriversHandler lists a company's drivers.
func CompanyDriversHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		slug := c.Params("slug")
		if slug == "" {
			return errBadRequest(c, "company slug is required")
		}
		company, err := deps.Companies.GetBySlug(c.Context(), slug)
		if err != nil {
			return errNotFound(c, "company not found")
		}
		drivers, err := deps.Drivers.ListByCompany(c.Context(), company.ID)
		if err != nil {
			return errInternal(c, err.Error())
		}
		return c.JSON(drivers)
	}
}

// RegisterVehicleHandler upserts a vehicle into the fleet.
func RegisterVehicleHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var vehicle domain.Vehicle
		if err := c.BodyParser(&vehicle); err != nil {
			return errBadRequest(c, "invalid vehicle payload")
		}
		if err := deps.Vehicles.Register(c.Context(), &vehicle); err != nil {
			return errBadRequest(c, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(vehicle)
	}
}

// GetVehicleHandler returns a single vehicle by ID.
func GetVehicleHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "vehicle id is required")
		}
		vehicle, err := deps.Vehicles.GetByID(c.Context(), id)
		if err != nil {
			return errNotFound(c, "vehicle not found")
		}
		return c.JSON(vehicle)
	}
}

// VehicleTripsHandler returns recent trips for a vehicle, newest first.
func VehicleTripsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "vehicle id is required")
		}
		limit := c.QueryInt("limit", 20)
		trips, err := deps.Trips.ListByVehicle(c.Context(), id, limit)
		if err != nil {
			return errInternal(c, err.Error())
		}
		return c.JSON(trips)
	}
}

// VehicleEventsHandler returns recent security events for a vehicle.
func VehicleEventsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "vehicle id is required")
		}
		limit := c.QueryInt("limit", 50)
		if limit <= 0 || limit > 200 {
			limit = 50
		}
		events, err := deps.Safety.EventsByVehicle(c.Context(), id, limit)
		if err != nil {
			return errInternal(c, err.Error())
		}
		return c.JSON(events)
	}
}

// CreateDriverHandler registers a new driver account.
func CreateDriverHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var driver domain.Driver
		if err := c.BodyParser(&driver); err != nil {
			return errBadRequest(c, "invalid driver payload")
		}
		if err := deps.Drivers.Create(c.Context(), &driver); err != nil {
			return errBadRequest(c, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(driver)
	}
}

// GetDriverHandler returns a driver by ID.
func GetDriverHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "driver id is required")
		}
		driver, err := deps.Drivers.GetByID(c.Context(), id)
		if err != nil {
			return errNotFound(c, "driver not found")
		}
		return c.JSON(driver)
	}
}

// UpdateDriverHandler updates a driver's mutable profile fields.
func UpdateDriverHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "driver id is required")
		}
		var driver domain.Driver
		if err := c.BodyParser(&driver); err != nil {
			return errBadRequest(c, "invalid driver payload")
		}
		driver.ID = id
		if err := deps.Drivers.Update(c.Context(), &driver); err != nil {
			return errBadRequest(c, err.Error())
		}
		return c.JSON(driver)
	}
}

// DeactivateDriverHandler deactivates a driver account.
func DeactivateDriverHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "driver id is required")
		}
		if err := deps.Drivers.Deactivate(c.Context(), id); err != nil {
			return errInternal(c, err.Error())
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// StartTripHandler opens a new tracked trip.
func StartTripHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req struct {
			VehicleID string `json:"vehicle_id"`
			DriverID  string `json:"driver_id"`
		}
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid trip payload")
		}
		trip, err := deps.Trips.Start(c.Context(), req.VehicleID, req.DriverID)
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(trip)
	}
}

// EndTripHandler closes a trip as completed or aborted.
func EndTripHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "trip id is required")
		}
		var req struct {
			Status string `json:"status"`
		}
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid payload")
		}
		if req.Status == "" {
			req.Status = string(domain.TripCompleted)
		}
		if err := deps.Trips.End(c.Context(), id, domain.TripStatus(req.Status)); err != nil {
			return errBadRequest(c, err.Error())
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// GetTripHandler returns a single trip by ID.
func GetTripHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "trip id is required")
		}
		trip, err := deps.Trips.GetByID(c.Context(), id)
		if err != nil {
			return errNotFound(c, "trip not found")
		}
		return c.JSON(trip)
	}
}

// TripSummaryHandler returns the derived analytics for a trip.
func TripSummaryHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "trip id is required")
		}
		summary, err := deps.Trips.Summary(c.Context(), id)
		if err != nil {
			return errInternal(c, err.Error())
		}
		return c.JSON(summary)
	}
}

// TripStopsHandler returns the detected stop intervals for a trip.
func TripStopsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "trip id is required")
		}
		stops, err := deps.Trips.Stops(c.Context(), id)
		if err != nil {
			return errInternal(c, err.Error())
		}
		return c.JSON(fiber.Map{"trip_id": id, "stops": stops, "count": len(stops)})
	}
}

// CreateGeofenceHandler registers a new geofence zone.
func CreateGeofenceHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var fence domain.Geofence
		if err := c.BodyParser(&fence); err != nil {
			return errBadRequest(c, "invalid geofence payload")
		}
		if err := deps.Geofences.Create(c.Context(), &fence); err != nil {
			return errBadRequest(c, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(fence)
	}
}

// ListGeofencesHandler returns all active geofence zones.
func ListGeofencesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fences, err := deps.Geofences.ListActive(c.Context())
		if err != nil {
			return errInternal(c, err.Error())
		}
		c.Set("Cache-Control", "public, max-age=60")
		return c.JSON(fences)
	}
}

// GetGeofenceHandler returns a geofence by ID.
func GetGeofenceHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "geofence id is required")
		}
		fence, err := deps.Geofences.GetByID(c.Context(), id)
		if err != nil {
			return errNotFound(c, "geofence not found")
		}
		return c.JSON(fence)
	}
}

// UpdateGeofenceHandler updates a geofence's name, polygon or status.
func UpdateGeofenceHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "geofence id is required")
		}
		var fence domain.Geofence
		if err := c.BodyParser(&fence); err != nil {
			return errBadRequest(c, "invalid geofence payload")
		}
		fence.ID = id
		if err := deps.Geofences.Update(c.Context(), &fence); err != nil {
			return errBadRequest(c, err.Error())
		}
		return c.JSON(fence)
	}
}

// RecordEventHandler appends a security event (e.g. an SOS raised from
// a driver's device) to the sealed event log.
func RecordEventHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var event domain.SecurityEvent
		if err := c.BodyParser(&event); err != nil {
			return errBadRequest(c, "invalid event payload")
		}
		if err := deps.Safety.RecordEvent(c.Context(), &event); err != nil {
			return errBadRequest(c, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(event)
	}
}

// ListEventsHandler returns security events in a time window. With
// format=csv the window is exported as a CSV report instead of JSON.
func ListEventsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		to := time.Now().UTC()
		from := to.Add(-7 * 24 * time.Hour)
		if raw := c.Query("from"); raw != "" {
			t, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				return errBadRequest(c, "from must be RFC3339")
			}
			from = t
		}
		if raw := c.Query("to"); raw != "" {
			t, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				return errBadRequest(c, "to must be RFC3339")
			}
			to = t
		}
		if !from.Before(to) {
			return errBadRequest(c, "from must precede to")
		}

		events, err := deps.Safety.EventsWindow(c.Context(), from, to)
		if err != nil {
			return errInternal(c, err.Error())
		}

		if c.Query("format") == "csv" {
			return writeEventsCSV(c, events)
		}
		return c.JSON(fiber.Map{"events": events, "count": len(events)})
	}
}

func writeEventsCSV(c *fiber.Ctx, events []domain.SecurityEvent) error {
	c.Set("Content-Type", "text/csv; charset=utf-8")
	c.Set("Content-Disposition", `attachment; filename="security_events.csv"`)

	w := csv.NewWriter(c)
	if err := w.Write([]string{
		"id", "type", "severity", "vehicle_id", "geofence_id",
		"lat", "lng", "occurred_at", "integrity_hash",
	}); err != nil {
		return err
	}
	for _, e := range events {
		lat, lng := "", ""
		if e.Location != nil {
			lat = strconv.FormatFloat(e.Location.Lat, 'f', 6, 64)
			lng = strconv.FormatFloat(e.Location.Lng, 'f', 6, 64)
		}
		if err := w.Write([]string{
			e.ID, string(e.Type), string(e.Severity), e.VehicleID, e.GeofenceID,
			lat, lng, e.Timestamp.UTC().Format(time.RFC3339), e.IntegrityHash,
		}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// VerifyEventHandler recomputes an event's integrity seal.
func VerifyEventHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "event id is required")
		}
		ok, err := deps.Safety.VerifyEvent(c.Context(), id)
		if err != nil {
			return errNotFound(c, "event not found")
		}
		return c.JSON(fiber.Map{"id": id, "verified": ok})
	}
}

// SafetyReportHandler returns the fleet safety index for a window.
func SafetyReportHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var window time.Duration
		if raw := c.Query("window"); raw != "" {
			d, err := time.ParseDuration(raw)
			if err != nil || d <= 0 {
				return errBadRequest(c, fmt.Sprintf("invalid window %q", raw))
			}
			window = d
		}
		report, err := deps.Safety.Report(c.Context(), window)
		if err != nil {
			return errInternal(c, err.Error())
		}
		return c.JSON(report)
	}
}
