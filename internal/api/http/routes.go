package httpapi

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/PartyShepherd/alchemelody/internal/almanac"
	"github.com/PartyShepherd/alchemelody/internal/planetary"
)

var validate = validator.New()

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service *almanac.Service, opts Options) {
	v1 := app.Group("/api/v1")

	v1.Get("/location", func(c *fiber.Ctx) error {
		loc, err := service.Location(c.UserContext())
		if err != nil {
			return err
		}
		return c.JSON(loc)
	})

	v1.Put("/location", func(c *fiber.Ctx) error {
		var req locationBody
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		loc := req.toLocation()
		if err := service.SetLocation(c.UserContext(), loc); err != nil {
			return err
		}
		return c.JSON(loc)
	})

	v1.Get("/location/history", func(c *fiber.Ctx) error {
		limit := c.QueryInt("limit", 20)
		if err := validate.Var(limit, "gte=0,lte=1000"); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "limit must be between 0 and 1000")
		}
		entries, err := service.LocationHistory(c.UserContext(), limit)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"entries": entries})
	})

	v1.Get("/hours", func(c *fiber.Ctx) error {
		q, err := parseHoursQuery(c, service, opts)
		if err != nil {
			return err
		}

		table, err := hourTable(c, service, opts, q)
		if err != nil {
			return err
		}
		return c.JSON(table)
	})

	v1.Get("/planets/:name/hours", func(c *fiber.Ctx) error {
		planet, err := planetary.ParsePlanet(c.Params("name"))
		if err != nil {
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		}
		q, err := parseHoursQuery(c, service, opts)
		if err != nil {
			return err
		}

		table, err := hourTable(c, service, opts, q)
		if err != nil {
			return err
		}

		slots := make([]planetary.Slot, 0, 4)
		for _, s := range table.Slots {
			if s.Planet == planet {
				slots = append(slots, s)
			}
		}
		return c.JSON(fiber.Map{
			"planet":    planet,
			"color":     planet.Color(),
			"location":  table.Location,
			"synthetic": table.Day.Synthetic,
			"slots":     slots,
		})
	})

	v1.Get("/hours/current", func(c *fiber.Ctx) error {
		q, err := parseHoursQuery(c, service, opts)
		if err != nil {
			return err
		}

		snap, err := service.Now(c.UserContext(), q.Location, q.At, q.Ruler)
		if err != nil {
			return err
		}
		return c.JSON(snap)
	})

	v1.Get("/moon", func(c *fiber.Ctx) error {
		at, err := parseAt(c, opts)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{
			"at":           at,
			"phase":        planetary.PhaseAt(at),
			"age_days":     planetary.MoonAge(at),
			"illumination": planetary.Illumination(at),
		})
	})

	v1.Get("/element", func(c *fiber.Ctx) error {
		var hour int
		if raw := c.Query("hour"); raw != "" {
			h, err := strconv.Atoi(raw)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "hour must be an integer")
			}
			if err := validate.Var(h, "gte=0,lte=23"); err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "hour must be between 0 and 23")
			}
			hour = h
		} else {
			// Local hour at the location, from its nominal longitude offset.
			loc, err := parseLocationQuery(c, service)
			if err != nil {
				return err
			}
			at, err := parseAt(c, opts)
			if err != nil {
				return err
			}
			hour = at.In(planetary.FixedZone(planetary.NominalOffset(loc.Longitude))).Hour()
		}
		return c.JSON(fiber.Map{
			"hour":    hour,
			"element": planetary.QuarterAt(hour),
		})
	})
}

// hourTable returns the table for the requested date, or the planetary day in
// progress when no date was given.
func hourTable(c *fiber.Ctx, service *almanac.Service, opts Options, q hoursQuery) (planetary.HourTable, error) {
	if q.Date.IsZero() {
		return service.TableAt(c.UserContext(), q.Location, opts.Clock(), q.Ruler)
	}
	return service.Hours(c.UserContext(), q.Location, q.Date, q.Ruler)
}

// locationBody is the PUT /location payload.
type locationBody struct {
	Latitude  *float64 `json:"latitude" validate:"required,gte=-90,lte=90"`
	Longitude *float64 `json:"longitude" validate:"required,gte=-180,lte=180"`
}

func (b locationBody) toLocation() planetary.Location {
	return planetary.Location{Latitude: *b.Latitude, Longitude: *b.Longitude}
}

// hoursQuery holds query parameters shared by the hour endpoints.
type hoursQuery struct {
	Location planetary.Location
	Date     time.Time
	At       time.Time
	Ruler    planetary.RulerMode
}

func parseHoursQuery(c *fiber.Ctx, service *almanac.Service, opts Options) (hoursQuery, error) {
	var q hoursQuery

	loc, err := parseLocationQuery(c, service)
	if err != nil {
		return q, err
	}
	q.Location = loc

	q.Ruler = opts.DefaultRuler
	if raw := c.Query("ruler"); raw != "" {
		mode, err := planetary.ParseRulerMode(raw)
		if err != nil {
			return q, fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		q.Ruler = mode
	}

	if raw := c.Query("date"); raw != "" {
		d, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			return q, fiber.NewError(fiber.StatusBadRequest, "date must be YYYY-MM-DD")
		}
		q.Date = d
	}

	q.At, err = parseAt(c, opts)
	return q, err
}

// parseLocationQuery reads lat/lon, falling back to the stored location when
// both are absent.
func parseLocationQuery(c *fiber.Ctx, service *almanac.Service) (planetary.Location, error) {
	rawLat, rawLon := c.Query("lat"), c.Query("lon")
	if rawLat == "" && rawLon == "" {
		return service.Location(c.UserContext())
	}
	if rawLat == "" || rawLon == "" {
		return planetary.Location{}, fiber.NewError(fiber.StatusBadRequest, "lat and lon must be given together")
	}

	lat, err := strconv.ParseFloat(rawLat, 64)
	if err != nil {
		return planetary.Location{}, fiber.NewError(fiber.StatusBadRequest, "lat must be a number")
	}
	lon, err := strconv.ParseFloat(rawLon, 64)
	if err != nil {
		return planetary.Location{}, fiber.NewError(fiber.StatusBadRequest, "lon must be a number")
	}

	loc := planetary.Location{Latitude: lat, Longitude: lon}
	if err := validate.Struct(loc); err != nil {
		return loc, fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return loc, nil
}

func parseAt(c *fiber.Ctx, opts Options) (time.Time, error) {
	raw := c.Query("at")
	if raw == "" {
		return opts.Clock(), nil
	}
	at, err := parseTime(raw)
	if err != nil {
		return at, fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("at: %v", err))
	}
	return at, nil
}

// parseTime tries to parse either RFC3339 or Unix seconds.
func parseTime(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	return time.Time{}, errors.New("invalid time format; use RFC3339 or unix seconds")
}
