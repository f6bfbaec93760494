// Package server exposes the tile endpoint over HTTP.
package server

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/pkg/errors"

	"github.com/ohdm/chronotile/log"
	"github.com/ohdm/chronotile/proj"
	"github.com/ohdm/chronotile/render"
	"github.com/ohdm/chronotile/tilecache"
)

// New builds the HTTP app around a tile coordinator.
func New(coord *tilecache.Coordinator) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	})
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	app.Get("/:year/:month/:day/:zoom/:x/:y/tile.png", tileHandler(coord))

	return app
}

func tileHandler(coord *tilecache.Coordinator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key, err := parseKey(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		tile, err := coord.GetOrRender(c.UserContext(), key)
		if err != nil {
			return tileError(c, key, err)
		}
		c.Set(fiber.HeaderContentType, "image/png")
		return c.Send(tile)
	}
}

func parseKey(c *fiber.Ctx) (tilecache.Key, error) {
	key := tilecache.Key{}
	for _, p := range []struct {
		name string
		dst  *int
	}{
		{"year", &key.Year},
		{"month", &key.Month},
		{"day", &key.Day},
		{"zoom", &key.Zoom},
		{"x", &key.X},
		{"y", &key.Y},
	} {
		v, err := c.ParamsInt(p.name)
		if err != nil {
			return key, errors.Errorf("invalid %s: %q", p.name, c.Params(p.name))
		}
		*p.dst = v
	}
	if !validDate(key.Year, key.Month, key.Day) {
		return key, errors.Errorf("invalid date %04d-%02d-%02d", key.Year, key.Month, key.Day)
	}
	return key, nil
}

// validDate rejects dates that time.Date would silently normalize.
func validDate(year, month, day int) bool {
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	return t.Year() == year && int(t.Month()) == month && t.Day() == day
}

func tileError(c *fiber.Ctx, key tilecache.Key, err error) error {
	var zoomErr *proj.ZoomOutOfRangeError
	var coordErr *proj.CoordinateOutOfRangeError
	switch {
	case errors.As(err, &zoomErr), errors.As(err, &coordErr),
		errors.Is(err, render.ErrNoValidityDate):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, tilecache.ErrRenderTimeout):
		return fiber.NewError(fiber.StatusGatewayTimeout, err.Error())
	case errors.Is(err, context.Canceled):
		return fiber.NewError(fiber.StatusRequestTimeout, err.Error())
	}
	log.Errorf("rendering tile %s: %v", key, err)
	return fiber.NewError(fiber.StatusInternalServerError, "tile rendering failed")
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code = fiberErr.Code
	}
	return c.Status(code).SendString(err.Error())
}
