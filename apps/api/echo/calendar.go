package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Nucleo-de-Educacao-Permamente-em-Saude/SIGA/core/event"
)

type calendarApi struct {
	svc      event.Service
	validate *validator.Validate
}

func registerCalendarAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc event.Service,
	validate *validator.Validate,
) {
	api := calendarApi{svc: svc, validate: validate}

	eg := g.Group("/events", jwt)
	eg.GET("", api.query)
	eg.POST("", api.create, staffMiddleware())
	eg.GET("/calendar", api.calendar)
	eg.GET("/:id", api.retrieve)
	eg.PUT("/:id", api.update, staffMiddleware())
	eg.DELETE("/:id", api.destroy, staffMiddleware())
}

// Handlers

func (api *calendarApi) create(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var data event.NewEvent
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewEvent")
	}
	if err = data.Validate(ctx.Request().Context(), api.validate); err != nil {
		return err
	}

	evt, err := api.svc.Create(ctx.Request().Context(), claims.Principal(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, evt)
}

func (api *calendarApi) query(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	filter := new(event.QueryFilter)
	if err = ctx.Bind(filter); err != nil {
		filter = nil
	}

	events, err := api.svc.VisibleTo(ctx.Request().Context(), claims.Principal(), filter)
	if err != nil {
		return err
	}
	if events == nil {
		events = []event.Event{}
	}
	return ctx.JSON(http.StatusOK, events)
}

// calendar serves the widget-ready entries for the current principal.
func (api *calendarApi) calendar(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	filter := new(event.QueryFilter)
	if err = ctx.Bind(filter); err != nil {
		filter = nil
	}

	entries, err := api.svc.Calendar(ctx.Request().Context(), claims.Principal(), filter)
	if err != nil {
		return err
	}
	if entries == nil {
		entries = []event.CalendarEntry{}
	}
	return ctx.JSON(http.StatusOK, entries)
}

func (api *calendarApi) retrieve(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}

	evt, err := api.svc.Get(ctx.Request().Context(), claims.Principal(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, evt)
}

func (api *calendarApi) update(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}

	var data event.UpdateEvent
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateEvent")
	}
	if err = data.Validate(ctx.Request().Context(), api.validate); err != nil {
		return err
	}

	evt, err := api.svc.Update(ctx.Request().Context(), claims.Principal(), id, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, evt)
}

func (api *calendarApi) destroy(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}

	if err = api.svc.Delete(ctx.Request().Context(), claims.Principal(), id); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}
