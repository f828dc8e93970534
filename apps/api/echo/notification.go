package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Nucleo-de-Educacao-Permamente-em-Saude/SIGA/core/notification"
)

type notificationApi struct {
	svc      notification.Service
	validate *validator.Validate
}

func registerNotificationAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc notification.Service, validate *validator.Validate) {
	api := notificationApi{svc: svc, validate: validate}

	ng := g.Group("/notifications", jwt)
	ng.GET("", api.listAndMarkRead)
	ng.POST("", api.create, adminMiddleware())
	ng.GET("/peek", api.peek)
	ng.GET("/unread-count", api.unreadCount)
	ng.PUT("/:id/read", api.markRead)
}

// Handlers

func (api *notificationApi) create(ctx echo.Context) error {
	var data notification.NewNotification
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewNotification")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	var ntype []string
	if data.Type != "" {
		ntype = append(ntype, data.Type)
	}
	n, err := api.svc.Notify(ctx.Request().Context(), data.UserID, data.Title, data.Message, ntype...)
	if err != nil {
		return errors.Wrap(err, "creating notification")
	}
	return ctx.JSON(http.StatusCreated, n)
}

// listAndMarkRead returns the caller's notifications and flips the unread
// ones to read; the response still shows their pre-flip state.
func (api *notificationApi) listAndMarkRead(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	notifs, err := api.svc.ListAndMarkRead(ctx.Request().Context(), claims.Principal().ID)
	if err != nil {
		return err
	}
	if notifs == nil {
		notifs = []notification.Notification{}
	}
	return ctx.JSON(http.StatusOK, notifs)
}

func (api *notificationApi) peek(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	notifs, err := api.svc.Peek(ctx.Request().Context(), claims.Principal().ID)
	if err != nil {
		return err
	}
	if notifs == nil {
		notifs = []notification.Notification{}
	}
	return ctx.JSON(http.StatusOK, notifs)
}

func (api *notificationApi) unreadCount(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	cnt, err := api.svc.UnreadCount(ctx.Request().Context(), claims.Principal().ID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"unread": cnt})
}

func (api *notificationApi) markRead(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}

	n, err := api.svc.MarkRead(ctx.Request().Context(), id, claims.Principal())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, n)
}
