package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/academia/core/term"
)

type termApi struct {
	svc      term.ServiceInterface
	validate *validator.Validate
}

func registerTermAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc term.ServiceInterface, validate *validator.Validate) {
	api := termApi{
		svc:      svc,
		validate: validate,
	}

	tg := g.Group("/terms", jwt, adminMiddleware())
	tg.GET("", api.query)
	tg.POST("", api.create, adminMiddleware(RolePrincipal))
	tg.GET("/active", api.active)
	tg.GET("/:id", api.retrieve)
	tg.POST("/:id/activate", api.activate, adminMiddleware(RolePrincipal))
}

// Handlers

func (api *termApi) create(ctx echo.Context) error {
	var data term.NewTerm
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTerm")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	t, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating school year")
	}
	return ctx.JSON(http.StatusCreated, t)
}

func (api *termApi) query(ctx echo.Context) error {
	terms, err := api.svc.Query(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying school years")
	}
	return ctx.JSON(http.StatusOK, terms)
}

func (api *termApi) active(ctx echo.Context) error {
	t, err := api.svc.ActiveTerm(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "getting active school year")
	}
	return ctx.JSON(http.StatusOK, t)
}

func (api *termApi) retrieve(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	t, err := api.svc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "getting school year")
	}
	return ctx.JSON(http.StatusOK, t)
}

func (api *termApi) activate(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	t, err := api.svc.SetActive(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "activating school year")
	}
	return ctx.JSON(http.StatusOK, t)
}
