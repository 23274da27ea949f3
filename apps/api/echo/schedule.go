package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/academia/core/schedule"
)

type scheduleApi struct {
	svc      schedule.ServiceInterface
	validate *validator.Validate
}

// CheckRequest is a faculty load to dry-run, optionally as a replacement of ExcludeLoadID.
type CheckRequest struct {
	schedule.NewFacultyLoad
	ExcludeLoadID int `json:"exclude_load_id"`
}

type CheckResponse struct {
	Available bool                 `json:"available"`
	Load      schedule.FacultyLoad `json:"load"`
}

func registerScheduleAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc schedule.ServiceInterface, validate *validator.Validate) {
	api := scheduleApi{
		svc:      svc,
		validate: validate,
	}

	fg := g.Group("/faculty-loads", jwt, adminMiddleware())
	fg.GET("", api.query)
	fg.POST("", api.create)
	fg.POST("/check", api.check)

	// detail endpoints
	dg := fg.Group("/:id")
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
	dg.DELETE("", api.destroy)
}

// Handlers

func (api *scheduleApi) create(ctx echo.Context) error {
	var data schedule.NewFacultyLoad
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewFacultyLoad")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	load, err := api.svc.CreateLoad(ctx.Request().Context(), data.Assignment())
	if err != nil {
		return errors.Wrap(err, "creating faculty load")
	}
	return ctx.JSON(http.StatusCreated, load)
}

func (api *scheduleApi) check(ctx echo.Context) error {
	var data CheckRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to CheckRequest")
	}
	if err := data.NewFacultyLoad.Validate(api.validate); err != nil {
		return err
	}

	load, err := api.svc.Check(ctx.Request().Context(), data.NewFacultyLoad.Assignment(), data.ExcludeLoadID)
	if err != nil {
		return errors.Wrap(err, "checking faculty load")
	}
	return ctx.JSON(http.StatusOK, CheckResponse{Available: true, Load: load})
}

func (api *scheduleApi) query(ctx echo.Context) error {
	var filter schedule.QueryFilter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}
	filter.Clean()

	var ord Ordering
	ord.Bind(ctx)

	loads, err := api.svc.QueryLoads(ctx.Request().Context(), &filter, ord.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying faculty loads")
	}
	return ctx.JSON(http.StatusOK, loads)
}

func (api *scheduleApi) retrieve(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	load, err := api.svc.GetLoad(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "getting faculty load")
	}
	return ctx.JSON(http.StatusOK, load)
}

func (api *scheduleApi) update(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}

	var data schedule.NewFacultyLoad
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewFacultyLoad")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	load, err := api.svc.UpdateLoad(ctx.Request().Context(), id, data.Assignment())
	if err != nil {
		return errors.Wrap(err, "updating faculty load")
	}
	return ctx.JSON(http.StatusOK, load)
}

func (api *scheduleApi) destroy(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	if err = api.svc.DeleteLoad(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting faculty load")
	}
	return ctx.NoContent(http.StatusNoContent)
}
