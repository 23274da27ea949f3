package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/academia/core/progression"
)

type studentApi struct {
	engine   progression.ServiceInterface
	validate *validator.Validate
}

type SyncLoadsResponse struct {
	StudentID int `json:"student_id"`
	LoadCount int `json:"load_count"`
}

func registerStudentAPI(g *echo.Group, jwt echo.MiddlewareFunc, engine progression.ServiceInterface, validate *validator.Validate) {
	api := studentApi{
		engine:   engine,
		validate: validate,
	}

	sg := g.Group("/students/:id", jwt, adminMiddleware())
	sg.POST("/promote", api.promote, adminMiddleware(RoleRegistrar, RolePrincipal))
	sg.POST("/sync-loads", api.syncLoads, adminMiddleware(RoleRegistrar, RolePrincipal))
	sg.GET("/progress", api.progress)
	sg.GET("/record", api.record)
}

// Handlers

func (api *studentApi) promote(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}

	var data progression.PromoteRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PromoteRequest")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	res, err := api.engine.Promote(ctx.Request().Context(), id, data.PromotionType)
	if err != nil {
		return errors.Wrap(err, "promoting student")
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *studentApi) syncLoads(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	count, err := api.engine.SyncLoads(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "syncing student loads")
	}
	return ctx.JSON(http.StatusOK, SyncLoadsResponse{StudentID: id, LoadCount: count})
}

func (api *studentApi) progress(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	p, err := api.engine.Progress(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "getting student progress")
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *studentApi) record(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	rec, err := api.engine.AcademicRecord(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "getting academic record")
	}
	return ctx.JSON(http.StatusOK, rec)
}
