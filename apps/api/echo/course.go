package echoapi

import (
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Nucleo-de-Educacao-Permamente-em-Saude/SIGA/core"
	"github.com/Nucleo-de-Educacao-Permamente-em-Saude/SIGA/core/course"
)

type courseApi struct {
	svc       course.Service
	reportSvc core.ReportService
	validate  *validator.Validate
}

func registerCourseAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc course.Service,
	reportSvc core.ReportService,
	validate *validator.Validate,
) {
	api := courseApi{
		svc:       svc,
		reportSvc: reportSvc,
		validate:  validate,
	}

	cg := g.Group("/courses", jwt)
	cg.GET("", api.query, staffMiddleware())
	cg.POST("", api.create, adminMiddleware())
	cg.GET("/:id", api.retrieve, staffMiddleware())
	cg.PUT("/:id", api.update, adminMiddleware())
	cg.DELETE("/:id", api.destroy, adminMiddleware())

	cg.GET("/:id/students", api.queryEnrollments, staffMiddleware())
	cg.POST("/:id/students", api.enroll, adminMiddleware())
	cg.DELETE("/:id/students/:enrollmentID", api.unenroll, adminMiddleware())

	cg.PUT("/:id/grades", api.updateGrade, staffMiddleware())
	cg.GET("/:id/report", api.courseReport, staffMiddleware())

	sg := g.Group("/students/:id", jwt, ctxStudentOrStaffMiddleware())
	sg.GET("/grades", api.studentGrades)
	sg.GET("/report", api.studentReport)
}

// Handlers

func (api *courseApi) create(ctx echo.Context) error {
	var data course.NewCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCourse")
	}
	if err := data.Validate(ctx.Request().Context(), api.validate, api.svc); err != nil {
		return err
	}

	crs, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating course")
	}
	return ctx.JSON(http.StatusCreated, crs)
}

func (api *courseApi) query(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	courses, err := api.svc.QueryVisible(ctx.Request().Context(), claims.Principal())
	if err != nil {
		return err
	}
	if courses == nil {
		courses = []course.Course{}
	}
	return ctx.JSON(http.StatusOK, courses)
}

func (api *courseApi) retrieve(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}

	crs, err := api.svc.Get(ctx.Request().Context(), claims.Principal(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, crs)
}

func (api *courseApi) update(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}

	crs, err := api.svc.Get(ctx.Request().Context(), claims.Principal(), id)
	if err != nil {
		return err
	}

	var data course.UpdateCourse
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateCourse")
	}
	if err = data.Validate(ctx.Request().Context(), api.validate, crs, api.svc); err != nil {
		return err
	}

	crs, err = api.svc.Update(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "updating course")
	}
	return ctx.JSON(http.StatusOK, crs)
}

func (api *courseApi) destroy(ctx echo.Context) error {
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}
	if err = api.svc.Delete(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting course")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *courseApi) queryEnrollments(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}

	enrollments, err := api.svc.EnrollmentsForCourse(ctx.Request().Context(), claims.Principal(), id)
	if err != nil {
		return err
	}
	if enrollments == nil {
		enrollments = []course.Enrollment{}
	}
	return ctx.JSON(http.StatusOK, enrollments)
}

func (api *courseApi) enroll(ctx echo.Context) error {
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}

	var data course.NewEnrollment
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewEnrollment")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	enr, err := api.svc.Enroll(ctx.Request().Context(), id, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, enr)
}

func (api *courseApi) unenroll(ctx echo.Context) error {
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}
	enrollmentID, err := pathID(ctx, "enrollmentID")
	if err != nil {
		return err
	}

	if err = api.svc.RemoveEnrollment(ctx.Request().Context(), id, enrollmentID); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *courseApi) updateGrade(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}

	var data course.GradeUpdate
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to GradeUpdate")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	enr, err := api.svc.UpdateGrade(ctx.Request().Context(), claims.Principal(), id, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, enr)
}

func (api *courseApi) courseReport(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}

	report, err := api.svc.CourseReport(ctx.Request().Context(), claims.Principal(), id)
	if err != nil {
		return err
	}
	return api.sendReport(ctx, report)
}

func (api *courseApi) studentGrades(ctx echo.Context) error {
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}

	enrollments, err := api.svc.EnrollmentsForStudent(ctx.Request().Context(), id)
	if err != nil {
		return err
	}
	if enrollments == nil {
		enrollments = []course.Enrollment{}
	}
	return ctx.JSON(http.StatusOK, enrollments)
}

func (api *courseApi) studentReport(ctx echo.Context) error {
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}

	report, err := api.svc.StudentReport(ctx.Request().Context(), id)
	if err != nil {
		return err
	}
	return api.sendReport(ctx, report)
}

func (api *courseApi) sendReport(ctx echo.Context, report core.Report) error {
	doc, err := api.reportSvc.Render(report)
	if err != nil {
		return errors.Wrap(err, "rendering report")
	}
	ctx.Response().Header().Set(
		echo.HeaderContentDisposition,
		`attachment; filename="`+report.Filename("pdf")+`"`,
	)
	return ctx.Blob(http.StatusOK, api.reportSvc.ContentType(), doc)
}

// ctxStudentOrStaffMiddleware admits admins, teachers, and the student whose
// records are being requested.
func ctxStudentOrStaffMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if claims.IsAdmin || claims.IsTeacher {
				return next(ctx)
			}
			if claims.IsStudent && ctx.Param("id") == claims.Subject {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

func pathID(ctx echo.Context, name string) (int, error) {
	id, err := strconv.Atoi(ctx.Param(name))
	if err != nil {
		return 0, errHttpNotFound
	}
	return id, nil
}
