// Package api exposes the order workflows over HTTP. It sits behind an
// authenticating proxy that passes the caller's identity in a header.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"print-order-system/apperr"
	"print-order-system/dispatch"
	"print-order-system/models"

	"github.com/labstack/echo/v4"
	"go.temporal.io/api/serviceerror"
)

const callerKey = "caller"

// Dispatcher runs the order workflows
type Dispatcher interface {
	SubmitOrder(ctx context.Context, caller models.Caller, idKey, submissionID string, form models.OrderForm) (dispatch.Submission, error)
	DeliveryInfo(ctx context.Context, caller models.Caller, idKey, isbn string) (models.DeliveryInfoResult, error)
	SubmissionState(ctx context.Context, caller models.Caller, submissionID string) (models.SubmissionState, error)
}

// Error is the body of every non-2xx response
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// SubmitOrderRequest is the body of POST /orders
type SubmitOrderRequest struct {
	IDKey        string           `json:"id_key"`
	SubmissionID string           `json:"submission_id,omitempty"`
	Form         models.OrderForm `json:"form"`
}

// Server handles order and delivery-info requests
type Server struct {
	dispatcher     Dispatcher
	identityHeader string
	logger         *slog.Logger
}

func NewServer(dispatcher Dispatcher, identityHeader string, logger *slog.Logger) *Server {
	return &Server{
		dispatcher:     dispatcher,
		identityHeader: identityHeader,
		logger:         logger.With("component", "api"),
	}
}

// Register mounts the routes on e
func (s *Server) Register(e *echo.Echo) {
	e.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "Healthy")
	})

	g := e.Group("", s.logRequest, s.identify)
	g.POST("/orders", s.SubmitOrder)
	g.GET("/orders/:id/state", s.GetSubmissionState)
	g.GET("/delivery-info", s.GetDeliveryInfo)
}

// NewEcho returns an echo instance with the routes mounted
func (s *Server) NewEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	s.Register(e)
	return e
}

func (s *Server) identify(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		identity := strings.TrimSpace(c.Request().Header.Get(s.identityHeader))
		if identity == "" {
			return s.fail(c, apperr.ErrUnauthenticated)
		}
		c.Set(callerKey, models.Caller{Identity: identity})
		return next(c)
	}
}

func (s *Server) logRequest(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		err := next(c)
		s.logger.InfoContext(c.Request().Context(), "Request handled",
			"method", c.Request().Method,
			"path", c.Path(),
			"status", c.Response().Status,
			"caller", callerOf(c).Identity)
		return err
	}
}

func callerOf(c echo.Context) models.Caller {
	caller, _ := c.Get(callerKey).(models.Caller)
	return caller
}

// fail writes err as an Error body with the status apperr maps it to
func (s *Server) fail(c echo.Context, err error) error {
	status := apperr.HTTPStatus(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		s.logger.ErrorContext(c.Request().Context(), "Request failed", "path", c.Path(), "error", err)
		message = http.StatusText(status)
	}
	return c.JSON(status, Error{Code: status, Message: message})
}

// SubmitOrder handles POST /orders. A completed workflow always yields 200;
// the outcome is the code in the body.
func (s *Server) SubmitOrder(c echo.Context) error {
	var req SubmitOrderRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, Error{Code: http.StatusBadRequest, Message: "Invalid request body"})
	}
	if strings.TrimSpace(req.IDKey) == "" {
		return s.fail(c, apperr.NewValueIsRequiredError("id_key"))
	}

	sub, err := s.dispatcher.SubmitOrder(c.Request().Context(), callerOf(c), req.IDKey, req.SubmissionID, req.Form)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, sub)
}

// GetDeliveryInfo handles GET /delivery-info?isbn=&id_key=
func (s *Server) GetDeliveryInfo(c echo.Context) error {
	idKey := strings.TrimSpace(c.QueryParam("id_key"))
	if idKey == "" {
		return s.fail(c, apperr.NewValueIsRequiredError("id_key"))
	}

	result, err := s.dispatcher.DeliveryInfo(c.Request().Context(), callerOf(c), idKey, c.QueryParam("isbn"))
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

// GetSubmissionState handles GET /orders/:id/state
func (s *Server) GetSubmissionState(c echo.Context) error {
	state, err := s.dispatcher.SubmissionState(c.Request().Context(), callerOf(c), c.Param("id"))
	if err != nil {
		var notFound *serviceerror.NotFound
		if errors.Is(err, apperr.ErrNotAuthorized) || errors.As(err, &notFound) {
			// Someone else's submission is reported as missing
			return c.JSON(http.StatusNotFound, Error{Code: http.StatusNotFound, Message: "submission not found"})
		}
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, state)
}
