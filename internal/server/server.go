// Package server exposes the question-answering flow over HTTP.
package server

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"go.uber.org/zap"

	"docchat/internal/domain"
	"docchat/internal/service"
)

type chatRequest struct {
	Text string `json:"text"`
}

type chatResponse struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Server wraps the fiber app serving POST /chat and GET /healthz.
type Server struct {
	app *fiber.App
	svc service.Service
	log *zap.Logger
}

func New(svc service.Service, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{svc: svc, log: log}
	s.app = fiber.New(fiber.Config{
		ErrorHandler:          s.handleError,
		DisableStartupMessage: true,
	})
	s.app.Use(cors.New())
	s.app.Use(s.requestLogger)
	s.app.Post("/chat", s.chat)
	s.app.Get("/healthz", s.health)
	return s
}

// Listen blocks serving on addr until Shutdown is called.
func (s *Server) Listen(addr string) error { return s.app.Listen(addr) }

// Shutdown drains in-flight requests and stops the listener.
func (s *Server) Shutdown() error { return s.app.Shutdown() }

func (s *Server) chat(ctx *fiber.Ctx) error {
	var req chatRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	question := strings.TrimSpace(req.Text)
	if question == "" {
		return fiber.NewError(fiber.StatusBadRequest, "text must not be empty")
	}
	// No server-side session: each request is a single-turn conversation.
	answer, err := s.svc.Answer(ctx.Context(), question, nil)
	if err != nil {
		return err
	}
	return ctx.JSON(chatResponse{Message: answer.Reply})
}

func (s *Server) health(ctx *fiber.Ctx) error {
	return ctx.JSON(fiber.Map{"status": "ok"})
}

func (s *Server) requestLogger(ctx *fiber.Ctx) error {
	start := time.Now()
	err := ctx.Next()
	s.log.Info("request",
		zap.String("method", ctx.Method()),
		zap.String("path", ctx.Path()),
		zap.Int("status", ctx.Response().StatusCode()),
		zap.Duration("duration", time.Since(start)))
	return err
}

// handleError maps the error taxonomy onto HTTP statuses. Failures are
// always visible to the caller, never converted into a default reply.
func (s *Server) handleError(ctx *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError

	var fiberErr *fiber.Error
	var modelErr *domain.ModelError
	var embedErr *domain.EmbeddingError
	switch {
	case errors.As(err, &fiberErr):
		status = fiberErr.Code
	case errors.Is(err, domain.ErrIndexUnavailable):
		status = fiber.StatusServiceUnavailable
	case errors.As(err, &modelErr), errors.As(err, &embedErr):
		status = fiber.StatusBadGateway
	}
	if status >= fiber.StatusInternalServerError {
		s.log.Error("request failed", zap.String("path", ctx.Path()), zap.Error(err))
	}
	return ctx.Status(status).JSON(errorResponse{Error: err.Error()})
}
