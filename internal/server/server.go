// Package server exposes a debate session over HTTP and a websocket stream.
package server

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	fiberlog "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lorenzotomasdiez/debate-coach/internal/debate"
	"github.com/lorenzotomasdiez/debate-coach/internal/debate/persona"
	"github.com/lorenzotomasdiez/debate-coach/internal/logger"
)

// Session is the engine surface the server drives.
type Session interface {
	Submit(ctx context.Context, text string) (<-chan debate.Turn, error)
	Cancel() bool
	SetTopic(topic string)
	SetMode(mode persona.Mode) error
	SetVoice(on bool)
	Snapshot() debate.Snapshot
	AverageScore() float64
	Status() debate.Status
}

// Options configures a Server.
type Options struct {
	// Gatherer backs GET /metrics. Nil disables the route.
	Gatherer prometheus.Gatherer
	Logger   logger.Logger
	// AccessLog receives request logs. Nil disables access logging.
	AccessLog io.Writer
}

// Server serves one session.
type Server struct {
	app     *fiber.App
	session Session
	hub     *Hub
	log     logger.Logger
}

type sessionView struct {
	ID           string        `json:"id"`
	Topic        string        `json:"topic"`
	Mode         persona.Mode  `json:"mode"`
	Voice        bool          `json:"voice"`
	Status       debate.Status `json:"status"`
	AverageScore float64       `json:"average_score"`
	Turns        []debate.Turn `json:"turns"`
}

type sessionPatch struct {
	Topic *string `json:"topic"`
	Mode  *string `json:"mode"`
	Voice *bool   `json:"voice"`
}

type turnRequest struct {
	Text string `json:"text"`
}

type turnResponse struct {
	Turn         debate.Turn   `json:"turn"`
	AverageScore float64       `json:"average_score"`
	Status       debate.Status `json:"status"`
}

// New builds the fiber app for session.
func New(session Session, opts Options) *Server {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	s := &Server{
		session: session,
		hub:     NewHub(log.Named("hub")),
		log:     log,
	}

	app := fiber.New(fiber.Config{
		AppName:               "debatecoach",
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	})
	app.Use(recover.New())
	if opts.AccessLog != nil {
		app.Use(fiberlog.New(fiberlog.Config{Output: opts.AccessLog}))
	}

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")
	api.Get("/session", s.getSession)
	api.Patch("/session", s.patchSession)
	api.Post("/turns", s.postTurn)
	api.Delete("/turns/current", s.cancelTurn)

	if opts.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))
	}

	app.Get("/ws", upgradeOnly, websocket.New(s.stream))

	s.app = app
	return s
}

// App returns the underlying fiber app.
func (s *Server) App() *fiber.App { return s.app }

// Hub returns the stream hub.
func (s *Server) Hub() *Hub { return s.hub }

// Listen serves on addr until Shutdown.
func (s *Server) Listen(addr string) error {
	s.log.Info(context.Background(), "server listening", logger.String("addr", addr))
	return s.app.Listen(addr)
}

// Shutdown stops the server, waiting for in-flight requests until ctx ends.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

// PublishTurn streams an appended turn. Assign it to the engine's OnTurn.
func (s *Server) PublishTurn(turn debate.Turn) {
	s.hub.Broadcast(Event{
		Type:         EventTurn,
		Turn:         &turn,
		AverageScore: s.session.AverageScore(),
		Timestamp:    time.Now().UTC(),
	})
}

// PublishStatus streams a status change. Assign it to the engine's OnStatus.
func (s *Server) PublishStatus(status debate.Status) {
	s.hub.Broadcast(Event{
		Type:         EventStatus,
		Status:       status.String(),
		AverageScore: s.session.AverageScore(),
		Timestamp:    time.Now().UTC(),
	})
}

func (s *Server) view() sessionView {
	snap := s.session.Snapshot()
	return sessionView{
		ID:           snap.ID,
		Topic:        snap.Topic,
		Mode:         snap.Mode,
		Voice:        snap.Voice,
		Status:       s.session.Status(),
		AverageScore: s.session.AverageScore(),
		Turns:        snap.Turns,
	}
}

func (s *Server) getSession(c *fiber.Ctx) error {
	return c.JSON(s.view())
}

func (s *Server) patchSession(c *fiber.Ctx) error {
	var patch sessionPatch
	if err := c.BodyParser(&patch); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body: "+err.Error())
	}

	var mode persona.Mode
	if patch.Mode != nil {
		m, err := persona.ParseMode(*patch.Mode)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		mode = m
	}
	if patch.Topic != nil && strings.TrimSpace(*patch.Topic) == "" {
		return fiber.NewError(fiber.StatusBadRequest, "topic must not be empty")
	}

	if patch.Topic != nil {
		s.session.SetTopic(strings.TrimSpace(*patch.Topic))
	}
	if mode != "" {
		if err := s.session.SetMode(mode); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
	}
	if patch.Voice != nil {
		s.session.SetVoice(*patch.Voice)
	}
	return c.JSON(s.view())
}

func (s *Server) postTurn(c *fiber.Ctx) error {
	var req turnRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body: "+err.Error())
	}

	turn, err := s.exchange(c.UserContext(), req.Text)
	if err != nil {
		return submitError(err)
	}
	return c.JSON(turnResponse{
		Turn:         turn,
		AverageScore: s.session.AverageScore(),
		Status:       s.session.Status(),
	})
}

func (s *Server) exchange(ctx context.Context, text string) (debate.Turn, error) {
	ch, err := s.session.Submit(ctx, text)
	if err != nil {
		return debate.Turn{}, err
	}
	turn, ok := <-ch
	if !ok {
		return debate.Turn{}, debate.ErrCancelled
	}
	return turn, nil
}

func (s *Server) cancelTurn(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"cancelled": s.session.Cancel()})
}

func upgradeOnly(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// stream registers the connection and treats each text frame as a submitted
// argument. Replies reach every client through the hub.
func (s *Server) stream(c *websocket.Conn) {
	defer func() {
		_ = c.Close()
	}()

	id := s.hub.Add(c)
	defer s.hub.Remove(id)

	for {
		_, data, err := c.ReadMessage()
		if err != nil {
			return
		}
		if _, err := s.session.Submit(context.Background(), string(data)); err != nil {
			s.hub.Send(id, Event{
				Type:         EventError,
				Error:        err.Error(),
				AverageScore: s.session.AverageScore(),
				Timestamp:    time.Now().UTC(),
			})
		}
	}
}

func submitError(err error) error {
	switch {
	case errors.Is(err, debate.ErrBlankInput):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, debate.ErrBusy), errors.Is(err, debate.ErrCancelled):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	default:
		return err
	}
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}
