package inspect

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/net/netutil"

	"github.com/kbukum/injector/component"
	"github.com/kbukum/injector/di"
	"github.com/kbukum/injector/logger"
)

// Server is a read-only HTTP view of a container: its registrations, a
// validation report, version and component health.
type Server struct {
	cfg       Config
	container *di.Container
	health    HealthChecker
	log       *logger.Logger
	engine    *gin.Engine
	routes    []component.Route

	mu      sync.Mutex
	srv     *http.Server
	addr    net.Addr
	serving bool
}

// Option configures a Server.
type Option func(*Server)

// WithHealthChecker sets the source of /healthz component results.
func WithHealthChecker(fn HealthChecker) Option {
	return func(s *Server) { s.health = fn }
}

// New builds the server and its routes. cfg should have defaults applied.
func New(cfg Config, container *di.Container, log *logger.Logger, opts ...Option) *Server {
	if log == nil {
		log = logger.Nop()
	}
	if zerolog.GlobalLevel() <= zerolog.DebugLevel {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		cfg:       cfg,
		container: container,
		log:       log.WithComponent("inspect"),
		engine:    gin.New(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.engine.Use(recovery(s.log), requestID(), requestLogger(s.log), authenticate(cfg.Auth, "/healthz"))
	s.get("/healthz", "health", s.handleHealth)
	s.get("/version", "version", s.handleVersion)
	s.get("/registrations", "registrations", s.handleRegistrations)
	s.get("/registrations/:token", "registration", s.handleRegistration)
	s.get("/validate", "validate", s.handleValidate)
	s.get("/graph", "graph", s.handleGraph)
	return s
}

func (s *Server) get(path, name string, h gin.HandlerFunc) {
	s.engine.GET(path, h)
	s.routes = append(s.routes, component.Route{Method: http.MethodGet, Path: path, Handler: name})
}

// Handler exposes the routed engine, mainly for tests.
func (s *Server) Handler() http.Handler { return s.engine }

// Name implements component.Component.
func (s *Server) Name() string { return "inspect" }

// Start binds the listener and serves in the background. It returns once the
// port is bound.
func (s *Server) Start(ctx context.Context) error {
	tlsCfg, err := s.cfg.TLS.Build()
	if err != nil {
		return fmt.Errorf("inspect: %w", err)
	}

	addr := net.JoinHostPort(s.cfg.Host, fmt.Sprint(s.cfg.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("inspect: bind %s: %w", addr, err)
	}
	if s.cfg.MaxConns > 0 {
		ln = netutil.LimitListener(ln, s.cfg.MaxConns)
	}
	if tlsCfg != nil {
		ln = tls.NewListener(ln, tlsCfg)
	}

	srv := &http.Server{
		Handler:      s.engine,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	s.mu.Lock()
	s.srv = srv
	s.addr = ln.Addr()
	s.serving = true
	s.mu.Unlock()

	go func() {
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.log.Error("serve failed", logger.ErrorFields("serve", err))
		}
		s.mu.Lock()
		s.serving = false
		s.mu.Unlock()
	}()

	s.log.Info("inspect server started", map[string]interface{}{
		"addr": ln.Addr().String(),
		"auth": s.cfg.Auth.Mode,
		"tls":  tlsCfg != nil,
	})
	return nil
}

// Stop shuts the server down, waiting for in-flight requests until ctx ends.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	srv := s.srv
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("inspect: shutdown: %w", err)
	}
	s.log.Info("inspect server stopped")
	return nil
}

// Health implements component.Component.
func (s *Server) Health(context.Context) component.Health {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.serving {
		return component.Health{Name: s.Name(), Status: component.StatusUnhealthy, Message: "not serving"}
	}
	return component.Health{Name: s.Name(), Status: component.StatusHealthy}
}

// Addr returns the bound address, or nil before Start.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Describe implements component.Describable.
func (s *Server) Describe() component.Description {
	return component.Description{
		Name:    "Inspect",
		Type:    "server",
		Details: fmt.Sprintf("auth=%s tls=%t max_conns=%d", s.cfg.Auth.Mode, s.cfg.TLS.Enabled(), s.cfg.MaxConns),
		Port:    s.cfg.Port,
	}
}

// Routes implements component.RouteProvider.
func (s *Server) Routes() []component.Route {
	return append([]component.Route(nil), s.routes...)
}
