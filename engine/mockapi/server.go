// Package mockapi is an in-memory implementation of the panel backend. It
// serves the same routes and error bodies as the real service and is used
// by `panel mock-server` and by HTTP level tests.
package mockapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	limiter "github.com/ulule/limiter/v3"
	mgin "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	"github.com/limitedeportes/panel/pkg/config"
	"github.com/limitedeportes/panel/pkg/logger"
)

const (
	// SessionUserHeader names the caller. The mock has no login flow.
	SessionUserHeader = "X-Session-User"
	sessionCookie     = "session"
	callerKey         = "mockapi.caller"
	shutdownTimeout   = 5 * time.Second
)

// Server wires a Store to a gin engine.
type Server struct {
	store       *Store
	engine      *gin.Engine
	sessionUser string
	latency     time.Duration
}

// New builds a mock backend from cfg. Seeded servers start with a small
// set of users, branches and SMS records.
func New(ctx context.Context, cfg config.MockConfig) (*Server, error) {
	balance, err := decimal.NewFromString(cfg.SMSBalance)
	if err != nil {
		return nil, fmt.Errorf("invalid sms balance %q: %w", cfg.SMSBalance, err)
	}
	cost, err := decimal.NewFromString(cfg.SMSCost)
	if err != nil {
		return nil, fmt.Errorf("invalid sms cost %q: %w", cfg.SMSCost, err)
	}
	rate, err := limiter.NewRateFromFormatted(cfg.SMSRate)
	if err != nil {
		return nil, fmt.Errorf("invalid sms rate %q: %w", cfg.SMSRate, err)
	}
	s := &Server{
		store:       NewStore(balance, cost),
		sessionUser: strings.TrimSpace(cfg.SessionUser),
		latency:     cfg.Latency,
	}
	s.store.SetExpiry(time.Now().Add(cfg.SMSValidity))
	if cfg.Seed {
		if err := Seed(s.store); err != nil {
			return nil, fmt.Errorf("seed mock store: %w", err)
		}
	}
	s.engine = s.buildRouter(ctx, rate)
	return s, nil
}

// Store exposes the backing store for tests and seeding.
func (s *Server) Store() *Store { return s.store }

// Handler returns the HTTP handler of the mock backend.
func (s *Server) Handler() http.Handler { return s.engine }

func (s *Server) buildRouter(ctx context.Context, rate limiter.Rate) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(ctx))
	if s.latency > 0 {
		r.Use(func(c *gin.Context) {
			select {
			case <-time.After(s.latency):
			case <-c.Request.Context().Done():
			}
			c.Next()
		})
	}
	r.Use(s.identify)

	r.GET("/usuarios", s.listUsers)
	r.GET("/usuario-detalle/:nombre", s.getUser)
	r.POST("/crear-usuario", s.createUser)
	r.PUT("/editar-usuario/:nombre", s.updateUser)
	r.DELETE("/eliminar-usuario/:nombre", s.deleteUser)
	r.GET("/usuario-actual", s.currentUser)

	api := r.Group("/api")
	api.GET("/usuarios", s.userOptions)
	api.GET("/sucursales", s.listBranches)
	api.POST("/sucursales", s.createBranch)
	api.PUT("/sucursales/:codigo", s.updateBranch)
	api.DELETE("/sucursales/:codigo", s.deleteBranch)
	api.GET("/admin/sms/todos", s.smsLog)
	api.GET("/admin/sms/saldo", s.smsBalance)

	sendLimit := mgin.NewMiddleware(
		limiter.New(memory.NewStore(), rate),
		mgin.WithKeyGetter(func(c *gin.Context) string {
			if caller := c.GetString(callerKey); caller != "" {
				return caller
			}
			return c.ClientIP()
		}),
		mgin.WithLimitReachedHandler(func(c *gin.Context) {
			abort(c, fail(http.StatusTooManyRequests, "Demasiados envíos. Intentá más tarde."))
		}),
	)
	r.POST("/send-sms", s.requireCaller, sendLimit, s.sendSMS)
	r.GET("/send-sms/obtener-vencimiento", s.requireCaller, s.smsExpiry)

	r.NoRoute(func(c *gin.Context) {
		abort(c, fail(http.StatusNotFound, "Not Found"))
	})
	return r
}

// identify resolves the caller from basic credentials, the identity
// header, the session cookie or the configured default, in that order.
func (s *Server) identify(c *gin.Context) {
	var caller string
	if user, pass, ok := c.Request.BasicAuth(); ok {
		if !s.store.Authenticate(user, pass) {
			abort(c, fail(http.StatusUnauthorized, "Credenciales inválidas"))
			return
		}
		caller = user
	}
	if caller == "" {
		caller = strings.TrimSpace(c.GetHeader(SessionUserHeader))
	}
	if caller == "" {
		if v, err := c.Cookie(sessionCookie); err == nil {
			caller = strings.TrimSpace(v)
		}
	}
	if caller == "" {
		caller = s.sessionUser
	}
	if caller != "" {
		c.Set(callerKey, caller)
	}
	c.Next()
}

func (s *Server) requireCaller(c *gin.Context) {
	if c.GetString(callerKey) == "" {
		abort(c, fail(http.StatusUnauthorized, "No hay sesión activa"))
		return
	}
	c.Next()
}

func requestLogger(ctx context.Context) gin.HandlerFunc {
	log := logger.FromContext(ctx)
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug("mock request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

func abort(c *gin.Context, err *Error) {
	c.AbortWithStatusJSON(err.Status, gin.H{"detail": err.Message})
}

// abortBind answers binding failures the way FastAPI does: 422 with a
// list of {loc, msg, type} entries.
func abortBind(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{
		"detail": []gin.H{{"loc": []string{"body"}, "msg": bindMessage(err), "type": "value_error"}},
	})
}

// Run serves the mock backend on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	log := logger.FromContext(ctx)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info("mock backend listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	log.Info("shutting down mock backend")
	return srv.Shutdown(shutdownCtx)
}
