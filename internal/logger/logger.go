package logger

import (
	"context"
	"fmt"
	"sync"

	"github.com/talentmap/bidding-api/internal/config"
	"github.com/talentmap/bidding-api/internal/domain"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger creates the service logger. Production and json formats use the zap
// production encoder; everything else gets the colored development console.
func NewLogger(cfg *config.LoggingConfig, appCfg *config.AppConfig) (*zap.Logger, error) {
	var zapCfg zap.Config

	if cfg.Format == "json" || appCfg.Environment == "production" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	zapCfg.InitialFields = map[string]interface{}{
		"app":         appCfg.Name,
		"environment": appCfg.Environment,
	}

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return logger, nil
}

// ForRequest tags logger with the request line and correlation id
func ForRequest(logger *zap.Logger, method, path, requestID string) *zap.Logger {
	return logger.With(
		zap.String("method", method),
		zap.String("path", path),
		zap.String("request_id", requestID),
	)
}

// WithActor tags logger with the acting user's personnel id and roles
func WithActor(logger *zap.Logger, perdet string, roles []domain.Role) *zap.Logger {
	names := make([]string, len(roles))
	for i, role := range roles {
		names[i] = string(role)
	}
	return logger.With(
		zap.String("actor_perdet", perdet),
		zap.Strings("actor_roles", names),
	)
}

// Scope is the logger of one request. It is shared by every layer handling the
// request, so fields added deep in the chain show up in the access log line.
type Scope struct {
	mu     sync.RWMutex
	logger *zap.Logger
}

// Logger returns the current request logger
func (s *Scope) Logger() *zap.Logger {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.logger
}

func (s *Scope) update(fn func(*zap.Logger) *zap.Logger) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logger = fn(s.logger)
}

type scopeKey struct{}

// NewContext returns ctx carrying a new request scope seeded with logger
func NewContext(ctx context.Context, logger *zap.Logger) (context.Context, *Scope) {
	scope := &Scope{logger: logger}
	return context.WithValue(ctx, scopeKey{}, scope), scope
}

// FromContext returns the request logger of ctx, or fallback outside a request
func FromContext(ctx context.Context, fallback *zap.Logger) *zap.Logger {
	if scope, ok := ctx.Value(scopeKey{}).(*Scope); ok {
		return scope.Logger()
	}
	return fallback
}

// TagActor adds the authenticated user to the request scope of ctx, if any
func TagActor(ctx context.Context, perdet string, roles []domain.Role) {
	if scope, ok := ctx.Value(scopeKey{}).(*Scope); ok {
		scope.update(func(l *zap.Logger) *zap.Logger {
			return WithActor(l, perdet, roles)
		})
	}
}
