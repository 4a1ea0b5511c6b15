package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New cria o logger estruturado padrão da plataforma.
// Em env "local" usa o encoder de desenvolvimento; caso contrário, produção.
func New(serviceName string, env string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if env == "local" {
		cfg = zap.NewDevelopmentConfig()
	}

	// sempre garantir que serviço e env entrem como campos padrão
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	// LOG_LEVEL sobrescreve o nível default (debug|info|warn|error)
	if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
		if parsed, err := zapcore.ParseLevel(lvl); err == nil {
			cfg.Level = zap.NewAtomicLevelAt(parsed)
		}
	}

	l, err := cfg.Build(
		zap.Fields(
			zap.String("service", serviceName),
			zap.String("env", env),
		),
	)
	if err != nil {
		return nil, err
	}
	return l, nil
}
