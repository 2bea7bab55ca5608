// Package logger expone un logger Zap singleton con scoping por contexto.
//
// Inicialización (una vez, en cmd/console):
//
//	logger.Init(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})
//	defer logger.Sync()
//
// En componentes con contexto:
//
//	log := logger.From(ctx).With(logger.Component("authclient"), logger.Op("Do"))
//	log.Warn("refresh failed", logger.Err(err))
//
// Los tokens nunca se loguean; usar TokenHint si hace falta correlacionar.
package logger
