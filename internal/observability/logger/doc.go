// Package logger provee un logger Zap singleton con scoping por contexto.
//
//   - Singleton: una sola instancia global inicializada con Init().
//   - Context scoping: cada request lleva su logger con request_id sin crear un core nuevo.
//   - Entornos: "dev" consola con colores, "prod" JSON, "test" descarta.
//   - Niveles: debug, info, warn, error (LOG_LEVEL).
//
// Inicialización (una vez en main.go):
//
//	logger.Init(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level, ServiceName: "hellojwks"})
//	defer logger.Sync()
//
// Con contexto:
//
//	log := logger.From(ctx).With(logger.Layer("keystore"), logger.Op("Create"))
//	log.Info("key created", logger.KID(rec.Kid), logger.Alg(rec.Alg))
//
// El material privado de una clave nunca se loguea.
package logger
