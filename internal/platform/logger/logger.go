// Pacote logger expõe o slog JSON compartilhado pelo binário da API.
package logger

import (
	"log/slog"
	"os"
	"sync/atomic"
)

var atual atomic.Pointer[slog.Logger]

func init() {
	atual.Store(novo(slog.LevelInfo))
}

func novo(level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}

// L devolve o logger corrente. Componentes que aceitam *slog.Logger no
// construtor recebem este valor na montagem do binário.
func L() *slog.Logger {
	return atual.Load()
}

func SetLevel(level slog.Level) {
	atual.Store(novo(level))
}

func Info(msg string, args ...any) {
	L().Info(msg, args...)
}

func Error(msg string, args ...any) {
	L().Error(msg, args...)
}

// Fatal registra e encerra o processo; usado apenas durante o boot.
func Fatal(msg string, args ...any) {
	L().Error(msg, args...)
	os.Exit(1)
}
