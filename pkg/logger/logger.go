package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// New создает логгер с JSON-форматом. format "text" включает читаемый вывод для локальной разработки.
func New(logLevel, format string) *logrus.Logger {
	return newWithOutput(logLevel, format, os.Stdout)
}

func newWithOutput(logLevel, format string, out io.Writer) *logrus.Logger {
	log := logrus.New()

	if format == "text" {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		log.SetFormatter(&logrus.JSONFormatter{})
	}

	log.SetOutput(out)

	// Уровень логирования
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		level = logrus.InfoLevel // Уровень по умолчанию, если передан некорректный
	}
	log.SetLevel(level)
	return log
}
