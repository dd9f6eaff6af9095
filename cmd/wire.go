package cmd

import (
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// app carries the process-level collaborators the commands share.
// Simulation components themselves are wired per run from the loaded
// configuration.
type app struct {
	logger   zerolog.Logger
	now      func() time.Time
	newRunID func() string
}

func wireApp() *app {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		With().Timestamp().Logger()

	return &app{
		logger:   logger,
		now:      time.Now,
		newRunID: uuid.NewString,
	}
}
