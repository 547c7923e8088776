package logx

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config controls the process-wide logger. Debug lowers the level to debug;
// PrettyFormat switches from JSON lines to the human-readable console writer.
type Config struct {
	Debug        bool `split_words:"true" default:"false"`
	PrettyFormat bool `split_words:"true" default:"false"`
}

// Init replaces the zerolog global logger. Call once at process start,
// before any component logs.
func Init(conf Config) {
	var writer io.Writer = os.Stdout
	if conf.PrettyFormat {
		writer = zerolog.NewConsoleWriter()
	}

	level := zerolog.InfoLevel
	if conf.Debug {
		level = zerolog.DebugLevel
	}

	log.Logger = zerolog.New(writer).Level(level).With().
		Timestamp().Caller().Stack().Logger()
}
