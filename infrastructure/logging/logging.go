package logging

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// output lets component loggers be created at package init and still pick up
// the writer chosen later in Init.
type output struct {
	mu sync.RWMutex
	w  io.Writer
}

func (o *output) Write(p []byte) (int, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.w.Write(p)
}

func (o *output) set(w io.Writer) {
	o.mu.Lock()
	o.w = w
	o.mu.Unlock()
}

var out = &output{w: os.Stdout}

var base = zerolog.New(out).With().Timestamp().Logger()

// New returns the logger of a component, tagged with its name.
func New(component string) zerolog.Logger {
	return base.With().Str("component", component).Logger()
}

// Init sets the global level and switches to a console writer when pretty is set.
func Init(level string, pretty bool) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	if pretty {
		out.set(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	} else {
		out.set(os.Stdout)
	}
}

// SetOutput redirects every component logger, used by tests to capture logs.
func SetOutput(w io.Writer) {
	out.set(w)
}
