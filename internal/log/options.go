package log

import (
	"fmt"

	"github.com/spf13/pflag"
)

type Options struct {
	Name          string
	Level         string
	Format        string
	EnableColor   bool
	DisableCaller bool
	CallerSkip    int
	OutputPaths   []string
}

func NewOptions() *Options {
	return &Options{
		Level:       "info",
		Format:      "console",
		EnableColor: true,
		CallerSkip:  1,
		OutputPaths: []string{"stdout"},
	}
}

func (o *Options) Validate() []error {
	var errs []error
	switch o.Format {
	case "console", "json":
	default:
		errs = append(errs, fmt.Errorf("invalid log format %q, want console or json", o.Format))
	}
	switch o.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("invalid log level %q", o.Level))
	}
	return errs
}

// AddFlags binds the options to fs.
func (o *Options) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.Level, "log.level", o.Level, "The minimum log level to output (debug, info, warn, error).")
	fs.StringVar(&o.Format, "log.format", o.Format, "The log output format (console or json).")
	fs.BoolVar(&o.EnableColor, "log.enable-color", o.EnableColor, "Enable colorized output for the console format.")
	fs.BoolVar(&o.DisableCaller, "log.disable-caller", o.DisableCaller, "Disable the caller field in logs.")
}
