package jobflow

import (
	"io"
	"log/slog"
	"strings"
)

// NewLogger builds a structured logger writing to w
func NewLogger(config LogConfig, w io.Writer) (*slog.Logger, error) {
	level, err := config.level()
	if err != nil {
		return nil, err
	}
	options := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(config.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, options)), nil
	}
	return slog.New(slog.NewTextHandler(w, options)), nil
}
