// Package logging writes a replayable curl trace of every API server attempt.
package logging

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/fivetwenty-io/vnc-client/internal/constants"
)

const maskedToken = "$TOKEN"

// CurlLogger logs each attempt as a curl command line and each answer as a
// RESP line.
type CurlLogger struct {
	log  *zap.Logger
	path string
}

// New opens the trace file. A bare file name is placed in the default log
// directory, or in the fallback directory when that cannot be created.
func New(logFile string) (*CurlLogger, error) {
	path, err := resolvePath(logFile, constants.DefaultLogDir, constants.FallbackLogDir)
	if err != nil {
		return nil, err
	}

	encoderCfg := zapcore.EncoderConfig{
		TimeKey:     "time",
		LevelKey:    "level",
		MessageKey:  "msg",
		LineEnding:  zapcore.DefaultLineEnding,
		EncodeLevel: zapcore.CapitalLevelEncoder,
		EncodeTime:  zapcore.TimeEncoderOfLayout("2006/01/02 15:04:05"),
	}

	cfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(zap.DebugLevel),
		Encoding:         "console",
		EncoderConfig:    encoderCfg,
		OutputPaths:      []string{path},
		ErrorOutputPaths: []string{"stderr"},
	}

	l, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("opening curl log %s: %w", path, err)
	}

	return &CurlLogger{log: l, path: path}, nil
}

// NewWithLogger writes the trace through an existing zap logger.
func NewWithLogger(l *zap.Logger) *CurlLogger {
	return &CurlLogger{log: l}
}

// Path returns the trace file path, or "" for NewWithLogger loggers.
func (c *CurlLogger) Path() string {
	return c.path
}

// Sync flushes buffered entries.
func (c *CurlLogger) Sync() error {
	return c.log.Sync()
}

// LogRequest records one attempt.
func (c *CurlLogger) LogRequest(method, url string, header http.Header, body []byte) {
	c.log.Debug(Command(method, url, header, body))
}

// LogResponse records one answer.
func (c *CurlLogger) LogResponse(status int, header http.Header, body []byte) {
	c.log.Debug(fmt.Sprintf("RESP: %d %v %s", status, map[string][]string(header), body))
}

// Command renders an attempt as a curl command with the auth token masked.
// GET and DELETE carry no -d payload.
func Command(method, url string, header http.Header, body []byte) string {
	keys := make([]string, 0, len(header))
	for k := range header {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	var hdr strings.Builder

	for _, k := range keys {
		for _, v := range header[k] {
			if strings.EqualFold(k, constants.HeaderAuthToken) {
				v = maskedToken
			}

			fmt.Fprintf(&hdr, "-H \"%s:%s\" ", k, v)
		}
	}

	if len(body) > 0 && method != http.MethodGet && method != http.MethodDelete {
		return fmt.Sprintf("curl -X %s %s-d '%s' %s", method, hdr.String(), body, url)
	}

	return fmt.Sprintf("curl -X %s %s%s", method, hdr.String(), url)
}

func resolvePath(logFile, defaultDir, fallbackDir string) (string, error) {
	path := logFile
	if filepath.Dir(logFile) == "." && !strings.ContainsRune(logFile, filepath.Separator) {
		path = filepath.Join(defaultDir, logFile)
	}

	dir := filepath.Dir(path)

	err := os.MkdirAll(dir, constants.LogDirPerm)
	if err == nil {
		return path, nil
	}

	err = os.MkdirAll(fallbackDir, constants.LogDirPerm)
	if err != nil {
		return "", fmt.Errorf("creating log directory %s: %w", fallbackDir, err)
	}

	return filepath.Join(fallbackDir, filepath.Base(path)), nil
}
