package simplex

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strconv"

	apperrors "github.com/asketd/simplex-exchange-bot/internal/errors"
	"github.com/asketd/simplex-exchange-bot/pkg/config"
)

// StartCLI launches the SimpleX CLI bound to the configured websocket
// port, piping its output into the logger. The process is killed when
// ctx is cancelled.
func StartCLI(ctx context.Context, cfg config.SimplexConfig, log *slog.Logger) (*exec.Cmd, error) {
	if log == nil {
		log = slog.Default()
	}

	cmd := exec.CommandContext(ctx, cfg.CLIPath,
		"-d", cfg.Database,
		"-p", strconv.Itoa(cfg.Port),
	)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, apperrors.NewTransportError(fmt.Errorf("stdout pipe: %w", err))
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, apperrors.NewTransportError(fmt.Errorf("stderr pipe: %w", err))
	}

	if err := cmd.Start(); err != nil {
		return nil, apperrors.NewTransportError(fmt.Errorf("start simplex cli: %w", err))
	}

	log.Info("simplex cli started",
		slog.String("path", cfg.CLIPath),
		slog.Int("port", cfg.Port),
		slog.Int("pid", cmd.Process.Pid))

	go pipeLines(stdout, log, "cli")
	go pipeLines(stderr, log, "cli_error")

	return cmd, nil
}

func pipeLines(r io.Reader, log *slog.Logger, stream string) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		log.Debug(scanner.Text(), slog.String("stream", stream))
	}
}
