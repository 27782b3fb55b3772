package camera

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync/atomic"
)

// DefaultDevice is the video device grabbed by DefaultCommand.
const DefaultDevice = "/dev/video0"

// DefaultCommand grabs one MJPEG frame from a V4L2 device with ffmpeg. The
// placeholder {device} is replaced with the source's device path.
var DefaultCommand = []string{
	"ffmpeg", "-hide_banner", "-loglevel", "error",
	"-f", "v4l2", "-i", "{device}",
	"-frames:v", "1", "-f", "image2pipe", "-vcodec", "mjpeg", "-",
}

// CommandSource captures frames by running an external grabber that writes
// one image to stdout per invocation.
type CommandSource struct {
	Device  string
	Command []string
	MaxEdge int
}

func (s CommandSource) argv() []string {
	cmd := s.Command
	if len(cmd) == 0 {
		cmd = DefaultCommand
	}
	dev := s.Device
	if dev == "" {
		dev = DefaultDevice
	}
	argv := make([]string, len(cmd))
	for i, a := range cmd {
		argv[i] = strings.ReplaceAll(a, "{device}", dev)
	}
	return argv
}

// Open implements Source. It checks the grabber is installed and, for
// device paths, that the device can be read.
func (s CommandSource) Open(ctx context.Context) (Stream, error) {
	argv := s.argv()
	bin, err := exec.LookPath(argv[0])
	if err != nil {
		return nil, &CameraError{Reason: ReasonUnsupported, Message: msgUnsupported, Cause: err}
	}
	dev := s.Device
	if dev == "" {
		dev = DefaultDevice
	}
	if strings.HasPrefix(dev, "/dev/") {
		if err := checkReadable(dev); err != nil {
			return nil, err
		}
	}
	return &commandStream{bin: bin, args: argv[1:], maxEdge: s.MaxEdge}, nil
}

type commandStream struct {
	bin     string
	args    []string
	maxEdge int
	closed  atomic.Bool
}

func (c *commandStream) Capture(ctx context.Context) ([]byte, error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, c.bin, c.args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && strings.Contains(strings.ToLower(stderr.String()), "permission denied") {
			return nil, &CameraError{Reason: ReasonPermission, Message: msgPermission, Cause: err}
		}
		return nil, &CameraError{
			Reason:  ReasonCapture,
			Message: msgCapture,
			Cause:   fmt.Errorf("%s: %w: %s", c.bin, err, strings.TrimSpace(stderr.String())),
		}
	}

	jpg, err := EncodeJPEG(stdout.Bytes(), c.maxEdge)
	if err != nil {
		return nil, &CameraError{Reason: ReasonCapture, Message: msgCapture, Cause: err}
	}
	return jpg, nil
}

func (c *commandStream) Close() error {
	c.closed.Store(true)
	return nil
}
