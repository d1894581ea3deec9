package ytdlp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli"
)

const (
	ytdlpPathFlag        = "ytdlp-path"
	ytdlpCookiesFileFlag = "ytdlp-cookies-file"
)

func RegisterFlags(f []cli.Flag) []cli.Flag {
	return append(f,
		cli.StringFlag{
			Name:   ytdlpPathFlag,
			Usage:  "path to the yt-dlp binary",
			Value:  "yt-dlp",
			EnvVar: "YTDLP_PATH",
		},
		cli.StringFlag{
			Name:   ytdlpCookiesFileFlag,
			Usage:  "cookies file passed to yt-dlp for restricted content",
			Value:  "",
			EnvVar: "YTDLP_COOKIES_FILE",
		},
	)
}

var ErrNoVideoID = errors.New("no video id provided")

// StreamInfo carries the resolved playback metadata. The direct url is
// signed and expires at the provider's discretion, so it is never cached.
type StreamInfo struct {
	Title     string `json:"title"`
	URL       string `json:"url"`
	Uploader  string `json:"uploader"`
	Thumbnail string `json:"thumbnail"`
}

// Runner executes an external command and returns its stdout and stderr.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error)
}

type execRunner struct{}

func (s execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

type Resolver struct {
	path        string
	cookiesFile string
	runner      Runner
}

func New(c *cli.Context) *Resolver {
	cookiesFile := c.String(ytdlpCookiesFileFlag)
	if cookiesFile != "" {
		log.Infof("yt-dlp cookies file %v", cookiesFile)
	}
	return &Resolver{
		path:        c.String(ytdlpPathFlag),
		cookiesFile: cookiesFile,
		runner:      execRunner{},
	}
}

func (s *Resolver) WithRunner(r Runner) *Resolver {
	s.runner = r
	return s
}

// Resolve invokes yt-dlp against the canonical watch url and decodes the
// info dump. Fields the tool does not supply stay empty.
func (s *Resolver) Resolve(ctx context.Context, videoID string) (*StreamInfo, error) {
	if strings.TrimSpace(videoID) == "" {
		return nil, ErrNoVideoID
	}

	target := fmt.Sprintf("https://www.youtube.com/watch?v=%s", videoID)

	args := []string{"-J", "-f", "best", "--no-playlist"}
	if s.cookiesFile != "" {
		args = append(args, "--cookies", s.cookiesFile)
	}
	args = append(args, target)

	stdout, stderr, err := s.runner.Run(ctx, s.path, args...)
	if err != nil {
		msg := strings.TrimSpace(string(stderr))
		if msg == "" {
			msg = err.Error()
		}
		return nil, errors.Errorf("yt-dlp error: %s", msg)
	}

	var info StreamInfo
	if err := json.Unmarshal(stdout, &info); err != nil {
		return nil, errors.Wrap(err, "decode yt-dlp output")
	}
	return &info, nil
}
