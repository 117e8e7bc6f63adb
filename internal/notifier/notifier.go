// Package notifier forwards timer events to the logbook tray app.
//
// The tray app advertises itself through a lockfile holding
// "port|pid|secret". A notification is a JSON POST to 127.0.0.1:<port>
// carrying the secret in a header.
package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	ps "github.com/mitchellh/go-ps"

	"github.com/julianstephens/logbook/internal/constants"
	"github.com/julianstephens/logbook/internal/logger"
)

const SecretHeader = "X-Logbook-Secret"

var (
	ErrTrayNotRunning    = errors.New(constants.TrayAppExecutable + " is not running")
	ErrMalformedLockfile = errors.New("lockfile is malformed")
)

// Payload is the body posted to the tray app.
type Payload struct {
	Text       string `json:"text"`
	DurationMs uint32 `json:"duration_ms"`
}

// Tray is the parsed lockfile content.
type Tray struct {
	Port   int
	PID    int
	Secret string
}

func (t Tray) URL() string {
	return fmt.Sprintf("http://127.0.0.1:%d", t.Port)
}

type Notifier struct {
	configDir   func() (string, error)
	findProcess func(int) (ps.Process, error)
	client      *http.Client
	retries     int
	retryDelay  time.Duration
}

type Option func(*Notifier)

// WithConfigDir overrides the base directory searched for the tray config.
func WithConfigDir(fn func() (string, error)) Option {
	return func(n *Notifier) { n.configDir = fn }
}

func WithProcessFinder(fn func(int) (ps.Process, error)) Option {
	return func(n *Notifier) { n.findProcess = fn }
}

func WithHTTPClient(c *http.Client) Option {
	return func(n *Notifier) { n.client = c }
}

func WithRetries(n int, delay time.Duration) Option {
	return func(nt *Notifier) {
		nt.retries = n
		nt.retryDelay = delay
	}
}

func New(opts ...Option) *Notifier {
	n := &Notifier{
		configDir:   os.UserConfigDir,
		findProcess: ps.FindProcess,
		client:      &http.Client{Timeout: 2 * time.Second},
		retries:     constants.NotifyMaxRetries,
		retryDelay:  constants.NotifyRetryDelay,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Notify locates the tray app and shows text for the configured duration.
func (n *Notifier) Notify(text string) error {
	return n.NotifyContext(context.Background(), text)
}

func (n *Notifier) NotifyContext(ctx context.Context, text string) error {
	dir, err := n.TrayConfigDir()
	if err != nil {
		return err
	}

	tray, err := ReadLockfile(filepath.Join(dir, constants.NotifierLockfileName))
	if err != nil {
		return err
	}
	if err := n.verify(tray); err != nil {
		return err
	}

	payload := Payload{Text: text, DurationMs: constants.NotificationDurationMs}

	var lastErr error
	for attempt := 0; attempt < max(n.retries, 1); attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(n.retryDelay):
			}
		}
		if lastErr = n.send(ctx, tray, payload); lastErr == nil {
			return nil
		}
		logger.Debug("Notification attempt failed", "attempt", attempt+1, "error", lastErr)
	}
	return lastErr
}

// TrayConfigDir returns the tray app's config directory, honouring a custom
// lockfile_dir from its settings.json.
func (n *Notifier) TrayConfigDir() (string, error) {
	base, err := n.configDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config dir: %w", err)
	}
	dir := filepath.Join(base, constants.TrayAppIdentifier)

	data, err := os.ReadFile(filepath.Join(dir, "settings.json"))
	if err != nil {
		return dir, nil
	}
	var settings struct {
		Settings struct {
			LockfileDir *string `json:"lockfile_dir"`
		} `json:"settings"`
	}
	if err := json.Unmarshal(data, &settings); err != nil {
		logger.Warn("Ignoring unreadable tray settings", "error", err)
		return dir, nil
	}
	if custom := settings.Settings.LockfileDir; custom != nil && *custom != "" {
		return *custom, nil
	}
	return dir, nil
}

// ReadLockfile parses "port|pid|secret".
func ReadLockfile(path string) (Tray, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Tray{}, ErrTrayNotRunning
	}
	return parseLockfile(string(content))
}

func parseLockfile(content string) (Tray, error) {
	parts := strings.Split(strings.TrimSpace(content), "|")
	if len(parts) != 3 {
		return Tray{}, ErrMalformedLockfile
	}

	if strings.TrimSpace(parts[0]) == "" {
		return Tray{}, errors.New("port in lockfile is empty")
	}
	port, err := strconv.Atoi(parts[0])
	if err != nil {
		return Tray{}, errors.New("invalid port number in lockfile")
	}
	if port < 1 || port > 65535 {
		return Tray{}, fmt.Errorf("port number %d is outside valid range (1-65535)", port)
	}

	pid, err := strconv.Atoi(parts[1])
	if err != nil {
		return Tray{}, errors.New("invalid process ID in lockfile")
	}

	secret := parts[2]
	if strings.TrimSpace(secret) == "" {
		return Tray{}, errors.New("secret in lockfile is empty")
	}
	return Tray{Port: port, PID: pid, Secret: secret}, nil
}

// verify checks that the lockfile's pid is a live tray process, so a stale
// lockfile never sends the secret to whatever now owns the port.
func (n *Notifier) verify(t Tray) error {
	process, err := n.findProcess(t.PID)
	if err != nil || process == nil {
		return ErrTrayNotRunning
	}
	if !strings.HasPrefix(process.Executable(), constants.TrayAppExecutable) {
		return fmt.Errorf("process with PID %d is not %s (is %s)", t.PID, constants.TrayAppExecutable, process.Executable())
	}
	return nil
}

func (n *Notifier) send(ctx context.Context, t Tray, payload Payload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.URL(), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(SecretHeader, t.Secret)

	res, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusOK {
		return nil
	}
	msg, _ := io.ReadAll(res.Body)
	return fmt.Errorf("notification failed with status %d: %s", res.StatusCode, strings.TrimSpace(string(msg)))
}
