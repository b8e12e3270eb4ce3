package loader

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/GriffinCanCode/AppletOS/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AppletOS/backend/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/AppletOS/backend/internal/shared/types"
)

// RemoteConfig configures the remote launcher client.
type RemoteConfig struct {
	BaseURL      string
	Timeout      time.Duration
	RetryMax     int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
	// RequestsPerSecond caps launch calls; zero is unlimited.
	RequestsPerSecond float64
	Breaker           resilience.Settings
}

type launchRequest struct {
	TitleID string `json:"title_id"`
	Media   string `json:"media"`
}

type launchResponse struct {
	Name string `json:"name"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// RemoteLauncher asks a frontend service over HTTP to start titles.
type RemoteLauncher struct {
	history

	client  *resty.Client
	limiter *rate.Limiter
	breaker *resilience.Breaker
	timeout time.Duration
	program ProgramSetter
	metrics *monitoring.Metrics
	log     *zap.Logger
}

// NewRemoteLauncher creates a launcher that posts to cfg.BaseURL.
func NewRemoteLauncher(cfg RemoteConfig, program ProgramSetter, log *zap.Logger) *RemoteLauncher {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.RetryWaitMin <= 0 {
		cfg.RetryWaitMin = 100 * time.Millisecond
	}
	if cfg.RetryWaitMax <= 0 {
		cfg.RetryWaitMax = 2 * time.Second
	}
	log = log.Named("loader.remote")

	// Retries happen in the transport so resty sees one final response.
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = cfg.RetryMax
	retryClient.RetryWaitMin = cfg.RetryWaitMin
	retryClient.RetryWaitMax = cfg.RetryWaitMax
	retryClient.Logger = nil
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler

	client := resty.NewWithClient(retryClient.StandardClient()).
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("User-Agent", "AppletOS-Loader/1.0").
		SetJSONMarshaler(sonic.Marshal).
		SetJSONUnmarshaler(sonic.Unmarshal)

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), int(cfg.RequestsPerSecond)+1)
	}

	settings := cfg.Breaker
	if settings.ReadyToTrip == nil {
		settings.ReadyToTrip = func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		}
	}
	settings.IsSuccessful = func(err error) bool {
		// A missing title is an answer, not a service failure.
		return err == nil || errors.Is(err, ErrUnknownTitle)
	}
	settings.OnStateChange = func(name string, from, to resilience.State) {
		log.Warn("launcher breaker state changed",
			zap.String("breaker", name),
			zap.String("from", from.String()),
			zap.String("to", to.String()))
	}

	return &RemoteLauncher{
		client:  client,
		limiter: limiter,
		breaker: resilience.New("loader-remote", settings),
		timeout: cfg.Timeout,
		program: program,
		log:     log,
	}
}

// WithMetrics adds collaborator call metrics
func (r *RemoteLauncher) WithMetrics(metrics *monitoring.Metrics) *RemoteLauncher {
	r.metrics = metrics
	return r
}

// LaunchTitle asks the frontend to start titleID from media.
func (r *RemoteLauncher) LaunchTitle(media types.MediaType, titleID uint64) error {
	name, err := r.call("/titles/launch", media, titleID)
	if err != nil {
		return err
	}
	r.program.SetCurrentProgramID(titleID)
	r.add(Launch{Kind: KindLaunch, TitleID: titleID, Name: name, Media: media})
	return nil
}

// RebootToTitle asks the frontend to reboot into titleID. Failures are logged.
func (r *RemoteLauncher) RebootToTitle(media types.MediaType, titleID uint64) {
	name, err := r.call("/titles/reboot", media, titleID)
	if err != nil {
		r.log.Error("reboot to title failed", zap.String("title_id", fmt.Sprintf("%016X", titleID)), zap.Error(err))
		return
	}
	r.program.SetCurrentProgramID(titleID)
	r.add(Launch{Kind: KindReboot, TitleID: titleID, Name: name, Media: media})
}

// BreakerState reports the state of the launcher circuit breaker.
func (r *RemoteLauncher) BreakerState() resilience.State {
	return r.breaker.State()
}

func (r *RemoteLauncher) call(path string, media types.MediaType, titleID uint64) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	var timer *monitoring.Timer
	if r.metrics != nil {
		timer = monitoring.NewTimer(r.metrics, "loader", path)
	}

	if err := r.limiter.Wait(ctx); err != nil {
		r.stopTimer(timer, "rate_limited")
		return "", fmt.Errorf("loader: rate limit: %w", err)
	}

	var out launchResponse
	err := r.breaker.Execute(func() error {
		var apiErr errorResponse
		resp, err := r.client.R().
			SetContext(ctx).
			SetBody(launchRequest{TitleID: fmt.Sprintf("%016X", titleID), Media: media.String()}).
			SetResult(&out).
			SetError(&apiErr).
			Post(path)
		if err != nil {
			return fmt.Errorf("loader: %s: %w", path, err)
		}
		switch {
		case resp.StatusCode() == http.StatusNotFound:
			return fmt.Errorf("%w: %016X on %s", ErrUnknownTitle, titleID, media)
		case resp.IsError():
			return fmt.Errorf("loader: %s: status %d: %s", path, resp.StatusCode(), apiErr.Error)
		}
		return nil
	})
	switch {
	case errors.Is(err, ErrUnknownTitle):
		r.stopTimer(timer, "not_found")
		return "", err
	case err != nil:
		r.stopTimer(timer, "error")
		return "", err
	}
	r.stopTimer(timer, "success")
	return out.Name, nil
}

func (r *RemoteLauncher) stopTimer(t *monitoring.Timer, status string) {
	if t != nil {
		t.Stop(status)
	}
}
