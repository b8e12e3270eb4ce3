package loader

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AppletOS/backend/internal/shared/types"
)

// ErrUnknownTitle is returned when a launcher cannot find a title.
var ErrUnknownTitle = errors.New("loader: unknown title")

// ProgramSetter receives the id of the title that is now running.
type ProgramSetter interface {
	SetCurrentProgramID(id uint64)
}

// LaunchKind tells a launch from a reboot.
type LaunchKind string

const (
	KindLaunch LaunchKind = "launch"
	KindReboot LaunchKind = "reboot"
)

// Launch is one entry of the launch history.
type Launch struct {
	Kind    LaunchKind      `json:"kind"`
	TitleID uint64          `json:"title_id"`
	Name    string          `json:"name,omitempty"`
	Media   types.MediaType `json:"media"`
	At      time.Time       `json:"at"`
}

const maxHistory = 64

// history is the bounded launch log shared by both launchers.
type history struct {
	mu      sync.Mutex
	entries []Launch
	now     func() time.Time
}

func (h *history) add(l Launch) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.now != nil {
		l.At = h.now()
	} else {
		l.At = time.Now()
	}
	h.entries = append(h.entries, l)
	if len(h.entries) > maxHistory {
		h.entries = h.entries[len(h.entries)-maxHistory:]
	}
}

// History returns the most recent launches, oldest first.
func (h *history) History() []Launch {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Launch(nil), h.entries...)
}

// CatalogLauncher starts titles listed in a local catalog.
type CatalogLauncher struct {
	history

	catalog *Catalog
	program ProgramSetter
	log     *zap.Logger
}

// NewCatalogLauncher creates a launcher backed by catalog.
func NewCatalogLauncher(catalog *Catalog, program ProgramSetter, log *zap.Logger) *CatalogLauncher {
	if log == nil {
		log = zap.NewNop()
	}
	return &CatalogLauncher{
		catalog: catalog,
		program: program,
		log:     log.Named("loader"),
	}
}

// LaunchTitle starts titleID from media if the catalog lists it there.
func (l *CatalogLauncher) LaunchTitle(media types.MediaType, titleID uint64) error {
	t, ok := l.catalog.Lookup(media, titleID)
	if !ok {
		return fmt.Errorf("%w: %016X on %s", ErrUnknownTitle, titleID, media)
	}
	l.program.SetCurrentProgramID(titleID)
	l.add(Launch{Kind: KindLaunch, TitleID: titleID, Name: t.Name, Media: media})
	l.log.Info("title launched", zap.String("title_id", fmt.Sprintf("%016X", titleID)), zap.Stringer("media", media))
	return nil
}

// RebootToTitle restarts the device into titleID. Unknown titles are logged
// and ignored.
func (l *CatalogLauncher) RebootToTitle(media types.MediaType, titleID uint64) {
	t, ok := l.catalog.Lookup(media, titleID)
	if !ok {
		l.log.Error("reboot to unknown title", zap.String("title_id", fmt.Sprintf("%016X", titleID)), zap.Stringer("media", media))
		return
	}
	l.program.SetCurrentProgramID(titleID)
	l.add(Launch{Kind: KindReboot, TitleID: titleID, Name: t.Name, Media: media})
	l.log.Info("rebooted to title", zap.String("title_id", fmt.Sprintf("%016X", titleID)), zap.Stringer("media", media))
}
