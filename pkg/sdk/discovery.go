package sdk

import (
	"log/slog"

	"github.com/celerix-dev/celerix-cms/pkg/engine"
)

// Options selects between a remote daemon and the embedded engine.
type Options struct {
	RemoteAddr string
	DisableTLS bool
	DataDir    string
	// Logger receives load and fallback warnings; nil uses slog.Default.
	Logger *slog.Logger
}

// New initializes the store based on the options.
// It returns the interface, so the app doesn't care if it's local or remote.
func New(opts Options) (DocumentStore, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.RemoteAddr != "" {
		client, err := Connect(opts.RemoteAddr, opts.DisableTLS)
		if err == nil {
			return client, nil
		}
		logger.Warn("sdk.new: remote store unreachable, falling back to embedded mode",
			slog.String("addr", opts.RemoteAddr), slog.Any("error", err))
	}

	// Embedded mode uses the same engine the daemon uses, inside the app process.
	p, err := engine.NewPersistence(opts.DataDir)
	if err != nil {
		return nil, err
	}
	p.WithLogger(logger)

	allData, err := p.LoadAll()
	if err != nil {
		return nil, err
	}

	return engine.NewMemStore(allData, p).WithLogger(logger), nil
}
