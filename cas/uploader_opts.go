package cas

import "log/slog"

// UploaderOption configures an Uploader.
type UploaderOption func(*Uploader)

// WithConcurrency bounds parallel existence probes and content pushes.
// Values < 1 are ignored. The default is 8.
func WithConcurrency(n int) UploaderOption {
	return func(u *Uploader) {
		if n >= 1 {
			u.concurrency = n
		}
	}
}

// WithLogger sets the logger for sync operations. By default nothing is
// logged.
func WithLogger(logger *slog.Logger) UploaderOption {
	return func(u *Uploader) {
		u.logger = logger
	}
}
