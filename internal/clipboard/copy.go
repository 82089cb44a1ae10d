// Package clipboard copies exported documents to the system clipboard.
// Copying never touches session state; callers only get a status line.
package clipboard

import (
	"errors"

	"github.com/atotto/clipboard"
	"github.com/sirupsen/logrus"
)

const (
	StatusCopied = "Copied."
	StatusFailed = "Copy failed."
)

// ErrUnsupported is returned when no clipboard utility is available.
var ErrUnsupported = errors.New("clipboard not supported on this system")

// WriteFunc writes text to a clipboard.
type WriteFunc func(text string) error

// Copier writes text to the clipboard and reports a status line.
type Copier struct {
	write  WriteFunc
	logger *logrus.Logger
}

// NewCopier returns a Copier for the system clipboard.
func NewCopier(logger *logrus.Logger) *Copier {
	return NewCopierWithWriter(systemWrite, logger)
}

// NewCopierWithWriter returns a Copier that writes through write.
func NewCopierWithWriter(write WriteFunc, logger *logrus.Logger) *Copier {
	if logger == nil {
		logger = logrus.New()
	}
	return &Copier{write: write, logger: logger}
}

func systemWrite(text string) error {
	if clipboard.Unsupported {
		return ErrUnsupported
	}
	return clipboard.WriteAll(text)
}

// Copy writes text and returns StatusCopied or StatusFailed. The error is
// logged, not returned.
func (c *Copier) Copy(text string) string {
	if err := c.write(text); err != nil {
		c.logger.WithError(err).Warn("Clipboard copy failed")
		return StatusFailed
	}
	c.logger.WithField("bytes", len(text)).Debug("Copied to clipboard")
	return StatusCopied
}

// CopyAsync copies in the background and hands the status to done, if set.
func (c *Copier) CopyAsync(text string, done func(status string)) {
	go func() {
		status := c.Copy(text)
		if done != nil {
			done(status)
		}
	}()
}
