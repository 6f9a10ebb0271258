package mpserial

import "github.com/sirupsen/logrus"

// SetLogger replaces c's logger. Passing nil disables logging entirely
// by installing a discard logger.
func (c *Context) SetLogger(logger *logrus.Entry) {
	if logger == nil {
		discard := logrus.New()
		discard.SetOutput(discardWriter{})
		logger = discard.WithField("component", "msgpack")
	}
	c.Logger = logger
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }
