package compliance

import (
	"time"

	"github.com/uwsprogram/tracker/core"
)

// NewServiceMock returns a Service with an injectable clock.
func NewServiceMock(
	repo Repository,
	credits CreditSource,
	directory Directory,
	mailSvc core.EmailService,
	logger core.Logger,
	conf *core.Config,
	now func() time.Time,
) *Service {
	svc := NewService(repo, credits, directory, mailSvc, logger, conf)
	if now != nil {
		svc.now = now
	}
	return svc
}
