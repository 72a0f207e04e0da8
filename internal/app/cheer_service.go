// internal/app/cheer_service.go
package app

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"office_cheer_bot/internal/domain/alert"
	"office_cheer_bot/internal/domain/delivery"
	"office_cheer_bot/internal/domain/greeting"
	"office_cheer_bot/internal/domain/mail"
	"office_cheer_bot/internal/domain/occasion"
	"office_cheer_bot/internal/domain/staff"
	idb "office_cheer_bot/internal/infra/database"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// CheerService drives the detect-then-deliver cycle: scan the roster for
// upcoming occasions, filter against the delivery ledger, and run the
// content/image/email pipeline for each surviving occasion.
type CheerService interface {
	// RunCycle performs one full pass over the roster. Roster and ledger
	// connectivity failures abort the cycle; per-occasion failures do not.
	RunCycle(ctx context.Context) error
	// Upcoming detects occasions within the window without delivering
	// anything or touching the ledger.
	Upcoming(ctx context.Context, windowDays int) ([]occasion.Occasion, map[int64]*staff.Record, error)
	// Process runs the delivery pipeline for the given occasions, in order.
	Process(ctx context.Context, roster []*staff.Record, occasions []occasion.Occasion) []DeliveryAttempt
}

// DeliveryAttempt is the ephemeral outcome of one pipeline run for one
// occasion.
type DeliveryAttempt struct {
	Occasion occasion.Occasion
	Content  *greeting.GeneratedText
	Image    *greeting.ImageHandle // nil when delivery proceeded without an image
	Outcome  delivery.Status
	Skipped  bool // already delivered or terminally failed before this run
	Err      error
}

// Options carries the pipeline policy knobs.
type Options struct {
	WindowDays         int
	MaxAttempts        int
	WorkerCount        int
	CallTimeout        time.Duration
	ImageRequired      bool
	PeerEmails         []string
	SubjectBirthday    string
	SubjectAnniversary string
	Milestones         occasion.MilestonePolicy
}

// CheerServiceImpl implements the CheerService interface.
type CheerServiceImpl struct {
	staffRepo staff.Repository
	ledger    delivery.Ledger
	content   greeting.ContentGenerator
	image     greeting.ImageGenerator // nil disables image generation
	transport mail.Transport
	alerts    alert.Sink
	logger    *logrus.Entry
	now       func() time.Time
	opts      Options
}

func NewCheerService(
	sr staff.Repository,
	ledger delivery.Ledger,
	content greeting.ContentGenerator,
	image greeting.ImageGenerator,
	transport mail.Transport,
	alerts alert.Sink,
	logger *logrus.Entry,
	now func() time.Time,
	opts Options,
) *CheerServiceImpl {
	if now == nil {
		now = time.Now
	}
	if opts.WorkerCount < 1 {
		opts.WorkerCount = 1
	}
	return &CheerServiceImpl{
		staffRepo: sr,
		ledger:    ledger,
		content:   content,
		image:     image,
		transport: transport,
		alerts:    alerts,
		logger:    logger,
		now:       now,
		opts:      opts,
	}
}

func (s *CheerServiceImpl) RunCycle(ctx context.Context) error {
	reference := s.now()
	s.logger.WithFields(logrus.Fields{
		"reference": reference.Format("2006-01-02"),
		"window":    s.opts.WindowDays,
	}).Info("Starting detection cycle")

	roster, err := s.staffRepo.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("failed to list active staff: %w", err)
	}

	occasions := occasion.Detect(roster, reference, s.opts.WindowDays, s.opts.Milestones)
	s.logger.WithFields(logrus.Fields{
		"staff":     len(roster),
		"occasions": len(occasions),
	}).Info("Detection complete")
	if len(occasions) == 0 {
		return nil
	}

	// A roster must never be processed against a ledger that cannot be
	// consulted. Probe it before any pipeline work starts.
	if _, err := s.ledger.Get(ctx, delivery.KeyFor(occasions[0])); err != nil && err != idb.ErrRecordNotFound {
		return fmt.Errorf("delivery ledger is unreachable: %w", err)
	}

	attempts := s.Process(ctx, roster, occasions)

	var delivered, failed, skipped int
	for _, a := range attempts {
		switch {
		case a.Skipped:
			skipped++
		case a.Outcome == delivery.StatusDelivered:
			delivered++
		default:
			failed++
		}
	}
	s.logger.WithFields(logrus.Fields{
		"delivered": delivered,
		"failed":    failed,
		"skipped":   skipped,
	}).Info("Detection cycle finished")
	return nil
}

func (s *CheerServiceImpl) Upcoming(ctx context.Context, windowDays int) ([]occasion.Occasion, map[int64]*staff.Record, error) {
	if windowDays < 0 {
		windowDays = s.opts.WindowDays
	}
	roster, err := s.staffRepo.ListActive(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list active staff: %w", err)
	}

	byID := make(map[int64]*staff.Record, len(roster))
	for _, rec := range roster {
		byID[rec.ID] = rec
	}
	return occasion.Detect(roster, s.now(), windowDays, s.opts.Milestones), byID, nil
}

// Process runs the pipeline for each occasion with bounded parallelism.
// Occasions belong to distinct ledger keys within one cycle, and cycles never
// overlap, so per-key work is naturally serialized. A failure for one
// occasion never aborts the batch.
func (s *CheerServiceImpl) Process(ctx context.Context, roster []*staff.Record, occasions []occasion.Occasion) []DeliveryAttempt {
	byID := make(map[int64]*staff.Record, len(roster))
	for _, rec := range roster {
		byID[rec.ID] = rec
	}

	attempts := make([]DeliveryAttempt, len(occasions))
	group := &errgroup.Group{}
	group.SetLimit(s.opts.WorkerCount)

	for i, occ := range occasions {
		i, occ := i, occ // per-iteration copies; module targets go >= 1.22 semantics but builds with 1.21
		group.Go(func() error {
			attempts[i] = s.processOne(ctx, byID[occ.StaffID], occ)
			return nil
		})
	}
	_ = group.Wait() // workers never return errors; failures live in the attempts

	return attempts
}

func (s *CheerServiceImpl) processOne(ctx context.Context, rec *staff.Record, occ occasion.Occasion) DeliveryAttempt {
	key := delivery.KeyFor(occ)
	attempt := DeliveryAttempt{Occasion: occ}
	log := s.logger.WithFields(logrus.Fields{"key": key.String(), "kind": occ.Kind})

	if rec == nil {
		// Roster snapshot and occasion list disagree; nothing sensible to do.
		attempt.Skipped = true
		log.Warn("Occasion references unknown staff record. Skipping.")
		return attempt
	}

	prevRetries := 0
	prev, err := s.ledger.Get(ctx, key)
	switch {
	case err == nil:
		if prev.Status == delivery.StatusDelivered {
			attempt.Skipped = true
			attempt.Outcome = delivery.StatusDelivered
			log.Debug("Occasion already delivered. Skipping.")
			return attempt
		}
		if prev.Terminal(s.opts.MaxAttempts) {
			attempt.Skipped = true
			attempt.Outcome = delivery.StatusFailed
			log.Debug("Occasion terminally failed. Skipping without consuming a retry.")
			return attempt
		}
		prevRetries = prev.RetryCount
	case err == idb.ErrRecordNotFound:
		// First time this occasion enters the pipeline: create the record at
		// Pending so an interrupted attempt is visible on the next scan.
		if _, err := s.ledger.RecordAttempt(ctx, key, delivery.StatusPending, 0); err != nil {
			attempt.Outcome = delivery.StatusFailed
			attempt.Err = err
			log.WithError(err).Error("Could not create pending delivery record")
			return attempt
		}
	default:
		attempt.Outcome = delivery.StatusFailed
		attempt.Err = err
		log.WithError(err).Error("Could not read delivery ledger for occasion")
		return attempt
	}

	req := greeting.Request{
		DisplayName:  rec.DisplayName(),
		Kind:         occ.Kind,
		ElapsedYears: occ.ElapsedYears,
		Milestone:    occ.Milestone,
		Interests:    rec.InterestList(),
	}

	content, err := s.generateContent(ctx, req)
	if err != nil {
		log.WithError(err).Error("Content generation failed")
		s.recordFailure(ctx, &attempt, key, prevRetries, err)
		return attempt
	}
	attempt.Content = content

	if s.image != nil {
		image, err := s.generateImage(ctx, req)
		if err != nil {
			if s.opts.ImageRequired {
				log.WithError(err).Error("Image generation failed and images are mandatory")
				s.recordFailure(ctx, &attempt, key, prevRetries, err)
				return attempt
			}
			log.WithError(err).Warn("Image generation failed. Delivering without an image.")
		} else {
			attempt.Image = image
		}
	}

	confirmation, err := s.deliver(ctx, rec, occ, attempt.Content, attempt.Image)
	if err != nil {
		log.WithError(err).Error("Delivery failed")
		s.recordFailure(ctx, &attempt, key, prevRetries, err)
		return attempt
	}

	if _, err := s.ledger.RecordAttempt(context.WithoutCancel(ctx), key, delivery.StatusDelivered, 0); err != nil {
		// The email went out but the ledger write failed: the next cycle may
		// deliver again. Surface loudly; never report Failed for a confirmed send.
		log.WithError(err).Error("Delivery confirmed but ledger write failed; duplicate possible on next cycle")
	}
	attempt.Outcome = delivery.StatusDelivered
	log.WithField("message_id", confirmation.MessageID).Info("Occasion delivered")
	return attempt
}

func (s *CheerServiceImpl) generateContent(ctx context.Context, req greeting.Request) (*greeting.GeneratedText, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.opts.CallTimeout)
	defer cancel()
	return s.content.Generate(callCtx, req)
}

func (s *CheerServiceImpl) generateImage(ctx context.Context, req greeting.Request) (*greeting.ImageHandle, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.opts.CallTimeout)
	defer cancel()
	return s.image.Generate(callCtx, req)
}

func (s *CheerServiceImpl) deliver(ctx context.Context, rec *staff.Record, occ occasion.Occasion, content *greeting.GeneratedText, image *greeting.ImageHandle) (*mail.Confirmation, error) {
	imageURL := ""
	if image != nil {
		imageURL = image.URL
	}
	msg := mail.Message{
		To:       rec.Email,
		CC:       s.opts.PeerEmails,
		Subject:  s.subjectFor(occ, rec.DisplayName()),
		HTMLBody: mail.ComposeHTML(content.Body, imageURL),
	}

	callCtx, cancel := context.WithTimeout(ctx, s.opts.CallTimeout)
	defer cancel()
	return s.transport.Send(callCtx, msg)
}

// recordFailure writes the failed attempt to the ledger and fires the alert
// sink on the transition into terminal failure. Ledger and alert writes use
// an uncancellable context so an interrupted attempt still lands as Failed.
func (s *CheerServiceImpl) recordFailure(ctx context.Context, attempt *DeliveryAttempt, key delivery.Key, prevRetries int, cause error) {
	attempt.Outcome = delivery.StatusFailed
	attempt.Err = cause

	writeCtx := context.WithoutCancel(ctx)
	rec, err := s.ledger.RecordAttempt(writeCtx, key, delivery.StatusFailed, 1)
	if err != nil {
		s.logger.WithError(err).WithField("key", key.String()).Error("Could not record failed attempt in ledger")
		return
	}

	if prevRetries < s.opts.MaxAttempts && rec.RetryCount >= s.opts.MaxAttempts {
		reason := fmt.Sprintf("%d attempts exhausted; last error: %v", rec.RetryCount, cause)
		if err := s.alerts.Notify(writeCtx, key, reason); err != nil {
			s.logger.WithError(err).WithField("key", key.String()).Error("Could not notify alert sink")
		}
	}
}

func (s *CheerServiceImpl) subjectFor(occ occasion.Occasion, name string) string {
	if occ.Kind == occasion.KindAnniversary {
		subject := strings.ReplaceAll(s.opts.SubjectAnniversary, "{name}", name)
		return strings.ReplaceAll(subject, "{years}", strconv.Itoa(occ.ElapsedYears))
	}
	return strings.ReplaceAll(s.opts.SubjectBirthday, "{name}", name)
}
