package notifications

import (
	"context"
	"errors"
	"fmt"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
	"github.com/helpdeskhq/helpdesk/internal/store"
	"github.com/helpdeskhq/helpdesk/pkg/notifications"
	"github.com/helpdeskhq/helpdesk/pkg/notifications/backends"
)

// MessageNoRecipients is the summary message when nobody is notified.
const MessageNoRecipients = "No recipients to notify"

// DefaultCompanyName is shown when the company row cannot be read.
const DefaultCompanyName = "Helpdesk"

// EmailRenderer renders the email of one recipient. *Renderer implements it.
type EmailRenderer interface {
	Render(in RenderInput) (*Rendered, error)
}

// Config holds the dependencies of a Notifier.
type Config struct {
	Store     store.Store
	Directory store.Directory
	Sender    backends.Sender
	Renderer  EmailRenderer

	// From is the From header of every email.
	From string

	// MaxConcurrency caps in-flight deliveries per event. Zero means no limit.
	MaxConcurrency int

	Logger hclog.Logger
}

// Notifier sends the emails of one ticket event.
type Notifier struct {
	store      store.Store
	directory  store.Directory
	sender     backends.Sender
	renderer   EmailRenderer
	resolver   *Resolver
	dispatcher *Dispatcher
	from       string
	logger     hclog.Logger
}

// New returns a Notifier built from cfg.
func New(cfg Config) (*Notifier, error) {
	var result *multierror.Error
	if cfg.Store == nil {
		result = multierror.Append(result, errors.New("store is required"))
	}
	if cfg.Directory == nil {
		result = multierror.Append(result, errors.New("directory is required"))
	}
	if cfg.Sender == nil {
		result = multierror.Append(result, errors.New("sender is required"))
	}
	if cfg.Renderer == nil {
		result = multierror.Append(result, errors.New("renderer is required"))
	}
	if cfg.From == "" {
		result = multierror.Append(result, errors.New("from address is required"))
	}
	if err := result.ErrorOrNil(); err != nil {
		return nil, fmt.Errorf("invalid notifier config: %w", err)
	}

	log := cfg.Logger
	if log == nil {
		log = hclog.NewNullLogger()
	}
	log = log.Named("notifier")

	return &Notifier{
		store:     cfg.Store,
		directory: cfg.Directory,
		sender:    cfg.Sender,
		renderer:  cfg.Renderer,
		resolver:  NewResolver(cfg.Store),
		dispatcher: &Dispatcher{
			MaxConcurrency: cfg.MaxConcurrency,
			Logger:         log,
		},
		from:   cfg.From,
		logger: log,
	}, nil
}

// Notify resolves, filters, renders and sends the emails of event. Only a
// failure to load the ticket (or its company's staff) is returned as an error;
// per-recipient failures are reported in the summary.
func (n *Notifier) Notify(ctx context.Context, event notifications.Event) (*notifications.DispatchSummary, error) {
	if err := event.Validate(); err != nil {
		return nil, err
	}
	log := n.logger.With("event_type", event.Type, "ticket_id", event.TicketID)

	snap, err := n.store.TicketSnapshot(ctx, event.TicketID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", notifications.ErrTicketNotFound, event.TicketID, err)
	}
	if snap.CompanyID != event.CompanyID {
		log.Warn("event company does not own the ticket",
			"event_company_id", event.CompanyID,
			"ticket_company_id", snap.CompanyID)
		return nil, fmt.Errorf("%w: %s", notifications.ErrTicketNotFound, event.TicketID)
	}

	n.resolveCommentVisibility(ctx, &event, log)

	candidates, err := n.resolver.Candidates(ctx, &event, snap)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		log.Debug("no candidates")
		return notifications.NewDispatchSummary(MessageNoRecipients, nil), nil
	}

	profiles, err := n.store.Profiles(ctx, withNameIDs(candidates, &event))
	if err != nil {
		return nil, fmt.Errorf("error loading profiles: %w", err)
	}
	prefs, err := n.store.Preferences(ctx, candidates)
	if err != nil {
		return nil, fmt.Errorf("error loading notification preferences: %w", err)
	}

	recipients := Filter(&event, snap, candidates, profiles, prefs)
	if len(recipients) == 0 {
		log.Debug("no recipients after filtering", "candidates", len(candidates))
		return notifications.NewDispatchSummary(MessageNoRecipients, nil), nil
	}

	company, err := n.store.CompanyName(ctx, snap.CompanyID)
	if err != nil || company == "" {
		log.Warn("error loading company name, using default", "error", err)
		company = DefaultCompanyName
	}

	names := make(map[string]string, len(profiles))
	for id, p := range profiles {
		names[id] = p.DisplayName()
	}

	results := n.dispatcher.Dispatch(ctx, recipients, func(ctx context.Context, r notifications.Recipient) notifications.DeliveryResult {
		return n.deliver(ctx, r, RenderInput{
			Recipient: r,
			Event:     &event,
			Ticket:    snap,
			Company:   company,
			Names:     names,
		})
	})

	summary := notifications.NewDispatchSummary("", results)
	summary.Message = fmt.Sprintf("Sent %d of %d notifications", summary.Sent, len(results))

	if summary.Failed > 0 {
		var failures *multierror.Error
		for _, r := range results {
			if !r.Success {
				failures = multierror.Append(failures, fmt.Errorf("%s (%s): %s", r.UserID, r.Stage, r.Error))
			}
		}
		log.Error("some notifications failed",
			"sent", summary.Sent,
			"failed", summary.Failed,
			"error", failures.ErrorOrNil())
	} else {
		log.Info("notifications sent", "sent", summary.Sent)
	}

	return summary, nil
}

// deliver looks up the email address, renders and sends one email.
func (n *Notifier) deliver(ctx context.Context, r notifications.Recipient, in RenderInput) notifications.DeliveryResult {
	res := notifications.DeliveryResult{UserID: r.UserID}
	fail := func(stage notifications.Stage, err error) notifications.DeliveryResult {
		n.logger.Warn("error delivering notification",
			"stage", stage,
			"user_id", r.UserID,
			"ticket_id", in.Ticket.ID,
			"error", err)
		res.Stage = stage
		res.Error = err.Error()
		return res
	}

	email, err := n.directory.Email(ctx, r.UserID)
	if err != nil {
		return fail(notifications.StageLookup, err)
	}
	r.Email = email
	res.Email = email
	in.Recipient = r

	msg, err := n.renderer.Render(in)
	if err != nil {
		return fail(notifications.StageRender, err)
	}

	response, err := n.sender.Send(ctx, &backends.Email{
		From:    n.from,
		To:      email,
		Subject: msg.Subject,
		HTML:    msg.HTML,
	})
	if err != nil {
		var backendErr *backends.BackendError
		if errors.As(err, &backendErr) {
			res.Retryable = backendErr.IsRetryable()
		}
		return fail(notifications.StageSend, err)
	}

	res.Success = true
	res.Response = response
	return res
}

// resolveCommentVisibility reads is_private from the comment row when the
// event only carries the comment ID. An unreadable comment is treated as
// private.
func (n *Notifier) resolveCommentVisibility(ctx context.Context, event *notifications.Event, log hclog.Logger) {
	if event.Type != notifications.EventTypeNewComment || event.CommentID == "" || event.IsPrivate {
		return
	}
	c, err := n.store.Comment(ctx, event.CommentID)
	if err != nil {
		log.Warn("error loading comment, treating it as private",
			"comment_id", event.CommentID, "error", err)
		event.IsPrivate = true
		return
	}
	event.IsPrivate = c.IsPrivate
	if event.CommentUser == "" {
		event.CommentUser = c.UserID
	}
}

// withNameIDs adds the users the templates name to the candidate IDs.
func withNameIDs(candidates []string, event *notifications.Event) []string {
	var c candidateSet
	c.add(candidates...)
	c.add(event.OldAssignedTo, event.NewAssignedTo, event.CommentUser)
	return c.ids
}
