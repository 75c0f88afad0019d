package notify

import (
	"bytes"
	"context"
	"html/template"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/subtitly/teams-service/internal/repository"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

const invitationTemplate = `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Team invitation</title>
</head>
<body>
    <p>Hello {{.Username}},</p>
    <p>You have been invited to join the team <strong>{{.TeamName}}</strong> as a {{.Role}}.</p>
    <p>Sign in to your account to accept or decline the invitation.</p>
</body>
</html>`

var invitationTmpl = template.Must(template.New("invitation").Parse(invitationTemplate))

// EmailDeliverer sends the "team invitation sent" notice over SMTP.
type EmailDeliverer struct {
	invites repository.InviteRepository
	users   repository.UserRepository
	teams   repository.TeamRepository

	dialer *gomail.Dialer
	from   string
}

func NewEmailDeliverer(
	invites repository.InviteRepository,
	users repository.UserRepository,
	teams repository.TeamRepository,
	dialer *gomail.Dialer,
	from string,
) *EmailDeliverer {
	return &EmailDeliverer{
		invites: invites,
		users:   users,
		teams:   teams,
		dialer:  dialer,
		from:    from,
	}
}

func (d *EmailDeliverer) Deliver(ctx context.Context, inviteID uuid.UUID) error {
	invite, err := d.invites.Get(ctx, inviteID)
	if err != nil {
		return errors.Wrap(err, "failed to load invite")
	}

	user, err := d.users.Get(ctx, invite.Username)
	if err != nil {
		return errors.Wrap(err, "failed to load invited user")
	}
	if user.Email == "" {
		return errors.Errorf("user %s has no email address", user.Username)
	}

	team, err := d.teams.Get(ctx, invite.TeamSlug)
	if err != nil {
		return errors.Wrap(err, "failed to load team")
	}

	var body bytes.Buffer
	if err = invitationTmpl.Execute(&body, map[string]string{
		"Username": user.Username,
		"TeamName": team.Name,
		"Role":     invite.Role,
	}); err != nil {
		return errors.Wrap(err, "failed to render invitation email")
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", d.from)
	msg.SetHeader("To", user.Email)
	msg.SetHeader("Subject", "You have been invited to join "+team.Name)
	msg.SetBody("text/html", body.String())

	return errors.Wrap(d.dialer.DialAndSend(msg), "failed to send invitation email")
}

// LogDeliverer is used when no SMTP endpoint is configured; it only records
// that the notice would have been sent.
type LogDeliverer struct {
	invites repository.InviteRepository
	logger  *zap.Logger
}

func NewLogDeliverer(invites repository.InviteRepository, logger *zap.Logger) *LogDeliverer {
	return &LogDeliverer{
		invites: invites,
		logger:  logger,
	}
}

func (d *LogDeliverer) Deliver(ctx context.Context, inviteID uuid.UUID) error {
	invite, err := d.invites.Get(ctx, inviteID)
	if err != nil {
		return errors.Wrap(err, "failed to load invite")
	}

	d.logger.Info("invitation notice suppressed, smtp not configured",
		zap.String("invite_id", invite.ID.String()),
		zap.String("team_slug", invite.TeamSlug),
		zap.String("username", invite.Username))
	return nil
}
