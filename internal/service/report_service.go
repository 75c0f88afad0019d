package service

import (
	"context"

	"github.com/subtitly/teams-service/internal/model"
	"github.com/subtitly/teams-service/internal/repository"
	"github.com/subtitly/teams-service/pkg/logger"
	"go.uber.org/zap"
)

// ReportService serves the read-only admin listings that replace the old
// admin-site pages: invitations, tasks and billing records. It never
// mutates state; access control is the admin token at the route level.
type ReportService struct {
	invites repository.InviteRepository
	reports repository.ReportRepository
}

func NewReportService() *ReportService {
	return &ReportService{}
}

func (r *ReportService) ListInvites(ctx context.Context, filter *model.InviteFilter) ([]*model.Invite, *Error) {
	l := logger.FromContext(ctx)

	invitesRepo, err := r.invites.List(ctx, &repository.InviteFilter{
		TeamSlug: filter.TeamSlug,
		Approved: filter.Approved,
	})
	if err != nil {
		l.Error("failed to list invites", zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to list invites")
	}

	invites := make([]*model.Invite, 0, len(invitesRepo))
	for _, invite := range invitesRepo {
		invites = append(invites, inviteToModel(invite))
	}
	return invites, nil
}

func (r *ReportService) ListTasks(ctx context.Context, filter *model.TaskFilter) ([]*model.Task, *Error) {
	l := logger.FromContext(ctx)

	tasksRepo, err := r.reports.ListTasks(ctx, &repository.TaskFilter{
		TeamSlug: filter.TeamSlug,
		Type:     filter.Type,
		Deleted:  filter.Deleted,
		Complete: filter.Complete,
	})
	if err != nil {
		l.Error("failed to list tasks", zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to list tasks")
	}

	tasks := make([]*model.Task, 0, len(tasksRepo))
	for _, task := range tasksRepo {
		created := task.Created
		modified := task.Modified
		tasks = append(tasks, &model.Task{
			ID:        task.ID,
			TeamSlug:  task.TeamSlug,
			Type:      task.Type,
			Assignee:  task.Assignee,
			Language:  task.Language,
			Completed: task.Completed,
			Deleted:   task.Deleted,
			Created:   &created,
			Modified:  &modified,
		})
	}
	return tasks, nil
}

func (r *ReportService) ListBillingRecords(ctx context.Context, filter *model.BillingRecordFilter) ([]*model.BillingRecord, *Error) {
	l := logger.FromContext(ctx)

	recordsRepo, err := r.reports.ListBillingRecords(ctx, &repository.BillingRecordFilter{
		TeamSlug:   filter.TeamSlug,
		Source:     filter.Source,
		IsOriginal: filter.IsOriginal,
	})
	if err != nil {
		l.Error("failed to list billing records", zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to list billing records")
	}

	records := make([]*model.BillingRecord, 0, len(recordsRepo))
	for _, record := range recordsRepo {
		created := record.Created
		records = append(records, &model.BillingRecord{
			ID:         record.ID,
			TeamSlug:   record.TeamSlug,
			Username:   record.Username,
			Video:      record.Video,
			Language:   record.Language,
			Minutes:    record.Minutes,
			IsOriginal: record.IsOriginal,
			Source:     record.Source,
			Created:    &created,
		})
	}
	return records, nil
}

func (r *ReportService) WithInviteRepo(repo repository.InviteRepository) *ReportService {
	r.invites = repo
	return r
}

func (r *ReportService) WithReportRepo(repo repository.ReportRepository) *ReportService {
	r.reports = repo
	return r
}
