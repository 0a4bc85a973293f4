package services

import (
	"sort"
	"time"

	"tasboard/models"
)

// StatusQuery carries everything a status-availability decision depends on.
// Now is explicit so the gate stays a pure function.
type StatusQuery struct {
	Current             models.SubmissionStatus
	Permissions         models.PermissionSet
	SubmitDate          time.Time
	Now                 time.Time
	IsAuthorOrSubmitter bool
	IsJudge             bool // the claiming judge of this submission
	IsPublisher         bool // the claiming publisher of this submission
}

func (q StatusQuery) hasPermission(p models.Permission) bool {
	return q.Permissions.Has(p)
}

// judgingWindowOpen reports whether the minimum judging time has elapsed.
func (q StatusQuery) judgingWindowOpen(minimumHours int) bool {
	return !q.Now.Before(q.SubmitDate.Add(time.Duration(minimumHours) * time.Hour))
}

// StatusSet is a set of submission statuses.
type StatusSet map[models.SubmissionStatus]struct{}

func (s StatusSet) add(statuses ...models.SubmissionStatus) {
	for _, st := range statuses {
		s[st] = struct{}{}
	}
}

func (s StatusSet) Contains(status models.SubmissionStatus) bool {
	_, ok := s[status]
	return ok
}

// Statuses returns the members in declaration order.
func (s StatusSet) Statuses() []models.SubmissionStatus {
	out := make([]models.SubmissionStatus, 0, len(s))
	for st := range s {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// statusGuard contributes the statuses one independent rule makes legal.
// The gate unions every guard's contribution; rules are cumulative, never
// first-match.
type statusGuard func(q StatusQuery, minimumJudgingHours int) []models.SubmissionStatus

// StatusGate computes the legal next statuses for a submission given the
// acting user's permission facts and the submission's timing.
type StatusGate struct {
	minimumJudgingHours int
	guards              []statusGuard
}

func NewStatusGate(minimumJudgingHours int) *StatusGate {
	return &StatusGate{
		minimumJudgingHours: minimumJudgingHours,
		guards: []statusGuard{
			guardCurrentStatus,
			guardOverride,
			guardJudgeClaim,
			guardJudgeVerdicts,
			guardPublisher,
			guardCancel,
			guardPlayground,
		},
	}
}

// AvailableStatuses returns the union of every applicable rule's statuses.
// Published is terminal: once there, the only legal value is Published, and
// it is never offered from anywhere else (publishing goes through the
// dedicated publish operation).
func (g *StatusGate) AvailableStatuses(q StatusQuery) StatusSet {
	set := make(StatusSet)
	if q.Current == models.StatusPublished {
		set.add(models.StatusPublished)
		return set
	}
	for _, guard := range g.guards {
		set.add(guard(q, g.minimumJudgingHours)...)
	}
	delete(set, models.StatusPublished)
	return set
}

// HoursRemainingForJudging returns how many whole hours of the judging
// window are left, forced to zero once the submission can no longer be
// judged.
func (g *StatusGate) HoursRemainingForJudging(q StatusQuery) int {
	if !q.Current.CanBeJudged() {
		return 0
	}
	elapsed := int(q.Now.Sub(q.SubmitDate).Hours())
	remaining := g.minimumJudgingHours - elapsed
	if remaining < 0 {
		return 0
	}
	return remaining
}

// guardCurrentStatus keeps the no-op transition legal for everyone.
func guardCurrentStatus(q StatusQuery, _ int) []models.SubmissionStatus {
	return []models.SubmissionStatus{q.Current}
}

// guardOverride lets an override-permission holder set any non-Published
// status directly.
func guardOverride(q StatusQuery, _ int) []models.SubmissionStatus {
	if !q.hasPermission(models.PermissionOverrideSubmissionStatus) {
		return nil
	}
	var out []models.SubmissionStatus
	for _, st := range models.AllStatuses() {
		if st != models.StatusPublished {
			out = append(out, st)
		}
	}
	return out
}

// guardJudgeClaim lets any judge-permitted actor who is not the author or
// submitter claim an open submission for judging.
func guardJudgeClaim(q StatusQuery, _ int) []models.SubmissionStatus {
	if !q.hasPermission(models.PermissionJudgeSubmissions) || q.IsAuthorOrSubmitter {
		return nil
	}
	return []models.SubmissionStatus{models.StatusJudgingUnderway}
}

// guardJudgeVerdicts offers the claiming judge the verdict and intra-judging
// moves, but only once the judging window is open.
func guardJudgeVerdicts(q StatusQuery, minimumJudgingHours int) []models.SubmissionStatus {
	if !q.IsJudge || !q.judgingWindowOpen(minimumJudgingHours) {
		return nil
	}
	switch q.Current {
	case models.StatusJudgingUnderway, models.StatusDelayed, models.StatusNeedsMoreInfo:
		return []models.SubmissionStatus{
			models.StatusNew,
			models.StatusDelayed,
			models.StatusNeedsMoreInfo,
			models.StatusJudgingUnderway,
			models.StatusAccepted,
			models.StatusRejected,
		}
	}
	return nil
}

// guardPublisher offers the publication handoff: a publish-permitted actor
// may move Accepted into PublicationUnderway, and the claiming publisher may
// retract PublicationUnderway back to Accepted.
func guardPublisher(q StatusQuery, _ int) []models.SubmissionStatus {
	if !q.hasPermission(models.PermissionPublishMovies) {
		return nil
	}
	switch {
	case q.Current == models.StatusAccepted:
		return []models.SubmissionStatus{models.StatusPublicationUnderway}
	case q.Current == models.StatusPublicationUnderway && q.IsPublisher:
		return []models.SubmissionStatus{models.StatusAccepted}
	}
	return nil
}

// guardCancel lets the author/submitter or a judge-permitted actor cancel
// from any open status.
func guardCancel(q StatusQuery, _ int) []models.SubmissionStatus {
	if !q.IsAuthorOrSubmitter && !q.hasPermission(models.PermissionJudgeSubmissions) {
		return nil
	}
	return []models.SubmissionStatus{models.StatusCancelled}
}

// guardPlayground offers the dormant sandbox status to judge-permitted
// actors after the judging window, from the in-judgment statuses only.
func guardPlayground(q StatusQuery, minimumJudgingHours int) []models.SubmissionStatus {
	if !q.hasPermission(models.PermissionJudgeSubmissions) || !q.judgingWindowOpen(minimumJudgingHours) {
		return nil
	}
	switch q.Current {
	case models.StatusJudgingUnderway, models.StatusDelayed, models.StatusNeedsMoreInfo:
		return []models.SubmissionStatus{models.StatusPlayground}
	}
	return nil
}
