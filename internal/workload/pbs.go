package workload

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/wbeardall/schedtools-go/internal/channel"
	"github.com/wbeardall/schedtools-go/internal/jobmodel"
)

// PBS is the primary, fully-implemented workload-manager adapter. The UCL
// dialect variant the source stubbed out is expressed here as an override of
// the exit-code fields below rather than a separate type, per the design
// note that dialect differences are configuration, not new types.
type PBS struct {
	ch     channel.Channel
	logger zerolog.Logger

	// qrerunAllowed flips permanently false the first time qrerun exits
	// 159 (not authorized), after which RerunJob always falls back to qsub.
	qrerunAllowed bool

	// Exit-code mapping, overridable per the design note that the exact
	// cluster mapping is not safe to hardcode universally.
	QueueFullExitCode          int
	RerunNotAuthorizedExitCode int
}

// NewPBS builds a PBS adapter over ch.
func NewPBS(ch channel.Channel, logger zerolog.Logger) *PBS {
	return &PBS{
		ch:                         ch,
		logger:                     logger,
		qrerunAllowed:              true,
		QueueFullExitCode:          38,
		RerunNotAuthorizedExitCode: 159,
	}
}

func (p *PBS) Name() string        { return "pbs" }
func (p *PBS) ListJobsCmd() string { return "qstat -fF json" }

// GetJobs fetches and parses the full live queue, re-running the command
// and re-parsing on a JSON parse failure, for at most maxJSONParseRetries
// attempts in all.
func (p *PBS) GetJobs(ctx context.Context) (*jobmodel.Queue, error) {
	return p.execAndParseQueue(ctx, p.ListJobsCmd(), "get jobs")
}

// QueryJobs fetches a narrowed set of jobs by scheduler id, with the same
// JSON-parse retry as GetJobs.
func (p *PBS) QueryJobs(ctx context.Context, ids []string) (*jobmodel.Queue, error) {
	if len(ids) == 0 {
		return jobmodel.NewQueue(), nil
	}
	cmd := fmt.Sprintf("qstat -fF json %s", strings.Join(ids, " "))
	return p.execAndParseQueue(ctx, cmd, "query jobs")
}

// execAndParseQueue runs cmd and parses its qstat JSON output. A parse
// failure re-runs cmd and re-parses, since interactive SSH shells
// occasionally hand back corrupted output on an otherwise healthy channel.
func (p *PBS) execAndParseQueue(ctx context.Context, cmd, op string) (*jobmodel.Queue, error) {
	var lastErr error
	for attempt := 0; attempt < retryAttempts(maxJSONParseRetries); attempt++ {
		res, err := p.ch.Execute(ctx, cmd)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if res.Exit != 0 {
			return nil, fmt.Errorf("%s: qstat exited %d: %s", op, res.Exit, res.Stderr)
		}
		q, err := p.parseQueue(res.Stdout)
		if err == nil {
			return q, nil
		}
		lastErr = err
		p.logger.Warn().Err(err).Int("attempt", attempt+1).Msg("qstat json parse failed, retrying")
	}
	return nil, fmt.Errorf("%s: %w", op, lastErr)
}

func (p *PBS) parseQueue(stdout string) (*jobmodel.Queue, error) {
	resp, err := parseQstatJSON([]byte(stdout))
	if err != nil {
		return nil, err
	}
	q := jobmodel.NewQueue()
	for schedulerID, raw := range resp.Jobs {
		q.Add(parseJob(schedulerID, raw))
	}
	return q, nil
}

// SubmitJob composes and runs qsub, wiring JOB_ID/EXPERIMENT_PATH per the
// submitter-owned environment variable contract.
func (p *PBS) SubmitJob(ctx context.Context, spec jobmodel.JobSpec) error {
	varList := fmt.Sprintf("JOB_ID=%s,EXPERIMENT_PATH=%s", spec.ID, spec.ExperimentPath)
	cmd := fmt.Sprintf("qsub -v %s", shellQuote(varList))
	if spec.Queue != "" {
		cmd += " -q " + shellQuote(spec.Queue)
	}
	if spec.Project != "" {
		cmd += " -P " + shellQuote(spec.Project)
	}
	if sel := selectStatement(spec.RequestedResources); sel != "" {
		cmd += " -l " + shellQuote(sel)
	}
	if spec.RequestedResources.Walltime > 0 {
		cmd += " -l " + shellQuote("walltime="+formatWalltime(spec.RequestedResources.Walltime))
	}
	cmd += " " + spec.JobscriptPath

	res, err := p.ch.Execute(ctx, cmd)
	if err != nil {
		return fmt.Errorf("submit job %q: %w", spec.ID, err)
	}
	if res.Exit == p.QueueFullExitCode {
		return NewQueueFullError("qsub", res.Exit, res.Stderr)
	}
	if res.Exit != 0 {
		return NewJobSubmissionError("qsub", res.Exit, res.Stderr)
	}
	return nil
}

// DeleteJob runs qdel against a scheduler id.
func (p *PBS) DeleteJob(ctx context.Context, idOrSchedulerID string) error {
	res, err := p.ch.Execute(ctx, fmt.Sprintf("qdel %s", idOrSchedulerID))
	if err != nil {
		return fmt.Errorf("delete job %q: %w", idOrSchedulerID, err)
	}
	if res.Exit != 0 {
		return &JobDeletionError{Op: "qdel", ExitCode: res.Exit, Stderr: res.Stderr}
	}
	return nil
}

var missingScriptPattern = regexp.MustCompile(`script file:: No such`)

// RerunJob attempts qrerun first, falling back to qsub on the cluster's
// "not authorized to rerun" exit code, per §4.2.
func (p *PBS) RerunJob(ctx context.Context, job jobmodel.Job) error {
	if p.qrerunAllowed {
		res, err := p.ch.Execute(ctx, fmt.Sprintf("qrerun %s", job.SchedulerID))
		if err != nil {
			return fmt.Errorf("rerun job %q: %w", job.ID, err)
		}
		switch {
		case res.Exit == 0:
			return nil
		case res.Exit == p.RerunNotAuthorizedExitCode:
			p.qrerunAllowed = false
			p.logger.Warn().Str("job_id", job.ID).Msg("qrerun not authorized, falling back to qsub for future reruns")
			// fall through to qsub below
		case res.Exit == p.QueueFullExitCode:
			return NewQueueFullError("qrerun", res.Exit, res.Stderr)
		case missingScriptPattern.MatchString(res.Stderr):
			return NewMissingJobScriptError("qrerun", res.Exit, res.Stderr)
		default:
			return NewJobSubmissionError("qrerun", res.Exit, res.Stderr)
		}
	}

	res, err := p.ch.Execute(ctx, fmt.Sprintf("qsub %s", job.JobscriptPath))
	if err != nil {
		return fmt.Errorf("rerun job %q via qsub: %w", job.ID, err)
	}
	switch {
	case res.Exit == 0:
		return nil
	case res.Exit == p.QueueFullExitCode:
		return NewQueueFullError("qsub", res.Exit, res.Stderr)
	case missingScriptPattern.MatchString(res.Stderr):
		return NewMissingJobScriptError("qsub", res.Exit, res.Stderr)
	default:
		return NewJobSubmissionError("qsub", res.Exit, res.Stderr)
	}
}

// ResubmitJob submits a fresh instance of job's spec and updates the
// original row's state accordingly.
func (p *PBS) ResubmitJob(ctx context.Context, job jobmodel.Job) error {
	err := p.SubmitJob(ctx, job.JobSpec)
	onFail := jobmodel.OnFailWarn
	newState := jobmodel.StateQueued
	if err != nil {
		newState = jobmodel.StateFailed
	}
	if uerr := p.ch.UpdateJobState(ctx, job.ID, newState, "", onFail); uerr != nil {
		p.logger.Warn().Err(uerr).Str("job_id", job.ID).Msg("failed to record resubmit outcome")
	}
	return err
}

// ElevateJob submits a duplicate of job into the target queue/project and
// deletes the original, but only from the queued state.
func (p *PBS) ElevateJob(ctx context.Context, job jobmodel.Job, queue, project string) error {
	if job.State != jobmodel.StateQueued {
		return fmt.Errorf("elevate job %q: job is not queued (state=%s)", job.ID, job.State)
	}
	elevated := job.JobSpec
	elevated.Queue = queue
	elevated.Project = project
	if err := p.SubmitJob(ctx, elevated); err != nil {
		return fmt.Errorf("elevate job %q: %w", job.ID, err)
	}
	if err := p.DeleteJob(ctx, job.SchedulerID); err != nil {
		return fmt.Errorf("elevate job %q: delete original: %w", job.ID, err)
	}
	return nil
}

var killedMemPattern = regexp.MustCompile(`PBS: job killed: mem`)
var killedWalltimePattern = regexp.MustCompile(`PBS: job killed: walltime`)

// WasKilled tails the job's error file and checks for PBS's kill markers.
func (p *PBS) WasKilled(ctx context.Context, job jobmodel.Job) (bool, error) {
	if job.ErrorPath == "" {
		return false, nil
	}
	res, err := p.ch.Execute(ctx, fmt.Sprintf("tail -c 4096 %s", job.ErrorPath))
	if err != nil {
		return false, fmt.Errorf("was killed %q: %w", job.ID, err)
	}
	if res.Exit != 0 {
		// Error file absent or unreadable: treat as "not observably killed"
		// rather than surfacing a fault, since this is a best-effort check.
		return false, nil
	}
	return killedMemPattern.MatchString(res.Stdout) || killedWalltimePattern.MatchString(res.Stdout), nil
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// selectStatement builds a PBS "-l select=" chunk resources, using its own
// SelectStatement verbatim if the caller already assembled one. An empty
// ResourceRequest yields an empty string, leaving resource selection to the
// jobscript itself.
func selectStatement(r jobmodel.ResourceRequest) string {
	if r.SelectStatement != "" {
		return r.SelectStatement
	}
	if r.NodeCount == 0 && r.NCPUs == 0 && r.MemBytes == 0 && r.NGPUs == 0 {
		return ""
	}
	nodes := r.NodeCount
	if nodes == 0 {
		nodes = 1
	}
	ncpus := r.NCPUs / nodes
	stmt := fmt.Sprintf("select=%d:ncpus=%d", nodes, ncpus)
	if r.MemBytes > 0 {
		stmt += fmt.Sprintf(":mem=%dgb", r.MemBytes/nodes/1_000_000_000)
	}
	if r.NGPUs > 0 {
		stmt += fmt.Sprintf(":ngpus=%d", r.NGPUs/nodes)
	}
	return stmt
}

// formatWalltime renders d as PBS's HH:MM:SS walltime format.
func formatWalltime(d time.Duration) string {
	total := int64(d.Seconds())
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
