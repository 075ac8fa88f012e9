package workload

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/wbeardall/schedtools-go/internal/jobmodel"
)

// qstatResponse is the top-level shape of `qstat -fF json` output.
type qstatResponse struct {
	Jobs map[string]qstatJob `json:"Jobs"`
}

// qstatJob is one entry under "Jobs", keyed by scheduler id. PBS renders
// every resource field as a string, including numeric ones, so the
// resource maps are parsed as map[string]string.
type qstatJob struct {
	JobName         string            `json:"Job_Name"`
	JobState        string            `json:"job_state"`
	Queue           string            `json:"queue"`
	Project         string            `json:"project"`
	Server          string            `json:"server"`
	JobOwner        string            `json:"Job_Owner"`
	ResourceList    map[string]string `json:"Resource_List"`
	ResourcesUsed   map[string]string `json:"resources_used"`
	VariableList    string            `json:"Variable_List"`
	ErrorPath       string            `json:"Error_Path"`
	OutputPath      string            `json:"Output_Path"`
	Stime           string            `json:"stime"`
	Ctime           string            `json:"ctime"`
	Qtime           string            `json:"qtime"`
	SubmitArguments string            `json:"Submit_arguments"`
	Priority        string            `json:"Priority"`
	RunCount        int               `json:"run_count"`
}

// parseQstatJSON unmarshals the raw `qstat -fF json` payload.
func parseQstatJSON(data []byte) (*qstatResponse, error) {
	var resp qstatResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("parse qstat json: %w", err)
	}
	return &resp, nil
}

// parseVariableList splits PBS's comma-separated KEY=value Variable_List
// string and extracts the two identity variables the submitter attached.
func parseVariableList(raw string) (jobID, experimentPath string) {
	for _, pair := range strings.Split(raw, ",") {
		kv := strings.SplitN(pair, "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch kv[0] {
		case "JOB_ID":
			jobID = kv[1]
		case "EXPERIMENT_PATH":
			experimentPath = kv[1]
		}
	}
	return jobID, experimentPath
}

// splitHostPrefixedPath splits PBS's "hostname:/absolute/path" form used
// for Error_Path/Output_Path.
func splitHostPrefixedPath(raw string) string {
	if idx := strings.Index(raw, ":"); idx >= 0 && idx < len(raw)-1 {
		return raw[idx+1:]
	}
	return raw
}

func parseResourceRequest(rl map[string]string) jobmodel.ResourceRequest {
	req := jobmodel.ResourceRequest{}
	if v, ok := rl["mem"]; ok {
		if b, err := jobmodel.ParseMemory(v); err == nil {
			req.MemBytes = b
		}
	}
	req.NCPUs = atoiOr(rl["ncpus"], 0)
	req.NGPUs = atoiOr(rl["ngpus"], 0)
	req.NodeCount = atoiOr(rl["nodect"], 0)
	req.Place = rl["place"]
	req.SelectStatement = rl["select"]
	if v, ok := rl["priority_job"]; ok {
		if n, err := strconv.Atoi(v); err == nil {
			req.Priority = &n
		}
	}
	if v, ok := rl["walltime"]; ok {
		if d, err := jobmodel.ParseWalltime(v); err == nil {
			req.Walltime = d
		}
	}
	return req
}

func parseResourceUsage(ru map[string]string) *jobmodel.ResourceUsage {
	if len(ru) == 0 {
		return nil
	}
	usage := &jobmodel.ResourceUsage{}
	if v, ok := ru["cpupercent"]; ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			usage.CPUPercent = f
		}
	}
	if v := getOr(ru, "cput", "00:00:00"); v != "" {
		if d, err := jobmodel.ParseWalltime(v); err == nil {
			usage.CPUTime = d
		}
	}
	if v := getOr(ru, "mem", "0b"); v != "" {
		if b, err := jobmodel.ParseMemory(v); err == nil {
			usage.MemBytes = b
		}
	}
	if v := getOr(ru, "vmem", "0b"); v != "" {
		if b, err := jobmodel.ParseMemory(v); err == nil {
			usage.VMemBytes = b
		}
	}
	usage.NCPUs = atoiOr(ru["ncpus"], 0)
	usage.NGPUs = atoiOr(ru["ngpus"], 0)
	if v := getOr(ru, "walltime", "00:00:00"); v != "" {
		if d, err := jobmodel.ParseWalltime(v); err == nil {
			usage.Walltime = d
		}
	}
	return usage
}

func atoiOr(s string, fallback int) int {
	if s == "" {
		return fallback
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}

func getOr(m map[string]string, key, fallback string) string {
	if v, ok := m[key]; ok {
		return v
	}
	return fallback
}

// parseJob builds a Job from one qstat -fF json entry, per §4.2: identity
// and experiment path come from Variable_List, not from any PBS-native
// field.
func parseJob(schedulerID string, raw qstatJob) jobmodel.Job {
	jobID, experimentPath := parseVariableList(raw.VariableList)

	var stime *string
	if raw.Stime != "" {
		s := raw.Stime
		stime = &s
	}
	jobscriptPath := ""
	var submitArgs []string
	if raw.SubmitArguments != "" {
		submitArgs = strings.Fields(raw.SubmitArguments)
		if len(submitArgs) > 0 {
			jobscriptPath = submitArgs[len(submitArgs)-1]
		}
	}

	job := jobmodel.Job{
		JobSpec: jobmodel.JobSpec{
			ID:             jobID,
			Name:           raw.JobName,
			ExperimentPath: experimentPath,
			JobscriptPath:  jobscriptPath,
			Cluster:        clusterFromServer(raw.Server),
			Queue:          raw.Queue,
			Project:        raw.Project,
			State:          jobmodel.ParsePBSState(raw.JobState),
		},
		SchedulerID:     schedulerID,
		Owner:           raw.JobOwner,
		ResourceRequest: parseResourceRequest(raw.ResourceList),
		ResourceUsage:   parseResourceUsage(raw.ResourcesUsed),
		Server:          raw.Server,
		ErrorPath:       splitHostPrefixedPath(raw.ErrorPath),
		OutputPath:      splitHostPrefixedPath(raw.OutputPath),
		Priority:        atoiOr(raw.Priority, 0),
		RunCount:        raw.RunCount,
		SubmitArguments: submitArgs,
		JobDetails:      rawJobDetails(raw),
	}

	if stime != nil {
		if t, err := jobmodel.ParseDateTime(*stime); err == nil {
			job.StartTime = &t
		}
	}
	if raw.Ctime != "" {
		if t, err := jobmodel.ParseDateTime(raw.Ctime); err == nil {
			job.CreationTime = &t
		}
	}
	if raw.Qtime != "" {
		if t, err := jobmodel.ParseDateTime(raw.Qtime); err == nil {
			job.QueueTime = &t
		}
	}

	return job
}

func rawJobDetails(raw qstatJob) map[string]any {
	b, err := json.Marshal(raw)
	if err != nil {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil
	}
	return m
}

// clusterFromServer maps a PBS server hostname to a cluster tag. The source
// hardcodes a couple of known server names; unrecognized ones map to
// unknown rather than erroring, since server naming is purely advisory.
func clusterFromServer(server string) jobmodel.Cluster {
	switch server {
	case "pbs-7":
		return jobmodel.Cluster("cx3-phase2")
	case "pbs1.rcs.ic.ac.uk":
		return jobmodel.Cluster("cx3")
	default:
		return jobmodel.ClusterUnknown
	}
}
