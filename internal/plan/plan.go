// Package plan parses a batch registration file: a flat list of jobs to
// hand to "remote-jobs register" in one call instead of one invocation per
// job.
package plan

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/wbeardall/schedtools-go/internal/jobmodel"
)

// File is a parsed batch registration plan.
type File struct {
	Version int64 `yaml:"version"`
	Jobs    []Job `yaml:"jobs"`
}

// Defaults fills in values a Job entry omits.
type Defaults struct {
	Queue   string
	Project string
}

// Job is a single entry in the plan's jobs list.
type Job struct {
	Name           string `yaml:"name"`
	ExperimentPath string `yaml:"experiment_path"`
	JobscriptPath  string `yaml:"jobscript_path"`
	Queue          string `yaml:"queue"`
	Project        string `yaml:"project"`
}

// Decode parses the YAML data into a plan File.
func Decode(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode plan: %w", err)
	}
	return &f, nil
}

// Validate ensures the plan file contains everything register needs.
func (f *File) Validate() error {
	if f.Version != 1 {
		if f.Version == 0 {
			return fmt.Errorf("plan file missing required version: set version: 1")
		}
		return fmt.Errorf("unsupported plan version %d", f.Version)
	}
	if len(f.Jobs) == 0 {
		return fmt.Errorf("plan must contain at least one job entry")
	}
	for i, j := range f.Jobs {
		if err := j.validate(fmt.Sprintf("jobs[%d]", i)); err != nil {
			return err
		}
	}
	return nil
}

// ApplyDefaults fills in missing queue/project values.
func (f *File) ApplyDefaults(defaults Defaults) {
	for i := range f.Jobs {
		if f.Jobs[i].Queue == "" {
			f.Jobs[i].Queue = defaults.Queue
		}
		if f.Jobs[i].Project == "" {
			f.Jobs[i].Project = defaults.Project
		}
	}
}

// JobSpecs converts every entry into an unsubmitted jobmodel.JobSpec.
func (f *File) JobSpecs() []jobmodel.JobSpec {
	specs := make([]jobmodel.JobSpec, 0, len(f.Jobs))
	for _, j := range f.Jobs {
		specs = append(specs, jobmodel.NewUnsubmitted(jobmodel.FromUnsubmittedOptions{
			JobscriptPath:  j.JobscriptPath,
			ExperimentPath: j.ExperimentPath,
			Queue:          j.Queue,
			Project:        j.Project,
		}))
	}
	return specs
}

func (j *Job) validate(path string) error {
	if j.JobscriptPath == "" {
		return fmt.Errorf("%s missing jobscript_path", path)
	}
	if j.ExperimentPath == "" {
		return fmt.Errorf("%s missing experiment_path", path)
	}
	return nil
}
