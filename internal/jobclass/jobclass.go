// Package jobclass holds named resource-request presets, so CLI callers
// can say "give me an exp_gpu2 job" instead of spelling out nodes/cpus/mem
// every time.
package jobclass

import (
	"fmt"
	"time"

	"github.com/wbeardall/schedtools-go/internal/jobmodel"
)

// Class is a named resource-request preset.
type Class struct {
	Name          string
	Description   string
	Nodes         int
	CPUPerNode    int
	MemPerNodeGB  int
	Walltime      time.Duration
	GPUs          int
	GPUType       string
}

// NCPUs is the total requested CPU count across all nodes.
func (c Class) NCPUs() int { return c.Nodes * c.CPUPerNode }

// MemBytes is the total requested memory across all nodes, in bytes.
func (c Class) MemBytes() int64 { return int64(c.MemPerNodeGB) * int64(c.Nodes) * 1_000_000_000 }

// ResourceRequest builds a jobmodel.ResourceRequest from the class.
func (c Class) ResourceRequest() jobmodel.ResourceRequest {
	return jobmodel.ResourceRequest{
		MemBytes:  c.MemBytes(),
		NCPUs:     c.NCPUs(),
		NGPUs:     c.GPUs,
		NodeCount: c.Nodes,
		Walltime:  c.Walltime,
	}
}

// Registry is a lookup table of Classes by name.
type Registry struct {
	classes map[string]Class
}

// NewRegistry builds a Registry preloaded with the standard exp_* presets,
// mirroring job_classes.py's JobClasses defaults (the commented-out
// EXP_256_960_72 entry is intentionally omitted here too).
func NewRegistry() *Registry {
	r := &Registry{classes: make(map[string]Class)}
	for _, c := range defaultClasses {
		r.Register(c)
	}
	return r
}

// Register adds or replaces a class.
func (r *Registry) Register(c Class) {
	r.classes[c.Name] = c
}

// Get looks up a class by name.
func (r *Registry) Get(name string) (Class, error) {
	c, ok := r.classes[name]
	if !ok {
		return Class{}, fmt.Errorf("job class %q not found", name)
	}
	return c, nil
}

// Names returns every registered class name.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.classes))
	for n := range r.classes {
		names = append(names, n)
	}
	return names
}

var defaultClasses = []Class{
	{
		Name:         "exp_32_62_72",
		Description:  "32 CPUs, 62GB RAM, 72 hours walltime",
		Nodes:        1,
		CPUPerNode:   32,
		MemPerNodeGB: 62,
		Walltime:     72 * time.Hour,
	},
	{
		Name:         "exp_48_128_72",
		Description:  "48 CPUs, 126GB RAM, 72 hours walltime",
		Nodes:        1,
		CPUPerNode:   48,
		MemPerNodeGB: 126,
		Walltime:     72 * time.Hour,
	},
	{
		Name:         "exp_gpu1",
		Description:  "1 RTX6000 GPU, 4 CPUs, 24GB RAM, 72 hours walltime",
		Nodes:        1,
		CPUPerNode:   4,
		MemPerNodeGB: 24,
		Walltime:     72 * time.Hour,
		GPUs:         1,
		GPUType:      "RTX6000",
	},
	{
		Name:         "exp_gpu2",
		Description:  "2 RTX6000 GPUs, 8 CPUs, 48GB RAM, 72 hours walltime",
		Nodes:        1,
		CPUPerNode:   8,
		MemPerNodeGB: 48,
		Walltime:     72 * time.Hour,
		GPUs:         2,
		GPUType:      "RTX6000",
	},
	{
		Name:         "exp_gpu4",
		Description:  "4 RTX6000 GPUs, 16 CPUs, 96GB RAM, 72 hours walltime",
		Nodes:        1,
		CPUPerNode:   16,
		MemPerNodeGB: 96,
		Walltime:     72 * time.Hour,
		GPUs:         4,
		GPUType:      "RTX6000",
	},
	{
		Name:         "exp_gpu8",
		Description:  "8 RTX6000 GPUs, 32 CPUs, 192GB RAM, 72 hours walltime",
		Nodes:        1,
		CPUPerNode:   32,
		MemPerNodeGB: 192,
		Walltime:     72 * time.Hour,
		GPUs:         8,
		GPUType:      "RTX6000",
	},
}
