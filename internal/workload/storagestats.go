package workload

import (
	"context"
	"regexp"
	"strconv"

	"github.com/wbeardall/schedtools-go/internal/jobmodel"
)

// storageLinePattern matches a login-banner quota line of the rough shape:
//
//	Home     :   Data:   12.3GB of   100GB (12%)   Files:   1234 of  100000 (1%)
//
// Partition and data/files tuples are captured; anything that doesn't match
// this exact shape is silently skipped, per §9's "fail soft" decision.
var storageLinePattern = regexp.MustCompile(
	`(?i)^\s*(Home|Ephemeral)\s*:\s*Data:\s*([\d.]+[a-zA-Z]*)\s+of\s+([\d.]+[a-zA-Z]*)\s*\((\d+)%\)\s*Files:\s*(\d+)\s+of\s+(\d+)\s*\((\d+)%\)`)

// GetStorageStats parses the channel's captured login banner for up to two
// partitions (Home, Ephemeral). The source indexes login_message[-4:]
// positionally, which breaks whenever the MOTD changes shape; this
// implementation instead scans every captured line for the quota pattern,
// which is more tolerant of surrounding banner noise while preserving the
// "only the last lines matter" intent. Any failure to find matching lines
// yields an empty, non-nil StorageStats rather than an error.
func (p *PBS) GetStorageStats(ctx context.Context) (StorageStats, error) {
	stats := StorageStats{}
	for _, line := range p.ch.LoginMessage() {
		m := storageLinePattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		partition := m[1]
		usedBytes, errU := jobmodel.ParseMemory(m[2])
		totalBytes, errT := jobmodel.ParseMemory(m[3])
		percentUsed, errP := strconv.ParseFloat(m[4], 64)
		usedFiles, errUF := strconv.ParseInt(m[5], 10, 64)
		totalFiles, errTF := strconv.ParseInt(m[6], 10, 64)
		if errU != nil || errT != nil || errP != nil || errUF != nil || errTF != nil {
			continue
		}
		stats[partition] = StorageQuota{
			Partition:   partition,
			UsedBytes:   usedBytes,
			TotalBytes:  totalBytes,
			PercentUsed: percentUsed,
			UsedFiles:   usedFiles,
			TotalFiles:  totalFiles,
		}
	}
	return stats, nil
}
