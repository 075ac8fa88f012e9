package cmd

import (
	"time"

	"github.com/wbeardall/schedtools-go/internal/config"
)

func asDuration(d config.Duration) time.Duration {
	return time.Duration(d)
}
