package channel

import "github.com/wbeardall/schedtools-go/internal/jobmodel"

// applyOnFail turns a write failure into the outcome UpdateJobState should
// return, per the on_fail contract: raise propagates it, warn logs (left to
// the caller, who holds the logger) and swallows it, ignore swallows it
// silently.
func applyOnFail(err error, onFail jobmodel.OnFail) (swallowed bool, out error) {
	if err == nil {
		return false, nil
	}
	switch onFail {
	case jobmodel.OnFailWarn, jobmodel.OnFailIgnore:
		return true, nil
	default: // jobmodel.OnFailRaise and unset
		return false, err
	}
}
