package errs

import "github.com/fixkme/gotimer/util/errs"

const (
	ErrCode_OK               = 0
	ErrCode_Unknown          = errs.ErrCode_Unknown
	ErrCode_Range            = 2
	ErrCode_InvalidPrecision = 3
	ErrCode_InvalidBackend   = 4
	ErrCode_Closed           = 5
	ErrCode_Full             = 6
	ErrCode_NotFound         = 7
	ErrCode_Decode           = 8
	ErrCode_InvalidConfig    = 9
	ErrCode_Busy             = 10
	ErrCode_Duplicate        = 11
)

var (
	Unknown          = errs.CreateCodeError(ErrCode_Unknown, "UNKNOWN")
	Range            = errs.CreateCodeError(ErrCode_Range, "TICK_RANGE")
	InvalidPrecision = errs.CreateCodeError(ErrCode_InvalidPrecision, "PRECISION_INVALID")
	InvalidBackend   = errs.CreateCodeError(ErrCode_InvalidBackend, "BACKEND_INVALID")
	Closed           = errs.CreateCodeError(ErrCode_Closed, "CLOSED")
	Full             = errs.CreateCodeError(ErrCode_Full, "FULL")
	NotFound         = errs.CreateCodeError(ErrCode_NotFound, "NOT_FOUND")
	Decode           = errs.CreateCodeError(ErrCode_Decode, "DECODE")
	InvalidConfig    = errs.CreateCodeError(ErrCode_InvalidConfig, "CONFIG_INVALID")
	Busy             = errs.CreateCodeError(ErrCode_Busy, "TIMER_RUNNING")
	Duplicate        = errs.CreateCodeError(ErrCode_Duplicate, "NAME_DUPLICATE")
)
