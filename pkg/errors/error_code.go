package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeInvalidOrderRequest  ErrorCode = 102
	ErrCodeInvalidSymbol        ErrorCode = 103

	// Data/Resource errors (200-299)
	ErrCodeDataNotFound          ErrorCode = 200
	ErrCodeDataSourceUnavailable ErrorCode = 201
	ErrCodeQueryFailed           ErrorCode = 202
	ErrCodeChainUnavailable      ErrorCode = 203

	// Admission/Trading errors (500-599)
	ErrCodeNoPriceAvailable   ErrorCode = 500
	ErrCodeInsufficientMargin ErrorCode = 501
	ErrCodeRiskHalted         ErrorCode = 502
	ErrCodeVelocityExceeded   ErrorCode = 503
	ErrCodeOrderUnsupported   ErrorCode = 504
	ErrCodePositionNotFound   ErrorCode = 505

	// Backtest errors (600-699)
	ErrCodeBacktestConfigError  ErrorCode = 600
	ErrCodeBacktestNoStrategy   ErrorCode = 601
	ErrCodeBacktestNoDatasource ErrorCode = 602
	ErrCodeBacktestEmptyData    ErrorCode = 603
	ErrCodeBacktestRunFailed    ErrorCode = 604

	// Strategy runtime errors (700-799)
	ErrCodeStrategyConfigError  ErrorCode = 700
	ErrCodeStrategyRuntimeError ErrorCode = 701
)
