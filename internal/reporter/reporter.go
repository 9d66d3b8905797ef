package reporter

// Reporter defines the interface for progress reporting.
type Reporter interface {
	Hardware(summary HardwareSummary)
	ComparisonStarted(info ComparisonInfo)
	ComparisonComplete(summary ComparisonSummary)
	ComparisonFailed(failure ComparisonFailure)
	TransformStarted(info TransformInfo)
	TransformProgress(progress ProgressSnapshot)
	TransformComplete(outcome TransformOutcome)
	DownloadComplete(summary DownloadSummary)
	Warning(message string)
	Error(err ReporterError)
	OperationComplete(message string)
	BatchStarted(info BatchStartInfo)
	FileProgress(context FileProgressContext)
	BatchComplete(summary BatchSummary)
	Verbose(message string)
}

// NullReporter is a no-op reporter that discards all updates.
type NullReporter struct{}

func (NullReporter) Hardware(HardwareSummary)             {}
func (NullReporter) ComparisonStarted(ComparisonInfo)     {}
func (NullReporter) ComparisonComplete(ComparisonSummary) {}
func (NullReporter) ComparisonFailed(ComparisonFailure)   {}
func (NullReporter) TransformStarted(TransformInfo)       {}
func (NullReporter) TransformProgress(ProgressSnapshot)   {}
func (NullReporter) TransformComplete(TransformOutcome)   {}
func (NullReporter) DownloadComplete(DownloadSummary)     {}
func (NullReporter) Warning(string)                       {}
func (NullReporter) Error(ReporterError)                  {}
func (NullReporter) OperationComplete(string)             {}
func (NullReporter) BatchStarted(BatchStartInfo)          {}
func (NullReporter) FileProgress(FileProgressContext)     {}
func (NullReporter) BatchComplete(BatchSummary)           {}
func (NullReporter) Verbose(string)                       {}
