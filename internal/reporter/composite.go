package reporter

// CompositeReporter fans out events to multiple reporters.
type CompositeReporter struct {
	reporters []Reporter
}

// NewCompositeReporter creates a composite reporter.
func NewCompositeReporter(reporters ...Reporter) *CompositeReporter {
	return &CompositeReporter{reporters: reporters}
}

func (c *CompositeReporter) Hardware(summary HardwareSummary) {
	for _, r := range c.reporters {
		r.Hardware(summary)
	}
}

func (c *CompositeReporter) ComparisonStarted(info ComparisonInfo) {
	for _, r := range c.reporters {
		r.ComparisonStarted(info)
	}
}

func (c *CompositeReporter) ComparisonComplete(summary ComparisonSummary) {
	for _, r := range c.reporters {
		r.ComparisonComplete(summary)
	}
}

func (c *CompositeReporter) ComparisonFailed(failure ComparisonFailure) {
	for _, r := range c.reporters {
		r.ComparisonFailed(failure)
	}
}

func (c *CompositeReporter) TransformStarted(info TransformInfo) {
	for _, r := range c.reporters {
		r.TransformStarted(info)
	}
}

func (c *CompositeReporter) TransformProgress(progress ProgressSnapshot) {
	for _, r := range c.reporters {
		r.TransformProgress(progress)
	}
}

func (c *CompositeReporter) TransformComplete(outcome TransformOutcome) {
	for _, r := range c.reporters {
		r.TransformComplete(outcome)
	}
}

func (c *CompositeReporter) DownloadComplete(summary DownloadSummary) {
	for _, r := range c.reporters {
		r.DownloadComplete(summary)
	}
}

func (c *CompositeReporter) Warning(message string) {
	for _, r := range c.reporters {
		r.Warning(message)
	}
}

func (c *CompositeReporter) Error(err ReporterError) {
	for _, r := range c.reporters {
		r.Error(err)
	}
}

func (c *CompositeReporter) OperationComplete(message string) {
	for _, r := range c.reporters {
		r.OperationComplete(message)
	}
}

func (c *CompositeReporter) BatchStarted(info BatchStartInfo) {
	for _, r := range c.reporters {
		r.BatchStarted(info)
	}
}

func (c *CompositeReporter) FileProgress(context FileProgressContext) {
	for _, r := range c.reporters {
		r.FileProgress(context)
	}
}

func (c *CompositeReporter) BatchComplete(summary BatchSummary) {
	for _, r := range c.reporters {
		r.BatchComplete(summary)
	}
}

func (c *CompositeReporter) Verbose(message string) {
	for _, r := range c.reporters {
		r.Verbose(message)
	}
}
