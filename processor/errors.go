package processor

// ConfigurationError reports a run that is missing required settings.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return e.Reason
}
