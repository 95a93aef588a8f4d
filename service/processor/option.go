package processor

// Option configures the processor service
type Option func(*Service)

// WithConfig sets the configuration for the service
func WithConfig(config Config) Option {
	return func(s *Service) {
		s.config = config
	}
}

// WithMaxSteps bounds the number of activities entered by a single call
func WithMaxSteps(steps int) Option {
	return func(s *Service) {
		s.config.MaxSteps = steps
	}
}
