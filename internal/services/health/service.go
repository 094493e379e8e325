package health

// Service encapsulates health-related checks.
type Service struct {
	provider string
	model    string
}

// NewService constructs a new health service.
func NewService(provider, model string) *Service {
	return &Service{provider: provider, model: model}
}

// Status returns a simple health payload.
func (s *Service) Status() map[string]any {
	return map[string]any{
		"ok":       true,
		"provider": s.provider,
		"model":    s.model,
	}
}
