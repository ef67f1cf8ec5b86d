package rpc

import "strings"

type ValidationServiceConfig struct {
	AvailableVenues []string
}

type ValidationService struct {
	config *ValidationServiceConfig
}

func NewValidationService(config *ValidationServiceConfig) *ValidationService {
	return &ValidationService{
		config: config,
	}
}

// IsSupportedVenue reports whether venue is allowed. An empty list allows all.
func (s *ValidationService) IsSupportedVenue(venue string) bool {
	if len(s.config.AvailableVenues) == 0 {
		return true
	}
	for _, v := range s.config.AvailableVenues {
		if strings.EqualFold(v, venue) {
			return true
		}
	}
	return false
}
