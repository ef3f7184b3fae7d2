package config

import (
	"fmt"
	"net/url"
)

// Validate performs range and format checks on the configuration.
// It returns the first violation found, wrapped around a sentinel error.
func (c *Config) Validate() error {
	if err := validateBaseURL(c.OllamaHost); err != nil {
		return fmt.Errorf("%w: %q: %v", ErrInvalidOllamaHost, c.OllamaHost, err)
	}

	if c.ModelName == "" {
		return fmt.Errorf("%w: must not be empty", ErrInvalidModelName)
	}

	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("%w: %.2f (must be within [0, 2])", ErrInvalidTemperature, c.Temperature)
	}

	if err := validateBaseURL(c.InventoryURL); err != nil {
		return fmt.Errorf("%w: %q: %v", ErrInvalidInventoryURL, c.InventoryURL, err)
	}

	if c.RateBurst < 0 {
		return fmt.Errorf("%w: %d (must be >= 0)", ErrInvalidRateBurst, c.RateBurst)
	}

	return nil
}

// validateBaseURL checks that a collaborator base URL is absolute http(s).
func validateBaseURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("host is required")
	}
	return nil
}
