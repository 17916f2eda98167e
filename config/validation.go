package config

import (
	"fmt"
	"net/url"

	"github.com/grovetools/dqm/errors"
)

// Validate checks if the configuration is valid. It expects defaults to be
// applied already.
func (c *Config) Validate() error {
	if err := validateBaseURL(c.Server.BaseURL); err != nil {
		return err
	}

	timeout, err := c.Server.TimeoutDuration()
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeConfigValidation, "server.timeout is not a valid duration").
			WithDetail("timeout", c.Server.Timeout)
	}
	if timeout <= 0 {
		return errors.New(errors.ErrCodeConfigValidation, "server.timeout must be positive").
			WithDetail("timeout", c.Server.Timeout)
	}

	if c.Server.CSRFCookie == "" {
		return errors.New(errors.ErrCodeConfigValidation, "server.csrf_cookie cannot be empty")
	}
	if c.Server.CSRFHeader == "" {
		return errors.New(errors.ErrCodeConfigValidation, "server.csrf_header cannot be empty")
	}

	if c.UI.FeedbackFormURL != "" {
		if _, err := url.ParseRequestURI(c.UI.FeedbackFormURL); err != nil {
			return errors.Wrap(err, errors.ErrCodeConfigValidation, "ui.feedback_form_url is not a valid URL").
				WithDetail("url", c.UI.FeedbackFormURL)
		}
	}

	return nil
}

func validateBaseURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeConfigValidation, "server.base_url is not a valid URL").
			WithDetail("url", raw)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New(errors.ErrCodeConfigValidation,
			fmt.Sprintf("server.base_url must use http or https, got %q", u.Scheme)).
			WithDetail("url", raw)
	}
	if u.Host == "" {
		return errors.New(errors.ErrCodeConfigValidation, "server.base_url must include a host").
			WithDetail("url", raw)
	}
	return nil
}
