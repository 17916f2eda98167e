package cli

import (
	"fmt"
	"io"
	"net/http"

	"github.com/grovetools/dqm/errors"
	"github.com/grovetools/dqm/tui/components"
	"github.com/grovetools/dqm/tui/theme"
)

// ErrorHandler provides user-friendly error messages
type ErrorHandler struct {
	Verbose bool
	Out     io.Writer
}

// NewErrorHandler creates a new error handler writing to out
func NewErrorHandler(out io.Writer, verbose bool) *ErrorHandler {
	return &ErrorHandler{
		Verbose: verbose,
		Out:     out,
	}
}

// Handle prints err as a banner followed by a hint, and returns it unchanged.
func (h *ErrorHandler) Handle(err error) error {
	if err == nil {
		return nil
	}

	t := theme.DefaultTheme
	title := theme.IconError + " Error"
	message := err.Error()
	var hint string

	dqmErr, _ := errors.As(err)

	switch errors.GetCode(err) {
	case errors.ErrCodeConfigNotFound:
		title = theme.IconError + " Configuration not found"
		hint = "Create a dqm.yml or pass --config."

	case errors.ErrCodeConfigInvalid, errors.ErrCodeConfigValidation:
		title = theme.IconError + " Invalid configuration"
		hint = "Run 'dqm config schema' to see the accepted keys."

	case errors.ErrCodeNoActiveSuite:
		title = theme.IconWarning + " No active suite"
		if op, ok := dqmErr.Detail("operation"); ok {
			message = fmt.Sprintf("Cannot %v without a saved suite.", op)
		}
		hint = "Select one with 'dqm suites use <id>' or pass --suite."

	case errors.ErrCodeRequestFailed:
		title = theme.IconError + " Request failed"
		status, _ := dqmErr.Detail("status")
		url, _ := dqmErr.Detail("url")
		method, _ := dqmErr.Detail("method")
		message = fmt.Sprintf("%v %v failed", method, url)
		if code, ok := status.(int); ok {
			message += fmt.Sprintf(" (%d %s)", code, http.StatusText(code))
		}
		if cause := dqmErr.Unwrap(); cause != nil {
			message += "\n" + cause.Error()
		}
		switch status {
		case http.StatusForbidden:
			hint = "The backend rejected the CSRF token. Check server.csrf_cookie and server.csrf_header."
		case http.StatusNotFound:
			hint = "The resource does not exist. Run 'dqm suites list' to see what does."
		case nil:
			hint = "Is the backend running at the configured server.base_url?"
		}

	case errors.ErrCodeInvalidInput, errors.ErrCodeNotFound:
		message = messageOf(err)
	}

	fmt.Fprintln(h.Out, components.RenderErrorBox(title, message))
	if hint != "" {
		fmt.Fprintln(h.Out, t.Muted.Render(hint))
	}

	if h.Verbose && dqmErr != nil {
		fmt.Fprintf(h.Out, "\nError details:\n%s\n", dqmErr.ToJSON())
	}
	return err
}

func messageOf(err error) string {
	if dqmErr, ok := errors.As(err); ok {
		return dqmErr.Message
	}
	return err.Error()
}
