package errs

import (
	"net/http"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/gimaevra94/serviceflow-console/consts"
)

// OperationFailed is the only failure the API client reports. Message is what
// the user sees; the client never branches on it.
type OperationFailed struct {
	Message string
}

func (e *OperationFailed) Error() string {
	return e.Message
}

func Failed(msg string) error {
	return &OperationFailed{Message: msg}
}

// Message extracts the user-facing text of err.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var op *OperationFailed
	if errors.As(err, &op) {
		return op.Message
	}
	return err.Error()
}

func RenderError(w http.ResponseWriter, templateName string, err error) {
	logrus.WithField("template", templateName).Errorf("%+v", errors.WithStack(err))
	http.Error(w, consts.InternalError, http.StatusInternalServerError)
}
