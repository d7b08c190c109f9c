package report

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/luinbytes/car-images/fetch"
	"github.com/luinbytes/car-images/storage"
)

// FormatError provides user-friendly error messages for common failures
func FormatError(subject string, err error) string {
	errStr := err.Error()

	var statusErr *fetch.StatusError
	var netErr net.Error

	switch {
	case errors.As(err, &statusErr):
		return fmt.Sprintf("%s: %s", subject, statusErr.Status)
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		return fmt.Sprintf("%s: Request timed out. The server may be slow or unreachable.", subject)
	case errors.Is(err, storage.ErrExist):
		return fmt.Sprintf("%s: File appeared before it could be written. Left untouched.", subject)
	case errors.Is(err, os.ErrPermission):
		return fmt.Sprintf("%s: Permission denied. Check ownership of the output folder.", subject)
	case strings.Contains(errStr, "no space left on device"):
		return fmt.Sprintf("%s: Disk full. Free some space and run again.", subject)
	case strings.Contains(errStr, "no such host"):
		return fmt.Sprintf("%s: Host not found. Check the URL or your connection.", subject)
	case strings.Contains(errStr, "connection refused"):
		return fmt.Sprintf("%s: Connection refused by the server.", subject)
	case strings.Contains(errStr, "input/output error") || strings.Contains(errStr, "I/O error"):
		return fmt.Sprintf("%s: I/O error. The disk may be failing.", subject)
	default:
		return fmt.Sprintf("%s: %v", subject, err)
	}
}
