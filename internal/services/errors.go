package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrCatalogUnavailable = errors.New("catalog unavailable")
	ErrAssetFetch         = errors.New("asset fetch failure")
	ErrProbe              = errors.New("probe failure")
	ErrPublish            = errors.New("publish failure")
	ErrExternalTool       = errors.New("external tool error")
	ErrConfiguration      = errors.New("configuration error")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrExternalTool
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsFatal reports whether err must terminate the run. Asset and probe failures
// are recorded per item and never abort sibling work.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	switch {
	case errors.Is(err, ErrAssetFetch), errors.Is(err, ErrProbe):
		return false
	default:
		return true
	}
}

// RunStatus maps a run's terminal error to the status persisted in run history.
func RunStatus(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrCatalogUnavailable):
		return "catalog_unavailable"
	case errors.Is(err, ErrPublish):
		return "publish_failed"
	case errors.Is(err, ErrConfiguration):
		return "misconfigured"
	default:
		return "failed"
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
