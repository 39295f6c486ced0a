package telemetry

import (
	"fmt"
)

// API is an abstraction over logging/metrics so that tests can assert on
// what a component reported.
//
// note: fault injection point
type API interface {
	// ReportBroken reports a component that failed in a way that should be
	// looked at.
	//
	// The `id` names the component that broke, not the line that broke. If an
	// HTTP request made while paginating fails, the id is `paginate.postback`,
	// the transport details go in the params or in the wrapped error.
	//
	// Formatting rules:
	// 1) all lowercase
	// 2) use underscores for large components
	// 3) use dashes for methods part of a larger component
	//
	// ScopedAPI already carries the package name, so an id is usually just
	// `<struct or intf>.<method>`. See the `report_...` constants in each package.
	ReportBroken(id string, params ...any)

	// ReportWarning reports something that is not necessarily broken but that
	// may need investigating, like a results table with no usable header.
	ReportWarning(id string, params ...any)

	// ReportDebug reports debug information that is dropped in production.
	ReportDebug(msg string, params ...any)

	// ReportCount reports the current value of a counter, these are points
	// of data over time and should not be summed.
	ReportCount(id string, count int64)
}

// ScopedAPI prefixes every id with a namespace, like a sub-logger.
type ScopedAPI struct {
	namespace string
	inner     API
}

func NewScopedAPI(namespace string, inner API) ScopedAPI {
	return ScopedAPI{namespace: namespace, inner: inner}
}

func (s ScopedAPI) ReportBroken(id string, params ...any) {
	s.inner.ReportBroken(fmt.Sprintf("%s: %s", s.namespace, id), params...)
}

func (s ScopedAPI) ReportWarning(id string, params ...any) {
	s.inner.ReportWarning(fmt.Sprintf("%s: %s", s.namespace, id), params...)
}

func (s ScopedAPI) ReportDebug(msg string, params ...any) {
	s.inner.ReportDebug(fmt.Sprintf("%s: %s", s.namespace, msg), params...)
}

func (s ScopedAPI) ReportCount(id string, count int64) {
	s.inner.ReportCount(fmt.Sprintf("%s: %s", s.namespace, id), count)
}
