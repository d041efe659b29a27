// backend location resolution: one strategy per build, resolved once
package locator

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
)

type Location struct {
	Host string
}

type Resolver interface {
	Resolve(ctx context.Context) (Location, error)
}

// Resolution is the outcome of resolving the backend location.
type Resolution struct {
	Location Location
	Err      error
}

func (r Resolution) Resolved() bool {
	return r.Err == nil && r.Location.Host != ""
}

// Once memoizes the first resolution; later callers get the same value.
type Once struct {
	resolver Resolver

	once       sync.Once
	resolution Resolution
}

func NewOnce(resolver Resolver) *Once {
	return &Once{resolver: resolver}
}

// Resolution resolves on the first call. The result outlives the caller, so the
// caller's cancellation does not reach the resolver; its values do.
func (o *Once) Resolution(ctx context.Context) Resolution {
	o.once.Do(func() {
		loc, err := o.resolver.Resolve(context.WithoutCancel(ctx))
		if err != nil {
			logrus.WithError(err).Error("backend location is unavailable")
		} else {
			logrus.WithField("host", loc.Host).Info("backend location resolved")
		}
		o.resolution = Resolution{Location: loc, Err: err}
	})
	return o.resolution
}
