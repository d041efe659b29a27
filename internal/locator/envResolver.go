package locator

import (
	"context"
	"fmt"

	"github.com/ds124wfegd/skysight/config"
)

type EnvResolver struct {
	Key string
}

func NewEnvResolver(key string) *EnvResolver {
	return &EnvResolver{Key: key}
}

func (r *EnvResolver) Resolve(_ context.Context) (Location, error) {
	host := config.GetEnv(r.Key, "")
	if host == "" {
		return Location{}, fmt.Errorf("%s is not set in the environment", r.Key)
	}
	return Location{Host: host}, nil
}
