//go:build !linux

package hds

import (
	"fmt"

	"github.com/viant/hds/service/unit"
	"go.uber.org/zap"
)

func newProcessUnits(_ *zap.Logger) (unit.Service, error) {
	return nil, fmt.Errorf("%w: process executor requires linux", ErrInvalidConfig)
}
