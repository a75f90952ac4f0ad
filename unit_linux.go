package hds

import (
	"github.com/viant/hds/service/unit"
	"github.com/viant/hds/service/unit/osproc"
	"go.uber.org/zap"
)

func newProcessUnits(logger *zap.Logger) (unit.Service, error) {
	return osproc.New(osproc.WithLogger(logger)), nil
}
