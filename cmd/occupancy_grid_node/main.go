// Package main runs the occupancy grid bridge node: it connects to the
// middleware, follows the mapping engine's submap list, and republishes
// the composed occupancy grid.
package main

import (
	"context"

	"github.com/edaniels/golog"
	"go.uber.org/multierr"
	goutils "go.viam.com/utils"

	"github.com/robomaps/cartobridge/node"
	"github.com/robomaps/cartobridge/rosbridge"
)

var logger = golog.NewDevelopmentLogger("occupancy_grid_node")

// Arguments for the command.
type Arguments struct {
	Address         string  `flag:"address,default=ws://localhost:9090,usage=middleware websocket address"`
	Resolution      float64 `flag:"resolution,default=0.05,usage=resolution of a grid cell in the published occupancy grid"`
	PublishPeriodMs int     `flag:"publish_period_ms,default=1000,usage=occupancy grid publishing period"`
}

func main() {
	goutils.ContextualMain(mainWithArgs, logger)
}

func mainWithArgs(ctx context.Context, args []string, logger golog.Logger) (err error) {
	var argsParsed Arguments
	if err := goutils.ParseFlags(args, &argsParsed); err != nil {
		return err
	}

	cfg := node.DefaultConfig()
	cfg.Resolution = argsParsed.Resolution
	cfg.PublishPeriodMs = argsParsed.PublishPeriodMs

	conn, err := rosbridge.Dial(ctx, argsParsed.Address, logger)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, conn.Close())
	}()

	bridgeNode, err := node.New(ctx, conn, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, bridgeNode.Close())
	}()

	<-ctx.Done()
	return nil
}
