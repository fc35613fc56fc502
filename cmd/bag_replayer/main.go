// Package main replays the submap list traffic recorded in a rosbag
// against a live middleware endpoint, so the bridge can be exercised with
// real session data without running the mapping engine.
package main

import (
	"context"
	"time"

	"github.com/edaniels/golog"
	"go.uber.org/multierr"
	goutils "go.viam.com/utils"

	"github.com/robomaps/cartobridge/ros"
	"github.com/robomaps/cartobridge/rosbridge"
)

var logger = golog.NewDevelopmentLogger("bag_replayer")

// Arguments for the command.
type Arguments struct {
	BagFile  string `flag:"0,required,usage=path to the recorded rosbag"`
	Address  string `flag:"address,default=ws://localhost:9090,usage=middleware websocket address"`
	Topic    string `flag:"topic,default=submap_list,usage=recorded submap list topic"`
	PeriodMs int    `flag:"period_ms,default=100,usage=delay between replayed messages"`
}

func main() {
	goutils.ContextualMain(mainWithArgs, logger)
}

func mainWithArgs(ctx context.Context, args []string, logger golog.Logger) (err error) {
	var argsParsed Arguments
	if err := goutils.ParseFlags(args, &argsParsed); err != nil {
		return err
	}

	bag, err := ros.ReadBag(argsParsed.BagFile)
	if err != nil {
		return err
	}
	lists, err := ros.SubmapListsFromBag(bag, argsParsed.Topic)
	if err != nil {
		return err
	}
	logger.Infow("replaying recorded submap lists",
		"bag", argsParsed.BagFile,
		"topic", argsParsed.Topic,
		"messages", len(lists),
	)

	conn, err := rosbridge.Dial(ctx, argsParsed.Address, logger)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, conn.Close())
	}()

	if err := conn.Advertise(argsParsed.Topic, "cartographer_ros_msgs/SubmapList"); err != nil {
		return err
	}

	period := time.Duration(argsParsed.PeriodMs) * time.Millisecond
	for _, list := range lists {
		if err := conn.Publish(argsParsed.Topic, list); err != nil {
			return err
		}
		if !goutils.SelectContextOrWait(ctx, period) {
			return ctx.Err()
		}
	}
	return nil
}
