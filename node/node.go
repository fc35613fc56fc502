// Package node wires the submap cache, compositor, and display into the
// bridge process: it subscribes to the engine's submap list, schedules
// texture fetches, and periodically publishes the composed occupancy grid.
package node

import (
	"context"
	"encoding/json"
	"image"
	"sync"
	"time"

	"github.com/edaniels/golog"
	goutils "go.viam.com/utils"

	"github.com/robomaps/cartobridge/display"
	"github.com/robomaps/cartobridge/grid"
	"github.com/robomaps/cartobridge/ros"
	"github.com/robomaps/cartobridge/submap"
)

// Bus is the slice of middleware functionality the node needs. It is
// satisfied by rosbridge.Conn.
type Bus interface {
	Subscribe(topic, msgType string, cb func(msg json.RawMessage)) error
	Advertise(topic, msgType string) error
	Publish(topic string, msg interface{}) error
	CallService(ctx context.Context, service string, args, resp interface{}) error
}

// busQuerier adapts a Bus service call to the submap fetcher's interface.
type busQuerier struct {
	bus     Bus
	service string
}

func (q busQuerier) SubmapTextures(ctx context.Context, id submap.ID) (*ros.SubmapQueryResponse, error) {
	var resp ros.SubmapQueryResponse
	if err := q.bus.CallService(ctx, q.service, ros.SubmapQueryRequest{
		TrajectoryID: id.Trajectory,
		SubmapIndex:  id.Index,
	}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Node is the bridge process: one subscription path, one timer-driven
// publish path, and any number of in-flight fetch tasks, all sharing the
// submap cache.
type Node struct {
	cfg        Config
	logger     golog.Logger
	bus        Bus
	querier    submap.Querier
	cache      *submap.Cache
	compositor *grid.Compositor
	display    *display.Display

	listCh chan ros.SubmapList

	mu          sync.Mutex
	lastFrameID string
	lastStamp   time.Time
	overlay     image.Image

	cancelFunc              func()
	activeBackgroundWorkers sync.WaitGroup
}

// New builds a node, subscribes it to the submap list, and starts its
// background loops. Call Close to tear it down.
func New(ctx context.Context, bus Bus, cfg Config, logger golog.Logger) (*Node, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	fade := display.FadeConfig{
		StartDistance:   cfg.FadeStartDistance,
		FadeDistance:    cfg.FadeDistance,
		UpdateThreshold: cfg.AlphaUpdateThreshold,
	}
	n := &Node{
		cfg:        cfg,
		logger:     logger,
		bus:        bus,
		querier:    busQuerier{bus: bus, service: cfg.SubmapQueryService},
		cache:      submap.NewCache(cfg.FetchRetryDelay(), logger),
		compositor: grid.NewCompositor(cfg.Resolution),
		display:    display.NewDisplay(fade, nil),
		listCh:     make(chan ros.SubmapList, 1),
	}

	if err := bus.Advertise(cfg.OccupancyGridTopic, "nav_msgs/OccupancyGrid"); err != nil {
		return nil, err
	}
	if err := bus.Subscribe(cfg.SubmapListTopic, "cartographer_ros_msgs/SubmapList", n.handleRawSubmapList); err != nil {
		return nil, err
	}

	cancelCtx, cancelFunc := context.WithCancel(context.Background())
	n.cancelFunc = cancelFunc

	n.activeBackgroundWorkers.Add(3)
	goutils.PanicCapturingGo(func() {
		defer n.activeBackgroundWorkers.Done()
		n.submapListLoop(cancelCtx)
	})
	goutils.PanicCapturingGo(func() {
		defer n.activeBackgroundWorkers.Done()
		n.publishLoop(cancelCtx)
	})
	goutils.PanicCapturingGo(func() {
		defer n.activeBackgroundWorkers.Done()
		n.overlayLoop(cancelCtx)
	})
	return n, nil
}

// handleRawSubmapList runs on the bus read pump. It decodes the list and
// hands it to the handler loop, keeping only the latest message when the
// handler is behind, so fetch latency never backs up the subscription.
func (n *Node) handleRawSubmapList(raw json.RawMessage) {
	var list ros.SubmapList
	if err := json.Unmarshal(raw, &list); err != nil {
		n.logger.Warnw("dropping undecodable submap list", "error", err)
		return
	}
	for {
		select {
		case n.listCh <- list:
			return
		default:
		}
		select {
		case <-n.listCh:
		default:
		}
	}
}

func (n *Node) submapListLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case list := <-n.listCh:
			n.handleSubmapList(ctx, list)
		}
	}
}

// handleSubmapList applies one metadata update: poses and versions are
// recorded in delivery order, unlisted submaps are pruned, and a fetch is
// started for every submap the scheduler considers due.
func (n *Node) handleSubmapList(ctx context.Context, list ros.SubmapList) {
	live := make(map[submap.ID]bool, len(list.Submap))
	for _, entry := range list.Submap {
		id := submap.ID{Trajectory: entry.TrajectoryID, Index: entry.SubmapIndex}
		live[id] = true
		n.cache.UpdateMetadata(id, ros.ToPose(entry.Pose), entry.SubmapVersion)
		n.cache.StartFetch(ctx, n.querier, id)
	}
	n.cache.Prune(live)
	n.display.ProcessSubmapList(list)

	n.mu.Lock()
	n.lastFrameID = list.Header.FrameID
	n.lastStamp = ros.ToTime(list.Header.Stamp)
	n.mu.Unlock()
}

func (n *Node) publishLoop(ctx context.Context) {
	for {
		if !goutils.SelectContextOrWait(ctx, n.cfg.PublishPeriod()) {
			return
		}
		n.drawAndPublish(ctx)
	}
}

// drawAndPublish recomposes the cached slices and publishes the result.
// Until a newer valid fetch lands, the cache is unchanged, so the output
// grid stays at its last good state.
func (n *Node) drawAndPublish(ctx context.Context) {
	n.mu.Lock()
	frameID := n.lastFrameID
	stamp := n.lastStamp
	n.mu.Unlock()
	if frameID == "" || n.cache.Len() == 0 {
		return
	}

	slices := n.cache.Snapshot()
	painting := n.compositor.Compose(ctx, slices)
	if painting == nil {
		return
	}
	occupancyGrid, err := grid.ToOccupancyGrid(painting, frameID, stamp)
	if err != nil {
		n.logger.Fatalw("composed grid failed integrity check", "error", err)
	}
	if err := n.bus.Publish(n.cfg.OccupancyGridTopic, occupancyGrid); err != nil {
		n.logger.Warnw("publishing occupancy grid", "error", err)
	}
}

// overlayLoop re-renders the inspection overlay whenever a fetch installs
// a new texture. Notifications coalesce, so a burst of installs costs one
// render.
func (n *Node) overlayLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-n.cache.Updated():
			overlay := display.RenderOverlay(n.cache.Snapshot(), n.display, display.OverlayConfig{
				Resolution: n.cfg.Resolution,
				MaxSize:    n.cfg.OverlayMaxSize,
				DrawLabels: true,
			})
			n.mu.Lock()
			n.overlay = overlay
			n.mu.Unlock()
		}
	}
}

// SetTrackingZ feeds the latest tracked height into the display's fade
// controller.
func (n *Node) SetTrackingZ(z float64) {
	n.display.SetTrackingZ(z)
}

// Display exposes the per-submap visibility controls.
func (n *Node) Display() *display.Display {
	return n.display
}

// Overlay returns the most recently rendered overlay image, or nil before
// the first compose.
func (n *Node) Overlay() image.Image {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.overlay
}

// Close stops the background loops and then waits for any in-flight fetch
// to fully complete, so nothing touches the bus or cache after it returns.
func (n *Node) Close() error {
	n.cancelFunc()
	n.activeBackgroundWorkers.Wait()
	return n.cache.Close()
}
