package submap

import (
	"context"

	"github.com/edaniels/golog"
	"go.opencensus.io/trace"

	"github.com/robomaps/cartobridge/ros"
)

// Querier is the mapping engine's synchronous texture query interface.
type Querier interface {
	SubmapTextures(ctx context.Context, id ID) (*ros.SubmapQueryResponse, error)
}

// FetchTextures performs one blocking texture query for the given submap
// and decodes every returned texture. A transport failure or an empty
// texture list yields (nil, nil): the engine may simply not be ready, and
// the scheduler's retry delay will bring us back. A decode failure is
// returned as an error and must be treated as fatal by the caller.
func FetchTextures(ctx context.Context, q Querier, id ID, logger golog.Logger) (*Textures, error) {
	ctx, span := trace.StartSpan(ctx, "submap::FetchTextures")
	defer span.End()

	resp, err := q.SubmapTextures(ctx, id)
	if err != nil {
		logger.Debugw("submap texture query failed; will retry", "submap", id.String(), "error", err)
		return nil, nil
	}
	if len(resp.Textures) == 0 {
		logger.Debugw("submap texture query returned no textures", "submap", id.String())
		return nil, nil
	}

	result := &Textures{Version: resp.SubmapVersion}
	for _, msg := range resp.Textures {
		texture, err := decodeTexture(resp.SubmapVersion, msg)
		if err != nil {
			return nil, err
		}
		result.Textures = append(result.Textures, texture)
	}
	return result, nil
}
