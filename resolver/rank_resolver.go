// Package resolver finds, for points a rank cannot place in its own part of
// a distributed mesh, the rank whose elements contain them.
package resolver

import (
	"context"
	"errors"
	"fmt"

	"github.com/notargets/DGLocator/comm"
	"github.com/notargets/DGLocator/locator"
	"github.com/notargets/DGLocator/utils"
)

// Unowned marks a point no rank claims
const Unowned = -1

// RankResolver runs the collective ownership protocol for one rank
type RankResolver struct {
	loc  *locator.Locator
	comm comm.Communicator
	log  utils.Logger
}

func NewRankResolver(loc *locator.Locator, c comm.Communicator, log utils.Logger) *RankResolver {
	if log == nil {
		log = utils.NopLogger()
	}
	return &RankResolver{loc: loc, comm: c, log: log}
}

// ResolveRanks returns, for each of coords, the rank owning it or Unowned.
// Every rank of the world must call it, each with its own batch.
//
// Points found locally belong to this rank. The rest go through one
// broadcast and gather per rank acting as root, exactly Size() rounds; among
// the other ranks claiming a point the lowest rank id wins.
//
// Configuration and index errors are returned before any collective is
// issued. A rank with no elements joins every round and claims nothing.
// An error from a collective is a transport failure that leaves the
// world out of step, callers should tear it down.
func (rr *RankResolver) ResolveRanks(ctx context.Context, coords [][]float64) ([]int, error) {
	if rr.loc == nil || rr.comm == nil || rr.loc.Provider() == nil {
		return nil, locator.ErrNotConfigured
	}
	me, size := rr.comm.Rank(), rr.comm.Size()
	dim := rr.loc.Dimension()
	ctx = utils.WithDefaultArgs(ctx, "rank", me)

	// A rank without elements still takes part in every round so its peers
	// do not block, it just never claims a point
	empty := false
	if err := rr.loc.EnsureBuilt(); err != nil {
		if !errors.Is(err, locator.ErrEmptyGeometry) {
			return nil, fmt.Errorf("building index: %w", err)
		}
		empty = true
		rr.log.WarnCtx(ctx, "no local elements, resolving remotely only")
	}

	ranks := make([]int, len(coords))
	var missing []int
	for i, c := range coords {
		found := false
		if empty {
			if len(c) < dim {
				return nil, fmt.Errorf("point %d: %w: %d component point in a %dD mesh",
					i, locator.ErrDimensionMismatch, len(c), dim)
			}
		} else {
			var err error
			if _, found, err = rr.loc.Locate(c); err != nil {
				return nil, fmt.Errorf("point %d: %w", i, err)
			}
		}
		if found {
			ranks[i] = me
			continue
		}
		ranks[i] = Unowned
		missing = append(missing, i)
	}
	ResolutionCount.WithLabelValues("local").Add(float64(len(coords) - len(missing)))

	send := make([][]float64, len(missing))
	for n, i := range missing {
		send[n] = coords[i][:dim]
	}
	flat, err := utils.FlattenCoordinates(send, dim)
	if err != nil {
		return nil, err
	}

	for root := 0; root < size; root++ {
		var payload []float64
		if root == me {
			payload = flat
		}
		recv, err := rr.comm.Broadcast(ctx, payload, root)
		if err != nil {
			return nil, fmt.Errorf("broadcast from root %d: %w", root, err)
		}

		var claims []int
		if root != me {
			if claims, err = rr.claim(recv, dim, empty); err != nil {
				return nil, fmt.Errorf("points from root %d: %w", root, err)
			}
		}

		all, err := rr.comm.Gather(ctx, claims, root)
		if err != nil {
			return nil, fmt.Errorf("gather to root %d: %w", root, err)
		}
		RoundCount.Inc()

		if root != me {
			continue
		}
		for p, reported := range all {
			if p == me {
				continue
			}
			if len(reported) != len(missing) {
				return nil, fmt.Errorf("%w: rank %d answered %d of %d points",
					comm.ErrMismatch, p, len(reported), len(missing))
			}
			for n, owner := range reported {
				i := missing[n]
				if owner != Unowned && (ranks[i] == Unowned || owner < ranks[i]) {
					ranks[i] = owner
				}
			}
		}
	}

	unowned := 0
	for _, i := range missing {
		if ranks[i] == Unowned {
			unowned++
		}
	}
	ResolutionCount.WithLabelValues("remote").Add(float64(len(missing) - unowned))
	ResolutionCount.WithLabelValues("unowned").Add(float64(unowned))
	rr.log.DebugCtx(ctx, "ranks resolved", "points", len(coords),
		"local", len(coords)-len(missing), "remote", len(missing)-unowned, "unowned", unowned)

	return ranks, nil
}

// claim locates the points broadcast by another rank in the local mesh
func (rr *RankResolver) claim(flat []float64, dim int, empty bool) ([]int, error) {
	pts, err := utils.UnflattenCoordinates(flat, dim)
	if err != nil {
		return nil, err
	}
	me := rr.comm.Rank()
	claims := make([]int, len(pts))
	for n, p := range pts {
		if empty {
			claims[n] = Unowned
			continue
		}
		_, found, err := rr.loc.Locate(p)
		if err != nil {
			return nil, err
		}
		claims[n] = Unowned
		if found {
			claims[n] = me
		}
	}
	return claims, nil
}
