// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package engine

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/jasondaming/bobail-solver/internal/enginedb"
	"github.com/jasondaming/bobail-solver/internal/metrics"
)

var queryTracer = otel.Tracer("bobail-solver.engine.query")

// BestMove pairs a move's description with the result of the child
// state it leads to, for presenting alongside a query's verdict.
type BestMove struct {
	Description string
	ChildResult enginedb.Result
}

// Result reports the solved value of packed from the perspective of
// its side to move. Only meaningful once the solve has reached
// PhaseComplete.
func (e *Engine) Result(ctx context.Context, packed uint64) (enginedb.Result, error) {
	ctx, span := queryTracer.Start(ctx, "Result")
	defer span.End()
	start := time.Now()

	canonical := e.adapter.Canonicalize(packed)
	id, ok, err := e.registry.Lookup(ctx, canonical)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		metrics.QueryDurationSeconds.WithLabelValues("result", "error").Observe(time.Since(start).Seconds())
		return enginedb.ResultUnknown, err
	}
	if !ok {
		metrics.QueryDurationSeconds.WithLabelValues("result", "not_found").Observe(time.Since(start).Seconds())
		return enginedb.ResultUnknown, fmt.Errorf("engine: state not found in solved graph")
	}
	info, err := getStateInfo(ctx, e.store, id)
	if err != nil {
		metrics.QueryDurationSeconds.WithLabelValues("result", "error").Observe(time.Since(start).Seconds())
		return enginedb.ResultUnknown, err
	}
	metrics.QueryDurationSeconds.WithLabelValues("result", "ok").Observe(time.Since(start).Seconds())
	span.SetAttributes(attribute.String("result", info.Result.String()))
	return info.Result, nil
}

// BestMove selects a move out of packed per the priority rules: a WIN
// position prefers any move into an opponent LOSS; a DRAW position
// prefers any move into a DRAW; a LOSS position prefers a DRAW over a
// forced loss; otherwise the first legal move is returned.
func (e *Engine) BestMove(ctx context.Context, packed uint64) (BestMove, bool, error) {
	ctx, span := queryTracer.Start(ctx, "BestMove")
	defer span.End()

	canonical := e.adapter.Canonicalize(packed)
	r, err := e.Result(ctx, canonical)
	if err != nil {
		return BestMove{}, false, err
	}

	moves := e.adapter.Moves(canonical)
	if len(moves) == 0 {
		return BestMove{}, false, nil
	}

	candidates := make([]BestMove, len(moves))
	for i, m := range moves {
		childResult, err := e.Result(ctx, m.ChildPacked)
		if err != nil {
			return BestMove{}, false, err
		}
		candidates[i] = BestMove{Description: m.Description, ChildResult: childResult}
	}

	var want enginedb.Result
	switch r {
	case enginedb.ResultWin:
		want = enginedb.ResultLoss
	case enginedb.ResultDraw:
		want = enginedb.ResultDraw
	case enginedb.ResultLoss:
		want = enginedb.ResultDraw
	default:
		return candidates[0], true, nil
	}

	for _, c := range candidates {
		if c.ChildResult == want {
			return c, true, nil
		}
	}
	// LOSS with no DRAW child: any move is equally forced.
	return candidates[0], true, nil
}

// StartingResult returns the solved value of the game's canonical
// starting position.
func (e *Engine) StartingResult(ctx context.Context) (enginedb.Result, error) {
	return e.Result(ctx, e.adapter.StartingPacked())
}
