// Copyright 2026 The OnSocial Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/onsocial/onsocial-core/lib/dispatch"
	"github.com/onsocial/onsocial-core/lib/state"
	"github.com/onsocial/onsocial-core/lib/store"
)

// maxEnvelopeBytes bounds a single request line. Social payloads are
// small; anything larger is a malformed or hostile feed.
const maxEnvelopeBytes = 4 << 20

// response is one result line on the output feed. Only the fields the
// request produced are present.
type response struct {
	Seq   uint64 `json:"seq"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`

	Writes      []string `json:"writes,omitempty"`
	ExternalOps []string `json:"external_ops,omitempty"`
	JoinOutcome string   `json:"join_outcome,omitempty"`

	ProposalID     string `json:"proposal_id,omitempty"`
	ProposalStatus string `json:"proposal_status,omitempty"`
	YesVotes       int    `json:"yes_votes,omitempty"`
	NoVotes        int    `json:"no_votes,omitempty"`
}

// serve applies envelopes from in, one JSON line each, until in is
// exhausted or ctx is cancelled. Every line produces exactly one
// response line on out, in order.
func serve(ctx context.Context, logger *slog.Logger, core *state.Core, snapshots *store.Store, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), maxEnvelopeBytes)
	encoder := json.NewEncoder(out)

	var seq uint64
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		seq++

		result, err := core.Execute(line)
		if err != nil {
			logger.Debug("request rejected", "seq", seq, "error", err)
			if err := encoder.Encode(response{Seq: seq, Error: err.Error()}); err != nil {
				return fmt.Errorf("writing response: %w", err)
			}
			continue
		}

		// Persist before acknowledging. A request whose snapshot
		// cannot be saved is reported as failed even though the
		// in-memory core advanced; the operator must restart from the
		// last good snapshot.
		snapshot, err := core.Snapshot()
		if err == nil {
			err = snapshots.Save(ctx, snapshot)
		}
		if err != nil {
			logger.Error("persisting snapshot", "seq", seq, "error", err)
			if err := encoder.Encode(response{Seq: seq, Error: fmt.Sprintf("persist: %v", err)}); err != nil {
				return fmt.Errorf("writing response: %w", err)
			}
			continue
		}

		if err := encoder.Encode(buildResponse(seq, result)); err != nil {
			return fmt.Errorf("writing response: %w", err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading request feed: %w", err)
	}
	return nil
}

func buildResponse(seq uint64, result *dispatch.Result) response {
	resp := response{Seq: seq, OK: true}

	for _, write := range result.Writes {
		resp.Writes = append(resp.Writes, write.Owner+":"+write.Path.String())
	}
	for _, op := range result.ExternalOps {
		resp.ExternalOps = append(resp.ExternalOps, op.Key)
	}
	resp.JoinOutcome = string(result.JoinOutcome)

	if result.Proposal != nil {
		resp.ProposalID = result.Proposal.ID
		resp.ProposalStatus = string(result.Proposal.Status)
	}
	if result.Tally != nil {
		resp.YesVotes = result.Tally.YesVotes
		resp.NoVotes = result.Tally.NoVotes
	}
	return resp
}
