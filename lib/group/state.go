// Copyright 2026 The OnSocial Authors
// SPDX-License-Identifier: Apache-2.0

package group

import (
	"sort"

	"github.com/onsocial/onsocial-core/lib/ref"
)

// MemberEntry pairs an account with its member record for
// persistence.
type MemberEntry struct {
	Account ref.AccountID `cbor:"1,keyasint"`
	Member  Member        `cbor:"2,keyasint"`
}

// State is one group's exportable snapshot.
type State struct {
	ID           ref.GroupID     `cbor:"1,keyasint"`
	Config       Config          `cbor:"2,keyasint"`
	Members      []MemberEntry   `cbor:"3,keyasint,omitempty"`
	Blacklist    []ref.AccountID `cbor:"4,keyasint,omitempty"`
	JoinRequests []JoinRequest   `cbor:"5,keyasint,omitempty"`
	ProposalSeq  uint64          `cbor:"6,keyasint,omitempty"`
}

// Export snapshots every group in deterministic order.
func (r *Registry) Export() []State {
	out := make([]State, 0, len(r.groups))
	for id, rec := range r.groups {
		state := State{
			ID:          id,
			Config:      rec.config,
			ProposalSeq: rec.proposalSeq,
		}
		for account, member := range rec.members {
			state.Members = append(state.Members, MemberEntry{Account: account, Member: member})
		}
		sort.Slice(state.Members, func(i, j int) bool {
			return state.Members[i].Account.String() < state.Members[j].Account.String()
		})
		for account := range rec.blacklist {
			state.Blacklist = append(state.Blacklist, account)
		}
		sort.Slice(state.Blacklist, func(i, j int) bool {
			return state.Blacklist[i].String() < state.Blacklist[j].String()
		})
		for _, request := range rec.joinRequests {
			state.JoinRequests = append(state.JoinRequests, request)
		}
		sort.Slice(state.JoinRequests, func(i, j int) bool {
			return state.JoinRequests[i].Requester.String() < state.JoinRequests[j].Requester.String()
		})
		out = append(out, state)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out
}

// Restore replaces the registry contents with exported snapshots.
func (r *Registry) Restore(states []State) {
	r.groups = make(map[ref.GroupID]*record, len(states))
	for _, state := range states {
		rec := &record{
			config:       state.Config,
			members:      make(map[ref.AccountID]Member, len(state.Members)),
			blacklist:    make(map[ref.AccountID]struct{}, len(state.Blacklist)),
			joinRequests: make(map[ref.AccountID]JoinRequest, len(state.JoinRequests)),
			proposalSeq:  state.ProposalSeq,
		}
		for _, entry := range state.Members {
			rec.members[entry.Account] = entry.Member
		}
		for _, account := range state.Blacklist {
			rec.blacklist[account] = struct{}{}
		}
		for _, request := range state.JoinRequests {
			rec.joinRequests[request.Requester] = request
		}
		r.groups[state.ID] = rec
	}
}
