// Copyright 2026 The OnSocial Authors
// SPDX-License-Identifier: Apache-2.0

package group

import (
	"github.com/onsocial/onsocial-core/lib/acl"
	"github.com/onsocial/onsocial-core/lib/ref"
)

// Member is one membership record. Level is the member's role: WRITE
// for an ordinary member, MODERATE for a moderator, MANAGE for an
// admin. The owner has no member record.
type Member struct {
	Level     acl.Level     `cbor:"1,keyasint"`
	GrantedBy ref.AccountID `cbor:"2,keyasint"`
	JoinedAt  int64         `cbor:"3,keyasint"`
}

// JoinStatus is the lifecycle state of a join request.
type JoinStatus string

const (
	JoinPending   JoinStatus = "pending"
	JoinApproved  JoinStatus = "approved"
	JoinRejected  JoinStatus = "rejected"
	JoinCancelled JoinStatus = "cancelled"
)

// Terminal reports whether the status accepts no further transitions.
// A new request from the same account may replace a terminal one.
func (s JoinStatus) Terminal() bool { return s != JoinPending }

// JoinRequest is a membership application to a private group.
type JoinRequest struct {
	GroupID   ref.GroupID   `cbor:"1,keyasint"`
	Requester ref.AccountID `cbor:"2,keyasint"`
	Status    JoinStatus    `cbor:"3,keyasint"`
	Reason    string        `cbor:"4,keyasint,omitempty"`
	CreatedAt int64         `cbor:"5,keyasint"`

	// DecidedBy and DecidedAt are set when a moderator approves or
	// rejects, or the requester cancels.
	DecidedBy ref.AccountID `cbor:"6,keyasint,omitempty"`
	DecidedAt int64         `cbor:"7,keyasint,omitempty"`
}

// Stats is the per-group summary exposed to queries.
type Stats struct {
	MemberCount         int   `json:"member_count"`
	BlacklistCount      int   `json:"blacklist_count"`
	PendingJoinRequests int   `json:"pending_join_requests"`
	IsPrivate           bool  `json:"is_private"`
	MemberDriven        bool  `json:"member_driven"`
	CreatedAt           int64 `json:"created_at"`
}
