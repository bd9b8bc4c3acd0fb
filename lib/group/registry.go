// Copyright 2026 The OnSocial Authors
// SPDX-License-Identifier: Apache-2.0

package group

import (
	"fmt"
	"sort"
	"time"

	"github.com/onsocial/onsocial-core/lib/acl"
	"github.com/onsocial/onsocial-core/lib/ref"
)

// record is one group's full in-memory state.
type record struct {
	config       Config
	members      map[ref.AccountID]Member
	blacklist    map[ref.AccountID]struct{}
	joinRequests map[ref.AccountID]JoinRequest

	// proposalSeq feeds {group}_{sequence} proposal ids. It lives here
	// so a group's governance history survives proposal pruning.
	proposalSeq uint64
}

// Registry holds every group. It shares the permission registry with
// the dispatcher so explicit path grants inside group namespaces and
// role-derived levels resolve through one surface. Not safe for
// concurrent use; the state core serializes all access.
type Registry struct {
	groups map[ref.GroupID]*record
	perms  *acl.Registry

	// votingDefaults seeds groups created without an explicit voting
	// config. Existing groups keep the config they were created with.
	votingDefaults VotingConfig
}

// NewRegistry returns an empty registry backed by perms for
// path-scoped grants.
func NewRegistry(perms *acl.Registry) *Registry {
	return &Registry{
		groups:         make(map[ref.GroupID]*record),
		perms:          perms,
		votingDefaults: DefaultVotingConfig(),
	}
}

// SetVotingDefaults replaces the voting config used for groups created
// without one.
func (r *Registry) SetVotingDefaults(cfg VotingConfig) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("voting defaults: %w", err)
	}
	r.votingDefaults = cfg
	return nil
}

// Root returns the group's namespace root path, groups/{id}.
func Root(id ref.GroupID) ref.Path {
	return ref.MustPath("groups/" + id.String())
}

// ConfigPath returns the group's config path, the resource that role
// levels and administrative checks resolve against.
func ConfigPath(id ref.GroupID) ref.Path {
	return ref.MustPath("groups/" + id.String() + "/config")
}

func (r *Registry) get(id ref.GroupID) (*record, error) {
	rec, ok := r.groups[id]
	if !ok {
		return nil, fmt.Errorf("group %q: %w", id, ErrGroupNotFound)
	}
	return rec, nil
}

// CreateGroup registers a new group owned by caller.
func (r *Registry) CreateGroup(caller ref.AccountID, id ref.GroupID, params CreateParams, now time.Time) error {
	if id.IsZero() {
		return ErrInvalidGroupID
	}
	if _, exists := r.groups[id]; exists {
		return fmt.Errorf("group %q: %w", id, ErrDuplicateGroupID)
	}

	private := false
	if params.IsPrivate != nil {
		private = *params.IsPrivate
	}
	if params.MemberDriven {
		if params.IsPrivate != nil && !*params.IsPrivate {
			return fmt.Errorf("group %q: %w", id, ErrMemberDrivenPublic)
		}
		private = true
	}

	voting := r.votingDefaults
	if params.Voting != nil {
		voting = *params.Voting
		if err := voting.Validate(); err != nil {
			return fmt.Errorf("group %q voting config: %w", id, err)
		}
	}

	r.groups[id] = &record{
		config: Config{
			Owner:        caller,
			IsPrivate:    private,
			MemberDriven: params.MemberDriven,
			Description:  params.Description,
			Voting:       voting,
			CreatedAt:    now.UnixMilli(),
		},
		members:      make(map[ref.AccountID]Member),
		blacklist:    make(map[ref.AccountID]struct{}),
		joinRequests: make(map[ref.AccountID]JoinRequest),
	}
	return nil
}

// JoinOutcome tells a join caller whether they became a member or
// filed a request that awaits moderation.
type JoinOutcome string

const (
	JoinedImmediately JoinOutcome = "joined"
	RequestFiled      JoinOutcome = "request_filed"
)

// JoinGroup admits caller to a public group, files a join request for
// a private one, and rejects member-driven groups outright: their
// membership changes only through member_invite or join_request
// proposals.
func (r *Registry) JoinGroup(caller ref.AccountID, id ref.GroupID, reason string, now time.Time) (JoinOutcome, error) {
	rec, err := r.get(id)
	if err != nil {
		return "", err
	}
	if rec.isMember(caller) {
		return "", fmt.Errorf("group %q: %s: %w", id, caller, ErrAlreadyMember)
	}
	if _, banned := rec.blacklist[caller]; banned {
		return "", fmt.Errorf("group %q: %s: %w", id, caller, ErrBlacklisted)
	}
	if rec.config.MemberDriven {
		return "", fmt.Errorf("group %q: join: %w", id, ErrGovernanceRequired)
	}

	if !rec.config.IsPrivate {
		rec.members[caller] = Member{Level: acl.LevelWrite, GrantedBy: caller, JoinedAt: now.UnixMilli()}
		return JoinedImmediately, nil
	}

	if existing, ok := rec.joinRequests[caller]; ok && !existing.Status.Terminal() {
		return "", fmt.Errorf("group %q: %s: %w", id, caller, ErrJoinRequestPending)
	}
	rec.joinRequests[caller] = JoinRequest{
		GroupID:   id,
		Requester: caller,
		Status:    JoinPending,
		Reason:    reason,
		CreatedAt: now.UnixMilli(),
	}
	return RequestFiled, nil
}

// LeaveGroup removes caller's membership. The owner must transfer
// ownership before leaving.
func (r *Registry) LeaveGroup(caller ref.AccountID, id ref.GroupID) error {
	rec, err := r.get(id)
	if err != nil {
		return err
	}
	if rec.config.Owner == caller {
		return fmt.Errorf("group %q: %w", id, ErrOwnerCannotLeave)
	}
	if _, ok := rec.members[caller]; !ok {
		return fmt.Errorf("group %q: %s: %w", id, caller, ErrNotMember)
	}
	delete(rec.members, caller)
	return nil
}

// AddMember admits an account at the given role level. Requires MANAGE
// on the group's config path. Member-driven groups admit only through
// proposals.
func (r *Registry) AddMember(caller ref.AccountID, id ref.GroupID, account ref.AccountID, level acl.Level, now time.Time) error {
	rec, err := r.get(id)
	if err != nil {
		return err
	}
	if rec.config.MemberDriven {
		return fmt.Errorf("group %q: add member: %w", id, ErrGovernanceRequired)
	}
	if !r.hasLevel(rec, id, caller, acl.LevelManage, now) {
		return fmt.Errorf("group %q: add member: %w", id, ErrInsufficientLevel)
	}
	if level < acl.LevelWrite || level > acl.LevelManage {
		return fmt.Errorf("group %q: role level %d out of range", id, level)
	}
	return rec.admit(id, account, level, caller, now)
}

// RemoveMember expels a member. Requires MANAGE; cannot target the
// owner. Member-driven groups expel only through proposals.
func (r *Registry) RemoveMember(caller ref.AccountID, id ref.GroupID, account ref.AccountID, now time.Time) error {
	rec, err := r.get(id)
	if err != nil {
		return err
	}
	if rec.config.MemberDriven {
		return fmt.Errorf("group %q: remove member: %w", id, ErrGovernanceRequired)
	}
	if !r.hasLevel(rec, id, caller, acl.LevelManage, now) {
		return fmt.Errorf("group %q: remove member: %w", id, ErrInsufficientLevel)
	}
	return rec.expel(id, account)
}

// Blacklist bans an account, removing any membership and rejecting any
// pending join request. Requires MANAGE; cannot target the owner.
// Member-driven groups ban only through proposals.
func (r *Registry) Blacklist(caller ref.AccountID, id ref.GroupID, account ref.AccountID, now time.Time) error {
	rec, err := r.get(id)
	if err != nil {
		return err
	}
	if rec.config.MemberDriven {
		return fmt.Errorf("group %q: blacklist: %w", id, ErrGovernanceRequired)
	}
	if !r.hasLevel(rec, id, caller, acl.LevelManage, now) {
		return fmt.Errorf("group %q: blacklist: %w", id, ErrInsufficientLevel)
	}
	return rec.ban(id, account, caller, now)
}

// Unblacklist lifts a ban. Requires MANAGE. Member-driven groups
// unban only through proposals.
func (r *Registry) Unblacklist(caller ref.AccountID, id ref.GroupID, account ref.AccountID, now time.Time) error {
	rec, err := r.get(id)
	if err != nil {
		return err
	}
	if rec.config.MemberDriven {
		return fmt.Errorf("group %q: unblacklist: %w", id, ErrGovernanceRequired)
	}
	if !r.hasLevel(rec, id, caller, acl.LevelManage, now) {
		return fmt.Errorf("group %q: unblacklist: %w", id, ErrInsufficientLevel)
	}
	return rec.unban(id, account)
}

// SetPrivacy toggles the group's privacy. Owner only; structurally
// impossible for member-driven groups.
func (r *Registry) SetPrivacy(caller ref.AccountID, id ref.GroupID, private bool) error {
	rec, err := r.get(id)
	if err != nil {
		return err
	}
	if rec.config.MemberDriven {
		return fmt.Errorf("group %q: set privacy: %w", id, ErrGovernanceRequired)
	}
	if rec.config.Owner != caller {
		return fmt.Errorf("group %q: set privacy: %w", id, ErrNotOwner)
	}
	rec.config.IsPrivate = private
	return nil
}

// TransferOwnership hands the group to a current member. Owner only;
// member-driven groups transfer only through proposals.
func (r *Registry) TransferOwnership(caller ref.AccountID, id ref.GroupID, newOwner ref.AccountID, now time.Time) error {
	rec, err := r.get(id)
	if err != nil {
		return err
	}
	if rec.config.MemberDriven {
		return fmt.Errorf("group %q: transfer ownership: %w", id, ErrGovernanceRequired)
	}
	if rec.config.Owner != caller {
		return fmt.Errorf("group %q: transfer ownership: %w", id, ErrNotOwner)
	}
	return rec.transfer(id, newOwner, now)
}

// ApproveJoinRequest admits a pending requester as an ordinary member.
// Requires MODERATE.
func (r *Registry) ApproveJoinRequest(caller ref.AccountID, id ref.GroupID, requester ref.AccountID, now time.Time) error {
	rec, err := r.get(id)
	if err != nil {
		return err
	}
	if !r.hasLevel(rec, id, caller, acl.LevelModerate, now) {
		return fmt.Errorf("group %q: approve join: %w", id, ErrInsufficientLevel)
	}
	request, err := rec.pendingRequest(id, requester)
	if err != nil {
		return err
	}
	if err := rec.admit(id, requester, acl.LevelWrite, caller, now); err != nil {
		return err
	}
	request.Status = JoinApproved
	request.DecidedBy = caller
	request.DecidedAt = now.UnixMilli()
	rec.joinRequests[requester] = request
	return nil
}

// RejectJoinRequest declines a pending requester. Requires MODERATE.
func (r *Registry) RejectJoinRequest(caller ref.AccountID, id ref.GroupID, requester ref.AccountID, now time.Time) error {
	rec, err := r.get(id)
	if err != nil {
		return err
	}
	if !r.hasLevel(rec, id, caller, acl.LevelModerate, now) {
		return fmt.Errorf("group %q: reject join: %w", id, ErrInsufficientLevel)
	}
	request, err := rec.pendingRequest(id, requester)
	if err != nil {
		return err
	}
	request.Status = JoinRejected
	request.DecidedBy = caller
	request.DecidedAt = now.UnixMilli()
	rec.joinRequests[requester] = request
	return nil
}

// CancelJoinRequest withdraws caller's own pending request.
func (r *Registry) CancelJoinRequest(caller ref.AccountID, id ref.GroupID, now time.Time) error {
	rec, err := r.get(id)
	if err != nil {
		return err
	}
	request, err := rec.pendingRequest(id, caller)
	if err != nil {
		return err
	}
	request.Status = JoinCancelled
	request.DecidedBy = caller
	request.DecidedAt = now.UnixMilli()
	rec.joinRequests[caller] = request
	return nil
}

// --- shared mutation helpers -------------------------------------------

func (rec *record) isMember(account ref.AccountID) bool {
	if rec.config.Owner == account {
		return true
	}
	_, ok := rec.members[account]
	return ok
}

func (rec *record) admit(id ref.GroupID, account ref.AccountID, level acl.Level, grantedBy ref.AccountID, now time.Time) error {
	if rec.isMember(account) {
		return fmt.Errorf("group %q: %s: %w", id, account, ErrAlreadyMember)
	}
	if _, banned := rec.blacklist[account]; banned {
		return fmt.Errorf("group %q: %s: %w", id, account, ErrBlacklisted)
	}
	rec.members[account] = Member{Level: level, GrantedBy: grantedBy, JoinedAt: now.UnixMilli()}
	return nil
}

func (rec *record) expel(id ref.GroupID, account ref.AccountID) error {
	if rec.config.Owner == account {
		return fmt.Errorf("group %q: %w", id, ErrOwnerImmutable)
	}
	if _, ok := rec.members[account]; !ok {
		return fmt.Errorf("group %q: %s: %w", id, account, ErrNotMember)
	}
	delete(rec.members, account)
	return nil
}

func (rec *record) ban(id ref.GroupID, account ref.AccountID, decidedBy ref.AccountID, now time.Time) error {
	if rec.config.Owner == account {
		return fmt.Errorf("group %q: %w", id, ErrOwnerImmutable)
	}
	if _, banned := rec.blacklist[account]; banned {
		return fmt.Errorf("group %q: %s: %w", id, account, ErrBlacklisted)
	}
	delete(rec.members, account)
	if request, ok := rec.joinRequests[account]; ok && !request.Status.Terminal() {
		request.Status = JoinRejected
		request.DecidedBy = decidedBy
		request.DecidedAt = now.UnixMilli()
		rec.joinRequests[account] = request
	}
	rec.blacklist[account] = struct{}{}
	return nil
}

func (rec *record) unban(id ref.GroupID, account ref.AccountID) error {
	if _, banned := rec.blacklist[account]; !banned {
		return fmt.Errorf("group %q: %s: %w", id, account, ErrNotBlacklisted)
	}
	delete(rec.blacklist, account)
	return nil
}

func (rec *record) transfer(id ref.GroupID, newOwner ref.AccountID, now time.Time) error {
	if rec.config.Owner == newOwner {
		return fmt.Errorf("group %q: %w", id, ErrInvalidTransferTarget)
	}
	if _, ok := rec.members[newOwner]; !ok {
		return fmt.Errorf("group %q: %s: %w", id, newOwner, ErrNotMember)
	}
	if _, banned := rec.blacklist[newOwner]; banned {
		return fmt.Errorf("group %q: %s: %w", id, newOwner, ErrBlacklisted)
	}
	previous := rec.config.Owner
	delete(rec.members, newOwner)
	// The outgoing owner stays in the group as an admin.
	rec.members[previous] = Member{Level: acl.LevelManage, GrantedBy: newOwner, JoinedAt: now.UnixMilli()}
	rec.config.Owner = newOwner
	return nil
}

func (rec *record) pendingRequest(id ref.GroupID, requester ref.AccountID) (JoinRequest, error) {
	request, ok := rec.joinRequests[requester]
	if !ok {
		return JoinRequest{}, fmt.Errorf("group %q: %s: %w", id, requester, ErrJoinRequestNotFound)
	}
	if request.Status.Terminal() {
		return JoinRequest{}, fmt.Errorf("group %q: %s: %w", id, requester, ErrJoinRequestTerminal)
	}
	return request, nil
}

// hasLevel resolves caller authorization against the group's config
// path: owner wins outright, blacklisted accounts hold nothing, and
// otherwise the maximum of the role level and explicit path grants
// decides.
func (r *Registry) hasLevel(rec *record, id ref.GroupID, caller ref.AccountID, required acl.Level, now time.Time) bool {
	return r.levelOn(rec, id, caller, ConfigPath(id), now).AtLeast(required)
}

func (r *Registry) levelOn(rec *record, id ref.GroupID, account ref.AccountID, path ref.Path, now time.Time) acl.Level {
	if rec.config.Owner == account {
		return acl.LevelManage
	}
	if _, banned := rec.blacklist[account]; banned {
		return acl.LevelNone
	}
	level := acl.LevelNone
	if member, ok := rec.members[account]; ok {
		level = member.Level
	}
	if granted := r.perms.EffectiveLevel(id.String(), account.String(), path, now); granted > level {
		level = granted
	}
	return level
}

// --- queries -----------------------------------------------------------

// GetConfig returns a group's configuration.
func (r *Registry) GetConfig(id ref.GroupID) (Config, error) {
	rec, err := r.get(id)
	if err != nil {
		return Config{}, err
	}
	return rec.config, nil
}

// Exists reports whether the group id is taken.
func (r *Registry) Exists(id ref.GroupID) bool {
	_, ok := r.groups[id]
	return ok
}

// IsMember reports whether account is the owner or holds a member
// record.
func (r *Registry) IsMember(id ref.GroupID, account ref.AccountID) bool {
	rec, ok := r.groups[id]
	return ok && rec.isMember(account)
}

// IsBlacklisted reports whether account is banned from the group.
func (r *Registry) IsBlacklisted(id ref.GroupID, account ref.AccountID) bool {
	rec, ok := r.groups[id]
	if !ok {
		return false
	}
	_, banned := rec.blacklist[account]
	return banned
}

// IsOwner reports whether account owns the group.
func (r *Registry) IsOwner(id ref.GroupID, account ref.AccountID) bool {
	rec, ok := r.groups[id]
	return ok && rec.config.Owner == account
}

// MemberData returns account's member record. The owner has no record
// and resolves through IsOwner instead.
func (r *Registry) MemberData(id ref.GroupID, account ref.AccountID) (Member, bool) {
	rec, ok := r.groups[id]
	if !ok {
		return Member{}, false
	}
	member, ok := rec.members[account]
	return member, ok
}

// MemberCount returns the membership size including the owner.
func (r *Registry) MemberCount(id ref.GroupID) int {
	rec, ok := r.groups[id]
	if !ok {
		return 0
	}
	return len(rec.members) + 1
}

// HasAdminPermission reports MANAGE on the group's config path.
func (r *Registry) HasAdminPermission(id ref.GroupID, account ref.AccountID, now time.Time) bool {
	rec, ok := r.groups[id]
	return ok && r.hasLevel(rec, id, account, acl.LevelManage, now)
}

// HasModeratePermission reports MODERATE on the group's config path.
func (r *Registry) HasModeratePermission(id ref.GroupID, account ref.AccountID, now time.Time) bool {
	rec, ok := r.groups[id]
	return ok && r.hasLevel(rec, id, account, acl.LevelModerate, now)
}

// EffectiveLevel resolves account's level on an arbitrary path inside
// the group's namespace.
func (r *Registry) EffectiveLevel(id ref.GroupID, account ref.AccountID, path ref.Path, now time.Time) acl.Level {
	rec, ok := r.groups[id]
	if !ok {
		return acl.LevelNone
	}
	return r.levelOn(rec, id, account, path, now)
}

// GetJoinRequest returns the stored join request for requester, if
// any.
func (r *Registry) GetJoinRequest(id ref.GroupID, requester ref.AccountID) (JoinRequest, bool) {
	rec, ok := r.groups[id]
	if !ok {
		return JoinRequest{}, false
	}
	request, ok := rec.joinRequests[requester]
	return request, ok
}

// GetStats returns the group's summary counters.
func (r *Registry) GetStats(id ref.GroupID) (Stats, error) {
	rec, err := r.get(id)
	if err != nil {
		return Stats{}, err
	}
	pending := 0
	for _, request := range rec.joinRequests {
		if !request.Status.Terminal() {
			pending++
		}
	}
	return Stats{
		MemberCount:         len(rec.members) + 1,
		BlacklistCount:      len(rec.blacklist),
		PendingJoinRequests: pending,
		IsPrivate:           rec.config.IsPrivate,
		MemberDriven:        rec.config.MemberDriven,
		CreatedAt:           rec.config.CreatedAt,
	}, nil
}

// Members returns every member account sorted by id, owner excluded.
func (r *Registry) Members(id ref.GroupID) []ref.AccountID {
	rec, ok := r.groups[id]
	if !ok {
		return nil
	}
	out := make([]ref.AccountID, 0, len(rec.members))
	for account := range rec.members {
		out = append(out, account)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

// JoinedAt returns when account became a member, in unix milliseconds.
// The owner's join time is the group's creation time.
func (r *Registry) JoinedAt(id ref.GroupID, account ref.AccountID) (int64, bool) {
	rec, ok := r.groups[id]
	if !ok {
		return 0, false
	}
	if rec.config.Owner == account {
		return rec.config.CreatedAt, true
	}
	member, ok := rec.members[account]
	if !ok {
		return 0, false
	}
	return member.JoinedAt, true
}

// NextProposalSeq increments and returns the group's proposal
// sequence counter.
func (r *Registry) NextProposalSeq(id ref.GroupID) (uint64, error) {
	rec, err := r.get(id)
	if err != nil {
		return 0, err
	}
	rec.proposalSeq++
	return rec.proposalSeq, nil
}
