package domain

import (
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Vote is a single yes/no swipe on an option.
type Vote string

const (
	VoteYes Vote = "yes"
	VoteNo  Vote = "no"
)

// ParseVote accepts exactly "yes" or "no".
func ParseVote(s string) (Vote, error) {
	switch Vote(s) {
	case VoteYes, VoteNo:
		return Vote(s), nil
	}
	return "", ErrInvalidVote
}

// Option is a candidate the group swipes on. YesVotes and NoVotes mirror the
// ledger and are recomputed after every swipe.
type Option struct {
	OptionID    string `json:"optionId"`
	Description string `json:"description"`
	YesVotes    int    `json:"yesVotes"`
	NoVotes     int    `json:"noVotes"`
}

// SwipeRecord holds every vote one user has cast in a session, keyed by
// option ID.
type SwipeRecord struct {
	UserID uuid.UUID       `json:"userId"`
	Votes  map[string]Vote `json:"votes"`
}

// Session is a single group-decision round. It is stored and updated as one
// document: membership, options and the swipe ledger live in JSONB columns so
// a row lock covers all of them.
type Session struct {
	ID        uuid.UUID                        `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Title     string                           `json:"title" gorm:"not null"`
	CreatedBy uuid.UUID                        `json:"createdBy" gorm:"type:uuid;not null;index"`
	Users     datatypes.JSONSlice[uuid.UUID]   `json:"users" gorm:"type:jsonb;not null;default:'[]'"`
	Options   datatypes.JSONSlice[Option]      `json:"options" gorm:"type:jsonb;not null;default:'[]'"`
	Status    SessionStatus                    `json:"status" gorm:"type:varchar(20);not null;default:'pending'"`
	Swipes    datatypes.JSONSlice[SwipeRecord] `json:"swipes" gorm:"type:jsonb;not null;default:'[]'"`
	CreatedAt time.Time                        `json:"createdAt"`
	UpdatedAt time.Time                        `json:"updatedAt"`

	// Relations
	Creator *User `json:"creator,omitempty" gorm:"foreignKey:CreatedBy"`
}

// TableName returns the table name for GORM
func (Session) TableName() string {
	return "decision_sessions"
}

// NewSession builds a pending session whose only member is the creator.
// Blank option descriptions are skipped.
func NewSession(title string, creatorID uuid.UUID, descriptions []string) *Session {
	now := time.Now()
	s := &Session{
		ID:        uuid.New(),
		Title:     strings.TrimSpace(title),
		CreatedBy: creatorID,
		Users:     datatypes.JSONSlice[uuid.UUID]{creatorID},
		Options:   datatypes.JSONSlice[Option]{},
		Status:    SessionStatusPending,
		Swipes:    datatypes.JSONSlice[SwipeRecord]{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, d := range descriptions {
		if strings.TrimSpace(d) == "" {
			continue
		}
		s.AddOption(d)
	}
	return s
}

// HasMember reports whether userID is in the session's membership.
func (s *Session) HasMember(userID uuid.UUID) bool {
	return slices.Contains(s.Users, userID)
}

// Join appends userID to the membership after checking the lifecycle and
// duplicate guards. It does not mutate s when a guard fails.
func (s *Session) Join(userID uuid.UUID) error {
	if !s.Status.AcceptsMembers() {
		return ConflictError("cannot join a %s session", s.Status)
	}
	if s.HasMember(userID) {
		return ErrUserAlreadyInSession
	}
	s.Users = append(s.Users, userID)
	return nil
}

// AddOption appends a new option with a generated ID and returns it.
func (s *Session) AddOption(description string) Option {
	opt := Option{
		OptionID:    uuid.NewString(),
		Description: strings.TrimSpace(description),
	}
	s.Options = append(s.Options, opt)
	return opt
}

// RecordSwipe upserts optionID→vote in userID's swipe record, creating the
// record on first swipe, and returns a copy of the user's full vote map.
// Membership is the caller's concern.
func (s *Session) RecordSwipe(userID uuid.UUID, optionID string, vote Vote) map[string]Vote {
	idx := slices.IndexFunc(s.Swipes, func(r SwipeRecord) bool { return r.UserID == userID })
	if idx < 0 {
		s.Swipes = append(s.Swipes, SwipeRecord{UserID: userID, Votes: map[string]Vote{}})
		idx = len(s.Swipes) - 1
	}
	if s.Swipes[idx].Votes == nil {
		s.Swipes[idx].Votes = map[string]Vote{}
	}
	s.Swipes[idx].Votes[optionID] = vote
	s.refreshOptionCounters()
	return maps.Clone(s.Swipes[idx].Votes)
}

// VotesOf returns a copy of userID's vote map, or an empty map when the user
// has not swiped.
func (s *Session) VotesOf(userID uuid.UUID) map[string]Vote {
	for _, r := range s.Swipes {
		if r.UserID == userID {
			return maps.Clone(r.Votes)
		}
	}
	return map[string]Vote{}
}

func (s *Session) refreshOptionCounters() {
	for i := range s.Options {
		yes, no := 0, 0
		for _, r := range s.Swipes {
			switch r.Votes[s.Options[i].OptionID] {
			case VoteYes:
				yes++
			case VoteNo:
				no++
			}
		}
		s.Options[i].YesVotes = yes
		s.Options[i].NoVotes = no
	}
}

// Clone returns a deep copy of s.
func (s *Session) Clone() *Session {
	c := *s
	c.Users = slices.Clone(s.Users)
	c.Options = slices.Clone(s.Options)
	c.Swipes = make(datatypes.JSONSlice[SwipeRecord], len(s.Swipes))
	for i, r := range s.Swipes {
		c.Swipes[i] = SwipeRecord{UserID: r.UserID, Votes: maps.Clone(r.Votes)}
	}
	if s.Creator != nil {
		c.Creator = s.Creator.Clone()
	}
	return &c
}
