package service_test

import (
	"context"
	"sync"
	"testing"

	"github.com/dom/group-decide/internal/domain"
	"github.com/dom/group-decide/internal/repository"
	"github.com/dom/group-decide/internal/service"
	"github.com/dom/group-decide/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSessionService(t *testing.T) (*service.SessionService, *repository.Repositories) {
	t.Helper()
	repos := testutil.NewMemoryRepositories()
	return service.NewSessionService(repos), repos
}

func TestSessionService_CreateSession(t *testing.T) {
	svc, repos := newSessionService(t)
	ctx := context.Background()
	creator, _ := testutil.NewUserBuilder().Build(t, repos)

	tests := []struct {
		name    string
		input   service.CreateSessionInput
		wantErr error
		kind    error
	}{
		{
			name:  "successful creation",
			input: service.CreateSessionInput{Title: "Dinner", CreatorID: creator.ID},
		},
		{
			name:  "with options",
			input: service.CreateSessionInput{Title: "Dinner", CreatorID: creator.ID, Options: []string{"Tacos", "Sushi"}},
		},
		{
			name:    "missing title",
			input:   service.CreateSessionInput{Title: "   ", CreatorID: creator.ID},
			wantErr: service.ErrTitleRequired,
			kind:    domain.ErrValidation,
		},
		{
			name:    "missing creator",
			input:   service.CreateSessionInput{Title: "Dinner"},
			wantErr: service.ErrMissingFields,
			kind:    domain.ErrValidation,
		},
		{
			name:    "unknown creator",
			input:   service.CreateSessionInput{Title: "Dinner", CreatorID: uuid.New()},
			wantErr: service.ErrUserNotFound,
			kind:    domain.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before, err := repos.User.GetByID(ctx, creator.ID)
			require.NoError(t, err)

			session, err := svc.CreateSession(ctx, tt.input)

			after, getErr := repos.User.GetByID(ctx, creator.ID)
			require.NoError(t, getErr)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.ErrorIs(t, err, tt.kind)
				assert.Nil(t, session)
				assert.Len(t, after.CreatedSessions, len(before.CreatedSessions))
				return
			}

			require.NoError(t, err)
			assert.Equal(t, domain.SessionStatusPending, session.Status)
			assert.Equal(t, []uuid.UUID{creator.ID}, []uuid.UUID(session.Users))
			assert.Equal(t, creator.ID, session.CreatedBy)
			assert.Empty(t, session.Swipes)
			assert.Len(t, session.Options, len(tt.input.Options))

			require.Len(t, after.CreatedSessions, len(before.CreatedSessions)+1)
			assert.Equal(t, session.ID, after.CreatedSessions[len(after.CreatedSessions)-1])

			stored, err := repos.Session.GetByID(ctx, session.ID)
			require.NoError(t, err)
			assert.Equal(t, session.Title, stored.Title)
		})
	}
}

func TestSessionService_JoinSession(t *testing.T) {
	svc, repos := newSessionService(t)
	ctx := context.Background()

	t.Run("successful join", func(t *testing.T) {
		session := testutil.NewSessionBuilder().Build(t, repos)
		joiner, _ := testutil.NewUserBuilder().Build(t, repos)

		joined, err := svc.JoinSession(ctx, session.ID, joiner.ID)
		require.NoError(t, err)
		assert.Len(t, joined.Users, 2)
		assert.Equal(t, joiner.ID, joined.Users[1])

		user, err := repos.User.GetByID(ctx, joiner.ID)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{session.ID}, []uuid.UUID(user.JoinedSessions))
	})

	t.Run("duplicate join", func(t *testing.T) {
		joiner, _ := testutil.NewUserBuilder().Build(t, repos)
		session := testutil.NewSessionBuilder().WithMembers(joiner).Build(t, repos)

		_, err := svc.JoinSession(ctx, session.ID, joiner.ID)
		assert.ErrorIs(t, err, domain.ErrUserAlreadyInSession)
		assert.ErrorIs(t, err, domain.ErrConflict)
		assert.EqualError(t, err, "user already in session")

		user, err := repos.User.GetByID(ctx, joiner.ID)
		require.NoError(t, err)
		assert.Len(t, user.JoinedSessions, 1)
	})

	for _, status := range []domain.SessionStatus{domain.SessionStatusCompleted, domain.SessionStatusCancelled} {
		t.Run("closed session "+string(status), func(t *testing.T) {
			session := testutil.NewSessionBuilder().WithStatus(status).Build(t, repos)
			joiner, _ := testutil.NewUserBuilder().Build(t, repos)

			_, err := svc.JoinSession(ctx, session.ID, joiner.ID)
			assert.ErrorIs(t, err, domain.ErrConflict)
			assert.EqualError(t, err, "cannot join a "+string(status)+" session")

			stored, err := repos.Session.GetByID(ctx, session.ID)
			require.NoError(t, err)
			assert.Len(t, stored.Users, 1)

			user, err := repos.User.GetByID(ctx, joiner.ID)
			require.NoError(t, err)
			assert.Empty(t, user.JoinedSessions)
		})
	}

	t.Run("unknown session", func(t *testing.T) {
		joiner, _ := testutil.NewUserBuilder().Build(t, repos)

		_, err := svc.JoinSession(ctx, uuid.New(), joiner.ID)
		assert.ErrorIs(t, err, service.ErrSessionNotFound)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("unknown user", func(t *testing.T) {
		session := testutil.NewSessionBuilder().Build(t, repos)

		_, err := svc.JoinSession(ctx, session.ID, uuid.New())
		assert.ErrorIs(t, err, service.ErrUserNotFound)

		stored, err := repos.Session.GetByID(ctx, session.ID)
		require.NoError(t, err)
		assert.Len(t, stored.Users, 1)
	})

	t.Run("missing ids", func(t *testing.T) {
		_, err := svc.JoinSession(ctx, uuid.Nil, uuid.New())
		assert.ErrorIs(t, err, domain.ErrValidation)
	})
}

func TestSessionService_ConcurrentJoins(t *testing.T) {
	svc, repos := newSessionService(t)
	ctx := context.Background()

	session := testutil.NewSessionBuilder().Build(t, repos)
	joiner, _ := testutil.NewUserBuilder().Build(t, repos)

	const attempts = 10
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.JoinSession(ctx, session.ID, joiner.ID)
			if err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, domain.ErrUserAlreadyInSession)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)

	stored, err := repos.Session.GetByID(ctx, session.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Users, 2)

	user, err := repos.User.GetByID(ctx, joiner.ID)
	require.NoError(t, err)
	assert.Len(t, user.JoinedSessions, 1)
}

func TestSessionService_RecordSwipe(t *testing.T) {
	svc, repos := newSessionService(t)
	ctx := context.Background()

	member, _ := testutil.NewUserBuilder().Build(t, repos)
	outsider, _ := testutil.NewUserBuilder().Build(t, repos)
	session := testutil.NewSessionBuilder().WithMembers(member).Build(t, repos)

	t.Run("first swipe", func(t *testing.T) {
		votes, err := svc.RecordSwipe(ctx, session.ID, member.ID, "A", "yes")
		require.NoError(t, err)
		assert.Equal(t, map[string]domain.Vote{"A": domain.VoteYes}, votes)
	})

	t.Run("idempotent repeat", func(t *testing.T) {
		before, err := svc.RecordSwipe(ctx, session.ID, member.ID, "B", "no")
		require.NoError(t, err)
		after, err := svc.RecordSwipe(ctx, session.ID, member.ID, "B", "no")
		require.NoError(t, err)
		assert.Equal(t, before, after)

		stored, err := repos.Session.GetByID(ctx, session.ID)
		require.NoError(t, err)
		assert.Equal(t, after, stored.VotesOf(member.ID))
	})

	t.Run("last write wins", func(t *testing.T) {
		_, err := svc.RecordSwipe(ctx, session.ID, member.ID, "C", "yes")
		require.NoError(t, err)
		votes, err := svc.RecordSwipe(ctx, session.ID, member.ID, "C", "no")
		require.NoError(t, err)
		assert.Equal(t, domain.VoteNo, votes["C"])
	})

	t.Run("undeclared option ids are accepted", func(t *testing.T) {
		votes, err := svc.RecordSwipe(ctx, session.ID, member.ID, "not-an-option", "yes")
		require.NoError(t, err)
		assert.Equal(t, domain.VoteYes, votes["not-an-option"])
	})

	t.Run("non member", func(t *testing.T) {
		_, err := svc.RecordSwipe(ctx, session.ID, outsider.ID, "A", "yes")
		assert.ErrorIs(t, err, domain.ErrUserNotInSession)
		assert.ErrorIs(t, err, domain.ErrConflict)
	})

	t.Run("invalid vote", func(t *testing.T) {
		_, err := svc.RecordSwipe(ctx, session.ID, member.ID, "A", "maybe")
		assert.ErrorIs(t, err, domain.ErrInvalidVote)
		assert.ErrorIs(t, err, domain.ErrValidation)

		stored, err := repos.Session.GetByID(ctx, session.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.VoteYes, stored.VotesOf(member.ID)["A"])
	})

	t.Run("membership checked before vote value", func(t *testing.T) {
		_, err := svc.RecordSwipe(ctx, session.ID, outsider.ID, "A", "maybe")
		assert.ErrorIs(t, err, domain.ErrUserNotInSession)
	})

	t.Run("missing arguments", func(t *testing.T) {
		_, err := svc.RecordSwipe(ctx, session.ID, member.ID, "", "yes")
		assert.ErrorIs(t, err, service.ErrMissingFields)
		_, err = svc.RecordSwipe(ctx, session.ID, member.ID, "A", "")
		assert.ErrorIs(t, err, service.ErrMissingFields)
	})

	t.Run("unknown session", func(t *testing.T) {
		_, err := svc.RecordSwipe(ctx, uuid.New(), member.ID, "A", "yes")
		assert.ErrorIs(t, err, service.ErrSessionNotFound)
	})
}

func TestSessionService_ConcurrentSwipes(t *testing.T) {
	svc, repos := newSessionService(t)
	ctx := context.Background()

	members := make([]*domain.User, 12)
	for i := range members {
		members[i], _ = testutil.NewUserBuilder().Build(t, repos)
	}
	session := testutil.NewSessionBuilder().WithCreator(members[0]).WithMembers(members[1:]...).Build(t, repos)

	var wg sync.WaitGroup
	for _, m := range members {
		for _, option := range []string{"A", "B", "C"} {
			wg.Add(1)
			go func(userID uuid.UUID, option string) {
				defer wg.Done()
				_, err := svc.RecordSwipe(ctx, session.ID, userID, option, "yes")
				assert.NoError(t, err)
			}(m.ID, option)
		}
	}
	wg.Wait()

	result, err := svc.ComputeResult(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ResultUnanimous, result.Kind)
	assert.Equal(t, []string{"A", "B", "C"}, result.Unanimous)
	for _, tally := range result.AllResults {
		assert.Equal(t, len(members), tally.YesCount)
	}
}

func TestSessionService_ComputeResult(t *testing.T) {
	svc, repos := newSessionService(t)
	ctx := context.Background()

	t.Run("unanimous with ranked list", func(t *testing.T) {
		u, _ := testutil.NewUserBuilder().Build(t, repos)
		v, _ := testutil.NewUserBuilder().Build(t, repos)
		session := testutil.NewSessionBuilder().WithCreator(u).WithMembers(v).Build(t, repos)

		for _, s := range []struct {
			user   uuid.UUID
			option string
			vote   string
		}{
			{u.ID, "A", "yes"},
			{v.ID, "A", "yes"},
			{u.ID, "B", "yes"},
			{v.ID, "B", "no"},
		} {
			_, err := svc.RecordSwipe(ctx, session.ID, s.user, s.option, s.vote)
			require.NoError(t, err)
		}

		result, err := svc.ComputeResult(ctx, session.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.ResultUnanimous, result.Kind)
		assert.Equal(t, []string{"A"}, result.Unanimous)
		assert.Equal(t, []domain.OptionTally{
			{OptionID: "A", YesCount: 2},
			{OptionID: "B", YesCount: 1},
		}, result.AllResults)
	})

	t.Run("no yes votes", func(t *testing.T) {
		session := testutil.NewSessionBuilder().Build(t, repos)
		_, err := svc.RecordSwipe(ctx, session.ID, session.CreatedBy, "A", "no")
		require.NoError(t, err)

		_, err = svc.ComputeResult(ctx, session.ID)
		assert.ErrorIs(t, err, domain.ErrNoYesSwipes)
		assert.ErrorIs(t, err, domain.ErrNoData)
		assert.EqualError(t, err, "no yes swipes recorded")
	})

	t.Run("unknown session", func(t *testing.T) {
		_, err := svc.ComputeResult(ctx, uuid.New())
		assert.ErrorIs(t, err, service.ErrSessionNotFound)
	})
}

func TestSessionService_DinnerScenario(t *testing.T) {
	svc, repos := newSessionService(t)
	ctx := context.Background()

	u, _ := testutil.NewUserBuilder().Build(t, repos)
	v, _ := testutil.NewUserBuilder().Build(t, repos)

	session, err := svc.CreateSession(ctx, service.CreateSessionInput{Title: "Dinner", CreatorID: u.ID})
	require.NoError(t, err)
	assert.Equal(t, domain.SessionStatusPending, session.Status)
	assert.Equal(t, []uuid.UUID{u.ID}, []uuid.UUID(session.Users))

	session, err = svc.JoinSession(ctx, session.ID, v.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{u.ID, v.ID}, []uuid.UUID(session.Users))

	_, err = svc.RecordSwipe(ctx, session.ID, u.ID, "A", "yes")
	require.NoError(t, err)
	_, err = svc.RecordSwipe(ctx, session.ID, v.ID, "A", "yes")
	require.NoError(t, err)

	result, err := svc.ComputeResult(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ResultUnanimous, result.Kind)
	assert.Equal(t, []string{"A"}, result.Unanimous)

	lists, err := svc.ListUserSessions(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, lists.Created, 1)
	assert.Equal(t, session.ID, lists.Created[0].ID)
	assert.Empty(t, lists.Joined)

	lists, err = svc.ListUserSessions(ctx, v.ID)
	require.NoError(t, err)
	assert.Empty(t, lists.Created)
	require.Len(t, lists.Joined, 1)
	assert.Equal(t, session.ID, lists.Joined[0].ID)
}

func TestSessionService_AddOption(t *testing.T) {
	svc, repos := newSessionService(t)
	ctx := context.Background()

	member, _ := testutil.NewUserBuilder().Build(t, repos)
	outsider, _ := testutil.NewUserBuilder().Build(t, repos)

	t.Run("member adds option", func(t *testing.T) {
		session := testutil.NewSessionBuilder().WithMembers(member).Build(t, repos)

		option, err := svc.AddOption(ctx, session.ID, member.ID, " Ramen ")
		require.NoError(t, err)
		assert.Equal(t, "Ramen", option.Description)
		assert.NotEmpty(t, option.OptionID)

		stored, err := repos.Session.GetByID(ctx, session.ID)
		require.NoError(t, err)
		require.Len(t, stored.Options, 1)
		assert.Equal(t, option.OptionID, stored.Options[0].OptionID)
	})

	t.Run("outsider rejected", func(t *testing.T) {
		session := testutil.NewSessionBuilder().Build(t, repos)
		_, err := svc.AddOption(ctx, session.ID, outsider.ID, "Ramen")
		assert.ErrorIs(t, err, domain.ErrUserNotInSession)
	})

	t.Run("closed session rejected", func(t *testing.T) {
		session := testutil.NewSessionBuilder().WithMembers(member).WithStatus(domain.SessionStatusCompleted).Build(t, repos)
		_, err := svc.AddOption(ctx, session.ID, member.ID, "Ramen")
		assert.ErrorIs(t, err, domain.ErrConflict)
		assert.EqualError(t, err, "cannot add options to a completed session")
	})

	t.Run("blank description", func(t *testing.T) {
		session := testutil.NewSessionBuilder().WithMembers(member).Build(t, repos)
		_, err := svc.AddOption(ctx, session.ID, member.ID, "  ")
		assert.ErrorIs(t, err, domain.ErrValidation)
	})
}

func TestSessionService_TransitionStatus(t *testing.T) {
	svc, repos := newSessionService(t)
	ctx := context.Background()

	creator, _ := testutil.NewUserBuilder().Build(t, repos)
	member, _ := testutil.NewUserBuilder().Build(t, repos)

	t.Run("creator walks the lifecycle", func(t *testing.T) {
		session := testutil.NewSessionBuilder().WithCreator(creator).Build(t, repos)

		updated, err := svc.TransitionStatus(ctx, session.ID, creator.ID, "active")
		require.NoError(t, err)
		assert.Equal(t, domain.SessionStatusActive, updated.Status)

		updated, err = svc.TransitionStatus(ctx, session.ID, creator.ID, "completed")
		require.NoError(t, err)
		assert.Equal(t, domain.SessionStatusCompleted, updated.Status)

		_, err = svc.JoinSession(ctx, session.ID, member.ID)
		assert.EqualError(t, err, "cannot join a completed session")
	})

	t.Run("non creator forbidden", func(t *testing.T) {
		session := testutil.NewSessionBuilder().WithCreator(creator).WithMembers(member).Build(t, repos)

		_, err := svc.TransitionStatus(ctx, session.ID, member.ID, "active")
		assert.ErrorIs(t, err, domain.ErrNotSessionCreator)
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("illegal transition", func(t *testing.T) {
		session := testutil.NewSessionBuilder().WithCreator(creator).Build(t, repos)

		_, err := svc.TransitionStatus(ctx, session.ID, creator.ID, "completed")
		assert.ErrorIs(t, err, domain.ErrConflict)
		assert.EqualError(t, err, "cannot move a pending session to completed")

		stored, err := repos.Session.GetByID(ctx, session.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.SessionStatusPending, stored.Status)
	})

	t.Run("unknown status word", func(t *testing.T) {
		session := testutil.NewSessionBuilder().WithCreator(creator).Build(t, repos)

		_, err := svc.TransitionStatus(ctx, session.ID, creator.ID, "archived")
		assert.ErrorIs(t, err, domain.ErrInvalidStatus)
	})
}

func TestSessionService_ListUserSessions(t *testing.T) {
	svc, repos := newSessionService(t)
	ctx := context.Background()

	t.Run("unknown user", func(t *testing.T) {
		_, err := svc.ListUserSessions(ctx, uuid.New())
		assert.ErrorIs(t, err, service.ErrUserNotFound)
	})

	t.Run("dangling references are skipped", func(t *testing.T) {
		user, _ := testutil.NewUserBuilder().Build(t, repos)
		session := testutil.NewSessionBuilder().WithCreator(user).Build(t, repos)
		require.NoError(t, repos.User.AppendCreatedSession(ctx, user.ID, uuid.New()))

		lists, err := svc.ListUserSessions(ctx, user.ID)
		require.NoError(t, err)
		require.Len(t, lists.Created, 1)
		assert.Equal(t, session.ID, lists.Created[0].ID)
	})
}
