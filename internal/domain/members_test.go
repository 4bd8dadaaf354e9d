package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type seqGenerator struct {
	values []int
	i      int
}

func (g *seqGenerator) IntN(n int) int {
	v := g.values[g.i%len(g.values)] % n
	g.i++
	return v
}

func nicks(r *Roster) []string {
	list := r.AsList()
	res := make([]string, 0, len(list))
	for _, s := range list {
		res = append(res, s.Nick)
	}

	return res
}

func assertUniqueNicks(t *testing.T, r *Roster) {
	t.Helper()
	seen := make(map[string]struct{})
	for _, nick := range nicks(r) {
		_, ok := seen[nick]
		require.False(t, ok, "nick %q is held twice", nick)
		seen[nick] = struct{}{}
	}
}

func TestRosterJoin(t *testing.T) {
	r := NewRoster(nil)

	pub, err := r.Join(&JoinParams{Id: "p", Role: RolePublisher, Nick: "Alice"})
	require.NoError(t, err)
	assert.Equal(t, "Alice", pub.Nick)
	assert.NotEmpty(t, pub.Color)

	_, err = r.Join(&JoinParams{Id: "s1", Role: RoleSubscriber, Nick: "Alice"})
	assert.ErrorIs(t, err, ErrNameConflict)

	_, err = r.Join(&JoinParams{Id: "p2", Role: RolePublisher, Nick: "Carol"})
	assert.ErrorIs(t, err, ErrDuplicateRoleConflict)

	_, err = r.Join(&JoinParams{Id: "p", Role: RoleSubscriber, Nick: "Dave"})
	assert.ErrorIs(t, err, ErrSessionAlreadyExists)

	_, err = r.Join(&JoinParams{Id: "x", Role: "viewer"})
	assert.ErrorIs(t, err, ErrMalformedCommand)

	sub, err := r.Join(&JoinParams{Id: "s1", Role: RoleSubscriber})
	require.NoError(t, err)
	assert.Contains(t, subscriberNickPresets, sub.Nick)

	assert.Equal(t, []string{"Alice", sub.Nick}, nicks(r))
}

func TestRosterPublishersLimit(t *testing.T) {
	r := NewRoster(&RosterConfig{PublishersLimit: 2})

	_, err := r.Join(&JoinParams{Id: "p1", Role: RolePublisher})
	require.NoError(t, err)
	_, err = r.Join(&JoinParams{Id: "p2", Role: RolePublisher})
	require.NoError(t, err)
	_, err = r.Join(&JoinParams{Id: "p3", Role: RolePublisher})
	assert.ErrorIs(t, err, ErrDuplicateRoleConflict)
}

func TestRosterMembersLimit(t *testing.T) {
	r := NewRoster(&RosterConfig{MembersLimit: 2})

	for i := range 2 {
		_, err := r.Join(&JoinParams{Id: fmt.Sprint(i), Role: RoleSubscriber, Nick: fmt.Sprint("n", i)})
		require.NoError(t, err)
	}

	_, err := r.Join(&JoinParams{Id: "late", Role: RoleSubscriber, Nick: "late"})
	assert.ErrorIs(t, err, ErrMembersLimitReached)
}

func TestRosterDefaultNickExhausted(t *testing.T) {
	r := NewRoster(&RosterConfig{Generator: &seqGenerator{values: []int{0}}})

	first, err := r.Join(&JoinParams{Id: "s1", Role: RoleSubscriber})
	require.NoError(t, err)
	assert.Equal(t, "macaw", first.Nick)

	_, err = r.Join(&JoinParams{Id: "s2", Role: RoleSubscriber})
	assert.ErrorIs(t, err, ErrNickUnavailable)
	assert.Equal(t, 1, r.Length())
}

func TestRosterPublisherDefaultNick(t *testing.T) {
	r := NewRoster(&RosterConfig{Generator: &seqGenerator{values: []int{41}}})

	pub, err := r.Join(&JoinParams{Id: "p", Role: RolePublisher})
	require.NoError(t, err)
	assert.Equal(t, "42", pub.Nick)
}

func TestRosterRename(t *testing.T) {
	r := NewRoster(nil)
	_, err := r.Join(&JoinParams{Id: "a", Role: RolePublisher, Nick: "Alice"})
	require.NoError(t, err)
	_, err = r.Join(&JoinParams{Id: "b", Role: RoleSubscriber, Nick: "Bob"})
	require.NoError(t, err)

	old, nick, err := r.Rename("b", "Bobby")
	require.NoError(t, err)
	assert.Equal(t, "Bob", old)
	assert.Equal(t, "Bobby", nick)

	_, _, err = r.Rename("b", "Alice")
	assert.ErrorIs(t, err, ErrNameConflict)

	_, _, err = r.Rename("b", "Bobby")
	assert.ErrorIs(t, err, ErrNickUnchanged)

	_, _, err = r.Rename("b", "")
	assert.ErrorIs(t, err, ErrMalformedCommand)

	_, _, err = r.Rename("missing", "Zed")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	// the old nick is free again
	_, err = r.Join(&JoinParams{Id: "c", Role: RoleSubscriber, Nick: "Bob"})
	require.NoError(t, err)

	assert.Equal(t, []string{"Alice", "Bobby", "Bob"}, nicks(r))
}

func TestRosterNicksStayUnique(t *testing.T) {
	r := NewRoster(&RosterConfig{PublishersLimit: 3})
	ids := []string{"a", "b", "c", "d", "e", "f"}
	for i, id := range ids {
		role := RoleSubscriber
		if i < 3 {
			role = RolePublisher
		}
		_, err := r.Join(&JoinParams{Id: id, Role: role, Nick: "n" + id})
		require.NoError(t, err)
	}

	candidates := []string{"na", "nb", "x", "y", "z", "nf"}
	for round := range 50 {
		id := ids[round%len(ids)]
		nick := candidates[(round*7)%len(candidates)]
		_, _, err := r.Rename(id, nick)
		if err != nil {
			assert.True(t, errors.Is(err, ErrNameConflict) || errors.Is(err, ErrNickUnchanged))
		}
		assertUniqueNicks(t, r)
	}
}

func TestRosterLeaveIdempotent(t *testing.T) {
	r := NewRoster(nil)
	_, err := r.Join(&JoinParams{Id: "a", Role: RoleSubscriber, Nick: "Alice"})
	require.NoError(t, err)

	s, ok := r.Leave("a")
	assert.True(t, ok)
	assert.Equal(t, "Alice", s.Nick)

	_, ok = r.Leave("a")
	assert.False(t, ok)
	assert.Equal(t, 0, r.Length())
}

func TestRosterSetters(t *testing.T) {
	r := NewRoster(nil)
	_, err := r.Join(&JoinParams{Id: "p", Role: RolePublisher, Nick: "Alice"})
	require.NoError(t, err)

	require.NoError(t, r.SetUserAgent("p", "mpv 0.38"))
	require.NoError(t, r.SetState("p", PlaybackState{Title: "x", Status: StatusPlaying}))
	assert.ErrorIs(t, r.SetUserAgent("nope", "ua"), ErrSessionNotFound)

	s, _, err := r.GetById("p")
	require.NoError(t, err)
	assert.Equal(t, "mpv 0.38", s.UserAgent)
	require.NotNil(t, s.State)
	assert.Equal(t, "x", s.State.Title)
}
