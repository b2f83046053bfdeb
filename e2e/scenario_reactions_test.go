package e2e

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
)

type ReactionScenarioSuite struct {
	BaseWsSuite
}

func TestReactionScenarioSuite(t *testing.T) {
	suite.Run(t, new(ReactionScenarioSuite))
}

func (s *ReactionScenarioSuite) TestPostAndReact() {
	room := "e2e-" + uuid.NewString()

	s.Step("alice and bob join")
	alice := s.Dial(room, "alice")
	s.Equal([]string{"alice"}, s.Next(alice).Online)
	bob := s.Dial(room, "bob")
	s.Equal([]string{"alice", "bob"}, s.Next(alice).Online)
	s.Next(bob)

	s.Step("alice posts")
	s.Require().NoError(alice.WriteJSON(map[string]string{"type": "message", "content": "hi"}))
	posted := s.Next(alice)
	s.Equal(posted, s.Next(bob))

	s.Step("bob reacts twice, only one update")
	add := map[string]string{"type": "add_reaction", "message_id": posted.MessageID, "emoji": "👍"}
	s.Require().NoError(bob.WriteJSON(add))
	s.Require().NoError(bob.WriteJSON(add))
	update := s.Next(alice)
	s.Equal([]string{"bob"}, update.Users)

	s.Step("bob removes it")
	s.Require().NoError(bob.WriteJSON(map[string]string{
		"type": "remove_reaction", "message_id": posted.MessageID, "emoji": "👍",
	}))
	removed := s.Next(alice)
	s.Empty(removed.Users)
	s.Empty(removed.Reactions)
}
