package domain

// Announcer pushes state changes to live viewers. Implementations must not
// block on slow viewers and never fail the caller: delivery is best-effort.
type Announcer interface {
	AnnounceMatch(match *Match)
	AnnounceCommentary(matchID MatchID, entry *Commentary)
}
