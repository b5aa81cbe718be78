package types

// Server -> Client (targeted)
// connected:
//   message: string
//
// error:
//   message: string
//
// team_joined, team_data:
//   team_id: string
//   team_name: string
//   score: number
//
// team_deleted:
//   team_id: string
//
// Server -> All
// leaderboard_update:
//   teams: Team[] // score desc, created_at asc
//   players_locked: boolean
const (
	EventConnected         = "connected"
	EventError             = "error"
	EventTeamJoined        = "team_joined"
	EventTeamData          = "team_data"
	EventTeamDeleted       = "team_deleted"
	EventLeaderboardUpdate = "leaderboard_update"
)
