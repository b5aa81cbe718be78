package types

// Client -> Server
// join_game:
//   team_name: string
//
// request_leaderboard: {}
//
// get_team_data:
//   team_id: string
//
// update_team_name:
//   team_id: string
//   team_name: string
//
// update_score:
//   team_id: string
//   score: number | numeric string
//
// admin_update_team:
//   team_id: string
//   team_name: string
//   score: number | numeric string
//
// delete_team:
//   team_id: string
//
// clear_all_teams: {}
//
// set_players_locked:
//   locked: boolean
//
// set_team_locked:
//   team_id: string
//   locked: boolean
const (
	EventJoinGame           = "join_game"
	EventRequestLeaderboard = "request_leaderboard"
	EventGetTeamData        = "get_team_data"
	EventUpdateTeamName     = "update_team_name"
	EventUpdateScore        = "update_score"
	EventAdminUpdateTeam    = "admin_update_team"
	EventDeleteTeam         = "delete_team"
	EventClearAllTeams      = "clear_all_teams"
	EventSetPlayersLocked   = "set_players_locked"
	EventSetTeamLocked      = "set_team_locked"
)
