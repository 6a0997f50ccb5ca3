package domain

var (
	GAME_START_SUCCESS      = "Tour session started"
	GAME_START_FAILED       = "Failed to start tour session"
	GAME_STATE_SUCCESS      = "Session state retrieved"
	GAME_STATE_FAILED       = "Failed to retrieve session state"
	GAME_REFLECTION_SUCCESS = "Reflection submitted"
	GAME_REFLECTION_FAILED  = "Failed to submit reflection"
	GAME_ANSWER_SUCCESS     = "Answer submitted"
	GAME_ANSWER_FAILED      = "Failed to submit answer"
	GAME_HISTORY_SUCCESS    = "Session history retrieved"
	GAME_HISTORY_FAILED     = "Failed to retrieve session history"
	LOCATION_LIST_SUCCESS   = "Campus locations retrieved"
	LOCATION_LIST_FAILED    = "Failed to retrieve campus locations"
	LOCATION_DETAIL_SUCCESS = "Campus location retrieved"
	LOCATION_DETAIL_FAILED  = "Failed to retrieve campus location"
)
