// Package catalog keeps a central, documented list of the typed channels an
// application defines, so that channel names stop being magic strings and a
// name is never reused with a different payload type.
//
// Key Features:
//   - Channel definitions derived from the payload type by reflection
//   - Naming rules enforced with go-playground/validator
//   - Conflicting payload types for one name rejected at definition time
//   - Discovery by module and JSON export for tooling
//
// Usage:
//
// Channels are usually defined at package level:
//
//	type ScoreChanged struct {
//		Player string `json:"player"`
//		Points int    `json:"points"`
//	}
//
//	var Score = catalog.MustDefine[ScoreChanged](catalog.Default(),
//		"game.score.changed", "Published when a player's score changes")
//
// The returned value is an ordinary notify.Channel:
//
//	Score.Post(ScoreChanged{Player: "ada", Points: 42})
//
// Definitions can be discovered and exported:
//
//	all := catalog.Default().List()
//	game := catalog.Default().ListByModule("game")
//	err := catalog.Default().Export(afero.NewOsFs(), "channels.json")
package catalog
