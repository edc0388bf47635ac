// Package config manages the game rulesets stored as JSON files.
//
// A ruleset (engine.GameConfig) fixes the turn budget, loan terms, family
// rules, fast track exit, profession table and board. Rooms name the ruleset
// they play with; an empty name means the default, which is classic.json
// when present, else the first valid file, else the built-in rules.
//
// Usage:
//
//	manager, err := config.NewManager("configs")
//	if err != nil {
//		return err
//	}
//
//	rules, err := manager.LoadConfig("quick")
//	infos, err := manager.ListConfigs()
package config
