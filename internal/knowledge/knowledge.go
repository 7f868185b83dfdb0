// Package knowledge bundles the static strategy document the Oracle
// grounds its answers on.
package knowledge

import _ "embed"

//go:embed strategy_fr.md
var strategyDocument string

// StrategyDocument returns the bundled strategy knowledge document.
func StrategyDocument() string {
	return strategyDocument
}
