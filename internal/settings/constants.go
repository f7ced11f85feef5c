package settings

import "time"

// Product constants shared by handlers and domain packages.
const (
	// DefaultTheme is the theme every account starts with.
	DefaultTheme = "default"
	// FreeStatsEntryLimit is the number of monthly entries a free account can analyse in detail.
	FreeStatsEntryLimit = 7
	// PremiumPeriod is the paid period granted by a monthly premium payment.
	PremiumPeriod = 30 * 24 * time.Hour
	// PremiumMonthlyAmount is the accepted monthly premium price in KRW.
	PremiumMonthlyAmount int64 = 1900
	// PremiumLifetimeAmount is the accepted lifetime premium price in KRW.
	PremiumLifetimeAmount int64 = 14900
	// DefaultDiaryListLimit caps diary list responses when the caller omits limit.
	DefaultDiaryListLimit = 50
	// MaxDiaryListLimit is the largest accepted diary list limit.
	MaxDiaryListLimit = 200
)

// Themes lists selectable UI themes; every theme except DefaultTheme requires premium.
var Themes = []string{DefaultTheme, "spring", "summer", "autumn", "winter"}

// IsTheme reports whether name is a known theme.
func IsTheme(name string) bool {
	for _, theme := range Themes {
		if theme == name {
			return true
		}
	}
	return false
}
