package auditor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var header = []string{"brand", "model", "os", "processor", "battery_mah", "display_in", "charging_w"}

func row(cells ...string) []string { return cells }

func TestDuplicateRemovalIsCaseInsensitive(t *testing.T) {
	a := New(DefaultLimits())
	rows := [][]string{
		header,
		row("Apple", "iPhone 15", "iOS", "A16 Bionic", "3349", "6.1", "20"),
		row("apple", "IPHONE 15", "iOS", "A16 Bionic", "3349", "6.1", "20"),
		row("Samsung", "Galaxy S24", "Android", "Exynos 2400", "4000", "6.2", "25"),
	}

	kept, report, err := a.Audit(rows)
	require.NoError(t, err)

	assert.Equal(t, 3, report.Original)
	assert.Equal(t, 2, report.Kept)
	assert.Equal(t, 1, report.Removed)
	require.Len(t, kept, 3) // header + 2 rows
	assert.Equal(t, "iPhone 15", kept[1][1])
	assert.Empty(t, report.Flags)
}

func TestAppleOSMismatchIsFlagged(t *testing.T) {
	a := New(DefaultLimits())
	rows := [][]string{
		header,
		row("Apple", "iPhone 15", "Android", "A16 Bionic", "3349", "6.1", "20"),
	}

	_, report, err := a.Audit(rows)
	require.NoError(t, err)
	require.Len(t, report.Flags, 1)
	assert.Equal(t, "Apple", report.Flags[0].Brand)
	assert.Equal(t, "iPhone 15", report.Flags[0].Model)
	require.Len(t, report.Flags[0].Issues, 1)
	assert.Contains(t, report.Flags[0].Issues[0], "non-iOS")
}

func TestNonAppleRunningIOSIsFlagged(t *testing.T) {
	a := New(DefaultLimits())
	rows := [][]string{
		header,
		row("Samsung", "Galaxy S24", "iOS", "Exynos 2400", "4000", "6.2", "25"),
	}

	_, report, err := a.Audit(rows)
	require.NoError(t, err)
	require.Len(t, report.Flags, 1)
	assert.Contains(t, report.Flags[0].Issues[0], "running iOS")
}

func TestSuspiciousBatteryIsFlagged(t *testing.T) {
	a := New(DefaultLimits())
	rows := [][]string{
		header,
		row("Xiaomi", "Power Max", "Android", "Snapdragon 8 Gen 3", "12000", "6.7", "120"),
	}

	_, report, err := a.Audit(rows)
	require.NoError(t, err)
	require.Len(t, report.Flags, 1)
	assert.Contains(t, report.Flags[0].Issues[0], "suspicious battery capacity 12000")
}

func TestForeignSiliconIsFlagged(t *testing.T) {
	a := New(DefaultLimits())
	rows := [][]string{
		header,
		row("Xiaomi", "14 Pro", "Android", "A17 Bionic", "4880", "6.73", "120"),
		row("Apple", "iPhone 15 Pro", "iOS", "Snapdragon 8 Gen 2", "3274", "6.1", "25"),
	}

	_, report, err := a.Audit(rows)
	require.NoError(t, err)
	require.Len(t, report.Flags, 2)
	assert.Contains(t, report.Flags[0].Issues[0], "bionic silicon")
	assert.Contains(t, report.Flags[1].Issues[0], "foreign chipset")
}

func TestDisplayAndChargingRanges(t *testing.T) {
	a := New(DefaultLimits())
	rows := [][]string{
		header,
		row("Samsung", "Galaxy Fold Concept", "Android", "Exynos 2400", "4400", "12.4", "45"),
		row("Realme", "GT Hyper", "Android", "Snapdragon 8 Gen 3", "4600", "6.7", "500"),
	}

	_, report, err := a.Audit(rows)
	require.NoError(t, err)
	require.Len(t, report.Flags, 2)
	assert.Contains(t, report.Flags[0].Issues[0], "suspicious display size")
	assert.Contains(t, report.Flags[1].Issues[0], "above ceiling")
}

func TestFlagsAreAdvisoryOnly(t *testing.T) {
	a := New(DefaultLimits())
	rows := [][]string{
		header,
		row("Samsung", "Galaxy S24", "iOS", "Exynos 2400", "4000", "6.2", "25"),
	}

	kept, report, err := a.Audit(rows)
	require.NoError(t, err)
	// the flagged row is reported but never dropped
	assert.Equal(t, 1, report.Kept)
	assert.Len(t, kept, 2)
	assert.Len(t, report.Flags, 1)
}

func TestEmptySnapshot(t *testing.T) {
	a := New(DefaultLimits())
	_, _, err := a.Audit(nil)
	assert.Error(t, err)
}
