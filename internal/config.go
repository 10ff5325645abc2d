package internal

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
)

const (
	StoreBadger   = "badger"
	StorePostgres = "postgres"
)

func CharacterRune(str string) (rune, error) {
	r := []rune(str)
	if len(r) != 1 {
		return 0, fmt.Errorf(
			"CHARACTER_REPLACEMENT must be a single character, got %q",
			str,
		)
	}
	return r[0], nil
}

// SplitList reads a comma separated variable, dropping blank entries.
func SplitList(str string) []string {
	return lo.Compact(lo.Map(strings.Split(str, ","), func(s string, _ int) string {
		return strings.TrimSpace(s)
	}))
}

// ValidateStoreDriver checks the driver name and its required settings.
func ValidateStoreDriver(driver, databaseURL string) error {
	switch driver {
	case StoreBadger:
		return nil
	case StorePostgres:
		if databaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORE_DRIVER=%s", StorePostgres)
		}
		return nil
	default:
		return fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", StoreBadger, StorePostgres, driver)
	}
}
