package server

import (
	"net/url"
	"os"
)

// dbDSNFromEnv prefers a full DATABASE_URL and otherwise assembles one from
// the individual DB_* variables with local-dev defaults.
func dbDSNFromEnv() string {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		return v
	}

	u := url.URL{
		Scheme: "postgres",
		User: url.UserPassword(
			getenvDefault("DB_USER", "app"),
			getenvDefault("DB_PASSWORD", "app"),
		),
		Host:     getenvDefault("DB_HOST", "127.0.0.1") + ":" + getenvDefault("DB_PORT", "5432"),
		Path:     "/" + getenvDefault("DB_NAME", "unionhall"),
		RawQuery: url.Values{"sslmode": {getenvDefault("DB_SSLMODE", "disable")}}.Encode(),
	}
	return u.String()
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
