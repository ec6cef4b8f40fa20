package app

import (
	"net/url"
	"strings"
)

const maxTracedQueryLength = 512

// withApplicationName tags connections so they show up by service in
// pg_stat_activity. Both URL and key=value DSNs are accepted, and an explicit
// application_name in the DSN wins.
func withApplicationName(dsn, name string) string {
	dsn = strings.TrimSpace(dsn)
	name = strings.TrimSpace(name)
	if dsn == "" || name == "" {
		return dsn
	}

	if parsed, err := url.Parse(dsn); err == nil && parsed.Scheme != "" {
		query := parsed.Query()
		if query.Get("application_name") != "" {
			return dsn
		}
		query.Set("application_name", name)
		parsed.RawQuery = query.Encode()
		return parsed.String()
	}

	if _, ok := dsnKeyword(dsn, "application_name"); ok {
		return dsn
	}
	return dsn + " application_name=" + name
}

func dbNameFromURL(dsn string) string {
	dsn = strings.TrimSpace(dsn)
	if parsed, err := url.Parse(dsn); err == nil && parsed.Scheme != "" {
		return strings.TrimPrefix(parsed.Path, "/")
	}
	name, _ := dsnKeyword(dsn, "dbname")
	return name
}

func dsnKeyword(dsn, key string) (string, bool) {
	for _, field := range strings.Fields(dsn) {
		k, v, ok := strings.Cut(field, "=")
		if ok && k == key {
			return strings.Trim(v, `"'`), true
		}
	}
	return "", false
}

// compactQuery collapses whitespace and caps the statement recorded on db spans.
func compactQuery(query string) string {
	query = strings.Join(strings.Fields(query), " ")
	if len(query) > maxTracedQueryLength {
		return query[:maxTracedQueryLength] + "..."
	}
	return query
}
