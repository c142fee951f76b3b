package app

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/go-sql-driver/mysql"

	"clio/internal/config"
)

// withPassword returns dsn with password filled in, using the form each
// driver expects. An empty password leaves dsn unchanged.
func withPassword(driver, dsn, password string) (string, error) {
	if password == "" {
		return dsn, nil
	}
	switch driver {
	case config.DriverMySQL:
		c, err := mysql.ParseDSN(dsn)
		if err != nil {
			return "", fmt.Errorf("parse mysql dsn: %w", err)
		}
		c.Passwd = password
		return c.FormatDSN(), nil

	case config.DriverPostgres:
		if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
			return urlWithPassword(dsn, password)
		}
		// key=value form; single quotes and backslashes are escaped
		quoted := strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(password)
		return strings.TrimSpace(dsn) + " password='" + quoted + "'", nil

	case config.DriverMongo:
		return urlWithPassword(dsn, password)
	}
	return "", fmt.Errorf("driver %s takes no password", driver)
}

func urlWithPassword(dsn, password string) (string, error) {
	u, err := url.Parse(dsn)
	if err != nil {
		return "", fmt.Errorf("parse dsn: %w", err)
	}
	if u.User == nil {
		return "", fmt.Errorf("dsn has no user to attach a password to")
	}
	u.User = url.UserPassword(u.User.Username(), password)
	return u.String(), nil
}
